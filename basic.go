package goadssim

import (
	"encoding/binary"

	"github.com/mrpasztoradam/goadssim/internal/ads"
	"github.com/mrpasztoradam/goadssim/internal/ams"
)

// BasicHandler answers every request with canned data and keeps no state.
// Reads return 0x0F filler bytes with a trailing NUL, writes are swallowed,
// and notification handles are a fixed marker value. It is useful for
// exercising a client's codec without caring about stored values.
type BasicHandler struct {
	logger Logger
}

// fixedNotificationHandle is returned for every ADD_DEVICE_NOTIFICATION.
const fixedNotificationHandle uint32 = 0x0F0F0F0F

// NewBasicHandler creates a stateless canned-response handler.
func NewBasicHandler(logger Logger) *BasicHandler {
	if logger == nil {
		logger = DefaultLogger
	}
	return &BasicHandler{logger: logger}
}

// HandleRequest dispatches on the command id, producing canned responses.
func (h *BasicHandler) HandleRequest(req *ams.Packet, _ NotificationSink) (ResponseData, error) {
	flags := responseFlags(req)
	cmd := ads.CommandID(req.Header.CommandID)

	var (
		body []byte
		err  error
	)
	switch cmd {
	case ads.CmdReadDeviceInfo:
		h.logger.Debug("command received", "command", "READ_DEVICE_INFO")
		resp := ads.ReadDeviceInfoResponse{
			MajorVersion: 1,
			MinorVersion: 2,
			VersionBuild: 3,
			DeviceName:   "TestServer",
		}
		body, err = resp.MarshalBinary()

	case ads.CmdRead:
		h.logger.Debug("command received", "command", "READ")
		var rr ads.ReadRequest
		if err := rr.UnmarshalBinary(req.Data); err != nil {
			return ResponseData{}, err
		}
		resp := ads.ReadResponse{Data: fillerValue(rr.Length)}
		body, err = resp.MarshalBinary()

	case ads.CmdWrite:
		h.logger.Debug("command received", "command", "WRITE")
		resp := ads.WriteResponse{}
		body, err = resp.MarshalBinary()

	case ads.CmdReadState:
		h.logger.Debug("command received", "command", "READ_STATE")
		resp := ads.ReadStateResponse{ADSState: ads.StateRun}
		body, err = resp.MarshalBinary()

	case ads.CmdWriteControl:
		h.logger.Debug("command received", "command", "WRITE_CONTROL")
		resp := ads.WriteControlResponse{}
		body, err = resp.MarshalBinary()

	case ads.CmdAddDeviceNotification:
		h.logger.Debug("command received", "command", "ADD_DEVICE_NOTIFICATION")
		resp := ads.AddDeviceNotificationResponse{NotificationHandle: fixedNotificationHandle}
		body, err = resp.MarshalBinary()

	case ads.CmdDelDeviceNotification:
		h.logger.Debug("command received", "command", "DELETE_DEVICE_NOTIFICATION")
		resp := ads.DeleteDeviceNotificationResponse{}
		body, err = resp.MarshalBinary()

	case ads.CmdDeviceNotification:
		h.logger.Debug("command received", "command", "DEVICE_NOTIFICATION")
		resp := ads.WriteResponse{}
		body, err = resp.MarshalBinary()

	case ads.CmdReadWrite:
		h.logger.Debug("command received", "command", "READ_WRITE")
		body, err = h.handleReadWrite(req.Data)

	default:
		h.logger.Warn("unknown command id", "command", uint16(cmd))
		return ResponseData{StateFlags: flags, ErrorCode: uint32(ads.ErrUnknownCommandID)}, nil
	}
	if err != nil {
		return ResponseData{}, err
	}
	return ResponseData{StateFlags: flags, Data: body}, nil
}

func (h *BasicHandler) handleReadWrite(data []byte) ([]byte, error) {
	var req ads.ReadWriteRequest
	if err := req.UnmarshalBinary(data); err != nil {
		return nil, err
	}

	var value []byte
	switch req.IndexGroup {
	case ads.IndexGroupSymbolInfoByNameEx:
		p := lookupTypePattern(string(req.Data))
		value = packFixedSymbolInfo(p.DataType, p.Size)

	case ads.IndexGroupSumRead:
		value = h.sumReadValue(req.Data)

	case ads.IndexGroupSumWrite:
		// Per-item status codes, all zero.
		value = make([]byte, 4*(len(req.Data)/ads.SumItemLen))

	default:
		if req.ReadLength > 0 {
			value = fillerValue(req.ReadLength)
		}
	}

	resp := ads.ReadWriteResponse{Data: value}
	return resp.MarshalBinary()
}

// sumReadValue builds the canned batched-read response: a zero status code
// per item, then "test" with a NUL for 5-byte items and a single counter
// byte for everything else.
func (h *BasicHandler) sumReadValue(writeData []byte) []byte {
	n := len(writeData) / ads.SumItemLen
	out := make([]byte, 4*n, 4*n+5*n)
	for i := 0; i < n; i++ {
		size := binary.LittleEndian.Uint32(writeData[i*ads.SumItemLen+8 : i*ads.SumItemLen+12])
		if size == 5 {
			out = append(out, 't', 'e', 's', 't', 0)
		} else {
			out = append(out, byte(i+1))
		}
	}
	return out
}

// packFixedSymbolInfo packs only the fixed-width part of a symbol entry,
// with the entry length claiming exactly those 30 bytes and no strings.
func packFixedSymbolInfo(dataType, size uint32) []byte {
	buf := make([]byte, 30)
	binary.LittleEndian.PutUint32(buf[0:4], 30)
	binary.LittleEndian.PutUint32(buf[12:16], size)
	binary.LittleEndian.PutUint32(buf[16:20], dataType)
	return buf
}

// fillerValue builds a canned read value: repeated 0x0F bytes with a NUL
// terminator so string reads decode cleanly.
func fillerValue(length uint32) []byte {
	if length == 0 {
		return []byte{0}
	}
	out := make([]byte, length)
	for i := range out[:length-1] {
		out[i] = 0x0F
	}
	return out
}
