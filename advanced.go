package goadssim

import (
	"encoding/binary"

	"github.com/mrpasztoradam/goadssim/internal/ads"
	"github.com/mrpasztoradam/goadssim/internal/ams"
)

// AdvancedHandler serves requests from a live symbol store. Values written
// through it are kept and can be read back by indices, name or handle,
// which makes it the handler of choice for round-trip testing.
//
// Reading a variable that was never written is an error on the handle
// path. Index and name paths create variables implicitly, defaulting to
// UINT16 with a zero-filled 16 byte buffer.
type AdvancedHandler struct {
	store  *Store
	logger Logger
}

// NewAdvancedHandler creates a handler backed by the given store.
func NewAdvancedHandler(store *Store, logger Logger) *AdvancedHandler {
	if store == nil {
		store = NewStore()
	}
	if logger == nil {
		logger = DefaultLogger
	}
	return &AdvancedHandler{store: store, logger: logger}
}

// Store returns the handler's backing store.
func (h *AdvancedHandler) Store() *Store {
	return h.store
}

// HandleRequest dispatches on the command id. The store lock is held for
// the whole request, so a write and its notification fan-out are atomic
// with respect to requests on other connections.
func (h *AdvancedHandler) HandleRequest(req *ams.Packet, sink NotificationSink) (ResponseData, error) {
	flags := responseFlags(req)
	cmd := ads.CommandID(req.Header.CommandID)

	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	var (
		body []byte
		err  error
	)
	switch cmd {
	case ads.CmdReadDeviceInfo:
		body, err = h.handleReadDeviceInfo()
	case ads.CmdRead:
		body, err = h.handleRead(req.Data)
	case ads.CmdWrite:
		body, err = h.handleWrite(req.Data)
	case ads.CmdReadState:
		body, err = h.handleReadState()
	case ads.CmdWriteControl:
		body, err = h.handleWriteControl(req.Data)
	case ads.CmdAddDeviceNotification:
		body, err = h.handleAddDeviceNotification(req.Data, sink)
	case ads.CmdDelDeviceNotification:
		body, err = h.handleDelDeviceNotification(req.Data)
	case ads.CmdDeviceNotification:
		body, err = h.handleDeviceNotification()
	case ads.CmdReadWrite:
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

func (h *AdvancedHandler) handleReadDeviceInfo() ([]byte, error) {
	h.logger.Debug("command received", "command", "READ_DEVICE_INFO")
	resp := ads.ReadDeviceInfoResponse{
		MajorVersion: 1,
		MinorVersion: 2,
		VersionBuild: 3,
		DeviceName:   "TestServer",
	}
	return resp.MarshalBinary()
}

func (h *AdvancedHandler) handleRead(data []byte) ([]byte, error) {
	var req ads.ReadRequest
	if err := req.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	h.logger.Debug("command received", "command", "READ",
		"index_group", req.IndexGroup,
		"index_offset", req.IndexOffset,
		"length", req.Length)

	var value []byte
	switch req.IndexGroup {
	case ads.IndexGroupSymbolValueByHandle:
		v, ok := h.store.byHandle[req.IndexOffset]
		if !ok {
			resp := ads.ReadResponse{Result: uint32(ads.ErrDeviceSymbolNotFound)}
			return resp.MarshalBinary()
		}
		value = sliceValue(v.Value, req.Length)

	case ads.IndexGroupSymbolUploadInfo, ads.IndexGroupSymbolUploadInfo2:
		info := ads.UploadInfo{
			SymbolCount:  uint32(len(h.store.byIndices)),
			UploadLength: uint32(len(h.store.byIndices)) * ads.UploadEntryStride,
		}
		var err error
		value, err = info.MarshalBinary()
		if err != nil {
			return nil, err
		}

	case ads.IndexGroupSymbolUpload:
		value = h.symbolUploadLocked()

	default:
		v := h.store.getOrCreateByIndicesLocked(req.IndexGroup, req.IndexOffset)
		value = sliceValue(v.Value, req.Length)
	}

	resp := ads.ReadResponse{Data: value}
	return resp.MarshalBinary()
}

// symbolUploadLocked packs the (entry size, group, offset) triple of every
// variable at a fixed stride, ordered by handle.
func (h *AdvancedHandler) symbolUploadLocked() []byte {
	out := make([]byte, 0, len(h.store.byIndices)*ads.UploadEntryStride)
	for handle := variableHandleBase; handle < h.store.nextHandle; handle++ {
		v, ok := h.store.byHandle[handle]
		if !ok {
			continue
		}
		entry := make([]byte, ads.UploadEntryStride)
		binary.LittleEndian.PutUint32(entry[0:4], ads.UploadEntryStride)
		binary.LittleEndian.PutUint32(entry[4:8], v.IndexGroup)
		binary.LittleEndian.PutUint32(entry[8:12], v.IndexOffset)
		out = append(out, entry...)
	}
	return out
}

func (h *AdvancedHandler) handleWrite(data []byte) ([]byte, error) {
	var req ads.WriteRequest
	if err := req.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	h.logger.Debug("command received", "command", "WRITE",
		"index_group", req.IndexGroup,
		"index_offset", req.IndexOffset,
		"length", len(req.Data))

	resp := ads.WriteResponse{}
	switch req.IndexGroup {
	case ads.IndexGroupSymbolReleaseHandle:
		// Releasing a handle does not delete the variable.

	case ads.IndexGroupSymbolValueByHandle:
		v, ok := h.store.byHandle[req.IndexOffset]
		if !ok {
			resp.Result = uint32(ads.ErrDeviceSymbolNotFound)
			break
		}
		h.store.writeLocked(v, req.Data)

	default:
		v := h.store.getOrCreateByIndicesLocked(req.IndexGroup, req.IndexOffset)
		h.store.writeLocked(v, req.Data)
	}
	return resp.MarshalBinary()
}

func (h *AdvancedHandler) handleReadWrite(data []byte) ([]byte, error) {
	var req ads.ReadWriteRequest
	if err := req.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	h.logger.Debug("command received", "command", "READ_WRITE",
		"index_group", req.IndexGroup,
		"index_offset", req.IndexOffset,
		"read_length", req.ReadLength,
		"write_length", len(req.Data))

	var readData []byte
	switch req.IndexGroup {
	case ads.IndexGroupSymbolHandleByName:
		// Could be the first step of a write-by-name, so create the
		// variable if it does not yet exist.
		v := h.store.getOrCreateByNameLocked(string(req.Data))
		readData = make([]byte, 4)
		binary.LittleEndian.PutUint32(readData, v.Handle)

	case ads.IndexGroupSymbolInfoByNameEx:
		name := sanitizeName(string(req.Data))
		entry := h.symbolInfoLocked(name)
		var err error
		readData, err = entry.MarshalBinary()
		if err != nil {
			return nil, err
		}

	case ads.IndexGroupSumWrite:
		items, rest, err := ads.ParseSumItems(req.Data, int(req.IndexOffset))
		if err != nil {
			return nil, err
		}
		// Per-item status codes, all zero.
		readData = make([]byte, 4*len(items))
		offset := 0
		for _, it := range items {
			size := int(it.Size)
			if offset+size > len(rest) {
				size = len(rest) - offset
			}
			v := h.store.getOrCreateByIndicesLocked(it.IndexGroup, it.IndexOffset)
			h.store.writeLocked(v, rest[offset:offset+size])
			offset += size
		}

	case ads.IndexGroupSumRead:
		items, _, err := ads.ParseSumItems(req.Data, int(req.IndexOffset))
		if err != nil {
			return nil, err
		}
		readData = make([]byte, 4*len(items))
		for _, it := range items {
			v := h.store.getOrCreateByIndicesLocked(it.IndexGroup, it.IndexOffset)
			readData = append(readData, sliceValue(v.Value, it.Size)...)
		}

	default:
		v := h.store.getOrCreateByIndicesLocked(req.IndexGroup, req.IndexOffset)
		readData = sliceValue(v.Value, req.ReadLength)
		h.store.writeLocked(v, req.Data)
	}

	resp := ads.ReadWriteResponse{Data: readData}
	return resp.MarshalBinary()
}

// symbolInfoLocked reports a variable's real metadata when it exists and
// otherwise answers from the name-pattern fixtures, so symbol info queries
// work without prior writes.
func (h *AdvancedHandler) symbolInfoLocked(name string) ads.SymbolEntry {
	if v, ok := h.store.byName[name]; ok {
		return v.SymbolEntry()
	}
	p := lookupTypePattern(name)
	return ads.SymbolEntry{
		IndexGroup: DefaultIndexGroup,
		Size:       p.Size,
		DataType:   p.DataType,
		Name:       name,
		TypeName:   typeNameFor(p.DataType),
	}
}

func (h *AdvancedHandler) handleReadState() ([]byte, error) {
	h.logger.Debug("command received", "command", "READ_STATE")
	resp := ads.ReadStateResponse{ADSState: ads.StateRun}
	return resp.MarshalBinary()
}

func (h *AdvancedHandler) handleWriteControl(data []byte) ([]byte, error) {
	var req ads.WriteControlRequest
	if err := req.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	h.logger.Debug("command received", "command", "WRITE_CONTROL",
		"ads_state", uint16(req.ADSState),
		"device_state", req.DeviceState)

	// State transitions are not modelled; acknowledge unconditionally.
	resp := ads.WriteControlResponse{}
	return resp.MarshalBinary()
}

func (h *AdvancedHandler) handleAddDeviceNotification(data []byte, sink NotificationSink) ([]byte, error) {
	var req ads.AddDeviceNotificationRequest
	if err := req.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	h.logger.Debug("command received", "command", "ADD_DEVICE_NOTIFICATION",
		"index_group", req.IndexGroup,
		"index_offset", req.IndexOffset,
		"length", req.Length)

	var v *Variable
	if req.IndexGroup == ads.IndexGroupSymbolValueByHandle {
		var ok bool
		v, ok = h.store.byHandle[req.IndexOffset]
		if !ok {
			resp := ads.AddDeviceNotificationResponse{Result: uint32(ads.ErrDeviceSymbolNotFound)}
			return resp.MarshalBinary()
		}
	} else {
		v = h.store.getOrCreateByIndicesLocked(req.IndexGroup, req.IndexOffset)
	}

	handle := h.store.registerNotificationLocked(v, req.Length, sink)
	resp := ads.AddDeviceNotificationResponse{NotificationHandle: handle}
	return resp.MarshalBinary()
}

func (h *AdvancedHandler) handleDelDeviceNotification(data []byte) ([]byte, error) {
	var req ads.DeleteDeviceNotificationRequest
	if err := req.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	h.logger.Debug("command received", "command", "DELETE_DEVICE_NOTIFICATION",
		"notification_handle", req.NotificationHandle)

	if !h.store.unregisterNotificationLocked(req.NotificationHandle) {
		h.logger.Warn("delete for unknown notification handle",
			"notification_handle", req.NotificationHandle)
	}
	resp := ads.DeleteDeviceNotificationResponse{}
	return resp.MarshalBinary()
}

func (h *AdvancedHandler) handleDeviceNotification() ([]byte, error) {
	h.logger.Debug("command received", "command", "DEVICE_NOTIFICATION")
	resp := ads.WriteResponse{}
	return resp.MarshalBinary()
}

// sliceValue returns up to length bytes of value, zero-padded when the
// stored value is shorter than requested.
func sliceValue(value []byte, length uint32) []byte {
	out := make([]byte, length)
	copy(out, value)
	return out
}
