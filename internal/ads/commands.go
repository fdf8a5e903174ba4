// Package ads implements ADS (Automation Device Specification) command
// payloads as they appear on the wire, in both request and response
// direction.
package ads

import (
	"encoding/binary"
	"fmt"
)

type CommandID uint16

const (
	CmdInvalid               CommandID = 0x0000
	CmdReadDeviceInfo        CommandID = 0x0001
	CmdRead                  CommandID = 0x0002
	CmdWrite                 CommandID = 0x0003
	CmdReadState             CommandID = 0x0004
	CmdWriteControl          CommandID = 0x0005
	CmdAddDeviceNotification CommandID = 0x0006
	CmdDelDeviceNotification CommandID = 0x0007
	CmdDeviceNotification    CommandID = 0x0008
	CmdReadWrite             CommandID = 0x0009
)

// String returns the protocol name of the command.
func (c CommandID) String() string {
	switch c {
	case CmdReadDeviceInfo:
		return "READ_DEVICE_INFO"
	case CmdRead:
		return "READ"
	case CmdWrite:
		return "WRITE"
	case CmdReadState:
		return "READ_STATE"
	case CmdWriteControl:
		return "WRITE_CONTROL"
	case CmdAddDeviceNotification:
		return "ADD_DEVICE_NOTIFICATION"
	case CmdDelDeviceNotification:
		return "DELETE_DEVICE_NOTIFICATION"
	case CmdDeviceNotification:
		return "DEVICE_NOTIFICATION"
	case CmdReadWrite:
		return "READ_WRITE"
	default:
		return fmt.Sprintf("UNKNOWN(0x%04X)", uint16(c))
	}
}

// General-purpose index groups for PLC memory areas.
const (
	IndexGroupMemoryByte uint32 = 0x00004020 // %M area, offset is byte offset
	IndexGroupMemoryBit  uint32 = 0x00004021 // %MX area, offset is bit address
	IndexGroupData       uint32 = 0x00004040 // data area, offset is byte offset
	IndexGroupDataSize   uint32 = 0x00004045 // size of the data area in bytes
)

// Sum-command index groups for batched requests.
const (
	IndexGroupSumRead  uint32 = 0x0000F080 // batched read, ReadWrite command
	IndexGroupSumWrite uint32 = 0x0000F081 // batched write, ReadWrite command
)

type ADSState uint16

const (
	StateInvalid ADSState = 0
	StateIdle    ADSState = 1
	StateReset   ADSState = 2
	StateInit    ADSState = 3
	StateStart   ADSState = 4
	StateRun     ADSState = 5
	StateStop    ADSState = 6
)

// TransmissionMode controls when a device notification fires.
type TransmissionMode uint32

const (
	TransModeNone        TransmissionMode = 0
	TransModeClientCycle TransmissionMode = 1
	TransModeClientOnCha TransmissionMode = 2
	TransModeServerCycle TransmissionMode = 3
	TransModeServerOnCha TransmissionMode = 4
)

type ReadRequest struct {
	IndexGroup  uint32
	IndexOffset uint32
	Length      uint32
}

func (r *ReadRequest) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:4], r.IndexGroup)
	binary.LittleEndian.PutUint32(buf[4:8], r.IndexOffset)
	binary.LittleEndian.PutUint32(buf[8:12], r.Length)
	return buf, nil
}

func (r *ReadRequest) UnmarshalBinary(data []byte) error {
	if len(data) < 12 {
		return fmt.Errorf("ads: read request requires 12 bytes, got %d", len(data))
	}
	r.IndexGroup = binary.LittleEndian.Uint32(data[0:4])
	r.IndexOffset = binary.LittleEndian.Uint32(data[4:8])
	r.Length = binary.LittleEndian.Uint32(data[8:12])
	return nil
}

type ReadResponse struct {
	Result uint32
	Data   []byte
}

func (r *ReadResponse) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8+len(r.Data))
	binary.LittleEndian.PutUint32(buf[0:4], r.Result)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(r.Data)))
	copy(buf[8:], r.Data)
	return buf, nil
}

func (r *ReadResponse) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("ads: read response requires at least 8 bytes, got %d", len(data))
	}
	r.Result = binary.LittleEndian.Uint32(data[0:4])
	length := binary.LittleEndian.Uint32(data[4:8])
	if uint32(len(data)-8) < length {
		return fmt.Errorf("ads: read response truncated: declared %d, got %d", length, len(data)-8)
	}
	r.Data = make([]byte, length)
	copy(r.Data, data[8:8+length])
	return nil
}

type WriteRequest struct {
	IndexGroup  uint32
	IndexOffset uint32
	Data        []byte
}

func (w *WriteRequest) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 12+len(w.Data))
	binary.LittleEndian.PutUint32(buf[0:4], w.IndexGroup)
	binary.LittleEndian.PutUint32(buf[4:8], w.IndexOffset)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(w.Data)))
	copy(buf[12:], w.Data)
	return buf, nil
}

func (w *WriteRequest) UnmarshalBinary(data []byte) error {
	if len(data) < 12 {
		return fmt.Errorf("ads: write request requires at least 12 bytes, got %d", len(data))
	}
	w.IndexGroup = binary.LittleEndian.Uint32(data[0:4])
	w.IndexOffset = binary.LittleEndian.Uint32(data[4:8])
	length := binary.LittleEndian.Uint32(data[8:12])
	if uint32(len(data)-12) < length {
		length = uint32(len(data) - 12)
	}
	w.Data = make([]byte, length)
	copy(w.Data, data[12:12+length])
	return nil
}

type WriteResponse struct {
	Result uint32
}

func (w *WriteResponse) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf[0:4], w.Result)
	return buf, nil
}

func (w *WriteResponse) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("ads: write response requires 4 bytes, got %d", len(data))
	}
	w.Result = binary.LittleEndian.Uint32(data[0:4])
	return nil
}

type ReadStateResponse struct {
	Result      uint32
	ADSState    ADSState
	DeviceState uint16
}

func (r *ReadStateResponse) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], r.Result)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(r.ADSState))
	binary.LittleEndian.PutUint16(buf[6:8], r.DeviceState)
	return buf, nil
}

func (r *ReadStateResponse) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("ads: read state response requires 8 bytes, got %d", len(data))
	}
	r.Result = binary.LittleEndian.Uint32(data[0:4])
	r.ADSState = ADSState(binary.LittleEndian.Uint16(data[4:6]))
	r.DeviceState = binary.LittleEndian.Uint16(data[6:8])
	return nil
}

// DeviceNameLen is the fixed width of the device name field in a
// READ_DEVICE_INFO response.
const DeviceNameLen = 16

type ReadDeviceInfoResponse struct {
	Result       uint32
	MajorVersion uint8
	MinorVersion uint8
	VersionBuild uint16
	DeviceName   string
}

func (r *ReadDeviceInfoResponse) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8+DeviceNameLen)
	binary.LittleEndian.PutUint32(buf[0:4], r.Result)
	buf[4] = r.MajorVersion
	buf[5] = r.MinorVersion
	binary.LittleEndian.PutUint16(buf[6:8], r.VersionBuild)
	name := r.DeviceName
	if len(name) > DeviceNameLen-1 {
		name = name[:DeviceNameLen-1]
	}
	copy(buf[8:], name)
	return buf, nil
}

func (r *ReadDeviceInfoResponse) UnmarshalBinary(data []byte) error {
	if len(data) < 8+DeviceNameLen {
		return fmt.Errorf("ads: read device info response requires %d bytes, got %d", 8+DeviceNameLen, len(data))
	}
	r.Result = binary.LittleEndian.Uint32(data[0:4])
	r.MajorVersion = data[4]
	r.MinorVersion = data[5]
	r.VersionBuild = binary.LittleEndian.Uint16(data[6:8])

	nameBytes := data[8 : 8+DeviceNameLen]
	nameLen := DeviceNameLen
	for i, b := range nameBytes {
		if b == 0 {
			nameLen = i
			break
		}
	}
	r.DeviceName = string(nameBytes[:nameLen])
	return nil
}

type ReadWriteRequest struct {
	IndexGroup  uint32
	IndexOffset uint32
	ReadLength  uint32
	Data        []byte
}

func (r *ReadWriteRequest) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 16+len(r.Data))
	binary.LittleEndian.PutUint32(buf[0:4], r.IndexGroup)
	binary.LittleEndian.PutUint32(buf[4:8], r.IndexOffset)
	binary.LittleEndian.PutUint32(buf[8:12], r.ReadLength)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(r.Data)))
	copy(buf[16:], r.Data)
	return buf, nil
}

func (r *ReadWriteRequest) UnmarshalBinary(data []byte) error {
	if len(data) < 16 {
		return fmt.Errorf("ads: read/write request requires at least 16 bytes, got %d", len(data))
	}
	r.IndexGroup = binary.LittleEndian.Uint32(data[0:4])
	r.IndexOffset = binary.LittleEndian.Uint32(data[4:8])
	r.ReadLength = binary.LittleEndian.Uint32(data[8:12])
	writeLength := binary.LittleEndian.Uint32(data[12:16])
	if uint32(len(data)-16) < writeLength {
		writeLength = uint32(len(data) - 16)
	}
	r.Data = make([]byte, writeLength)
	copy(r.Data, data[16:16+writeLength])
	return nil
}

type ReadWriteResponse struct {
	Result uint32
	Data   []byte
}

func (r *ReadWriteResponse) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8+len(r.Data))
	binary.LittleEndian.PutUint32(buf[0:4], r.Result)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(r.Data)))
	copy(buf[8:], r.Data)
	return buf, nil
}

func (r *ReadWriteResponse) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("ads: read/write response requires at least 8 bytes, got %d", len(data))
	}
	r.Result = binary.LittleEndian.Uint32(data[0:4])
	length := binary.LittleEndian.Uint32(data[4:8])
	if uint32(len(data)-8) < length {
		return fmt.Errorf("ads: read/write response truncated: declared %d, got %d", length, len(data)-8)
	}
	r.Data = make([]byte, length)
	copy(r.Data, data[8:8+length])
	return nil
}

type WriteControlRequest struct {
	ADSState    ADSState
	DeviceState uint16
	Data        []byte
}

func (w *WriteControlRequest) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8+len(w.Data))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(w.ADSState))
	binary.LittleEndian.PutUint16(buf[2:4], w.DeviceState)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(w.Data)))
	copy(buf[8:], w.Data)
	return buf, nil
}

func (w *WriteControlRequest) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("ads: write control request requires at least 8 bytes, got %d", len(data))
	}
	w.ADSState = ADSState(binary.LittleEndian.Uint16(data[0:2]))
	w.DeviceState = binary.LittleEndian.Uint16(data[2:4])
	length := binary.LittleEndian.Uint32(data[4:8])
	if uint32(len(data)-8) < length {
		length = uint32(len(data) - 8)
	}
	w.Data = make([]byte, length)
	copy(w.Data, data[8:8+length])
	return nil
}

type WriteControlResponse struct {
	Result uint32
}

func (w *WriteControlResponse) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf[0:4], w.Result)
	return buf, nil
}

func (w *WriteControlResponse) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("ads: write control response requires 4 bytes, got %d", len(data))
	}
	w.Result = binary.LittleEndian.Uint32(data[0:4])
	return nil
}

// SumItem is one (index group, index offset, size) triple of a batched
// SUMUP_READ or SUMUP_WRITE request. Triples are packed back to back, 12
// bytes each, at the start of the ReadWrite write payload.
type SumItem struct {
	IndexGroup  uint32
	IndexOffset uint32
	Size        uint32
}

// SumItemLen is the packed size of one sum-request triple.
const SumItemLen = 12

// ParseSumItems slices count triples off the front of data and returns the
// triples plus the remaining bytes (the data segment of a SUMUP_WRITE).
func ParseSumItems(data []byte, count int) ([]SumItem, []byte, error) {
	need := count * SumItemLen
	if count < 0 || len(data) < need {
		return nil, nil, fmt.Errorf("ads: sum request of %d items requires %d bytes, got %d", count, need, len(data))
	}
	items := make([]SumItem, count)
	for i := 0; i < count; i++ {
		off := i * SumItemLen
		items[i] = SumItem{
			IndexGroup:  binary.LittleEndian.Uint32(data[off : off+4]),
			IndexOffset: binary.LittleEndian.Uint32(data[off+4 : off+8]),
			Size:        binary.LittleEndian.Uint32(data[off+8 : off+12]),
		}
	}
	return items, data[need:], nil
}

// MarshalSumItems packs triples back to back, the inverse of ParseSumItems.
func MarshalSumItems(items []SumItem) []byte {
	buf := make([]byte, len(items)*SumItemLen)
	for i, it := range items {
		off := i * SumItemLen
		binary.LittleEndian.PutUint32(buf[off:off+4], it.IndexGroup)
		binary.LittleEndian.PutUint32(buf[off+4:off+8], it.IndexOffset)
		binary.LittleEndian.PutUint32(buf[off+8:off+12], it.Size)
	}
	return buf
}
