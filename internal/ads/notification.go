package ads

import (
	"encoding/binary"
	"fmt"
	"time"
)

type AddDeviceNotificationRequest struct {
	IndexGroup       uint32
	IndexOffset      uint32
	Length           uint32
	TransmissionMode TransmissionMode
	MaxDelay         uint32 // in 1 ms units
	CycleTime        uint32 // in 1 ms units
}

// addNotificationReqLen covers the six uint32 fields; the 16 reserved
// bytes that follow on the wire are optional in the simulator.
const addNotificationReqLen = 24

func (r *AddDeviceNotificationRequest) MarshalBinary() ([]byte, error) {
	buf := make([]byte, addNotificationReqLen+16)
	binary.LittleEndian.PutUint32(buf[0:4], r.IndexGroup)
	binary.LittleEndian.PutUint32(buf[4:8], r.IndexOffset)
	binary.LittleEndian.PutUint32(buf[8:12], r.Length)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(r.TransmissionMode))
	binary.LittleEndian.PutUint32(buf[16:20], r.MaxDelay)
	binary.LittleEndian.PutUint32(buf[20:24], r.CycleTime)
	return buf, nil
}

func (r *AddDeviceNotificationRequest) UnmarshalBinary(data []byte) error {
	if len(data) < addNotificationReqLen {
		return fmt.Errorf("ads: add notification request requires %d bytes, got %d", addNotificationReqLen, len(data))
	}
	r.IndexGroup = binary.LittleEndian.Uint32(data[0:4])
	r.IndexOffset = binary.LittleEndian.Uint32(data[4:8])
	r.Length = binary.LittleEndian.Uint32(data[8:12])
	r.TransmissionMode = TransmissionMode(binary.LittleEndian.Uint32(data[12:16]))
	r.MaxDelay = binary.LittleEndian.Uint32(data[16:20])
	r.CycleTime = binary.LittleEndian.Uint32(data[20:24])
	return nil
}

type AddDeviceNotificationResponse struct {
	Result             uint32
	NotificationHandle uint32
}

func (r *AddDeviceNotificationResponse) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], r.Result)
	binary.LittleEndian.PutUint32(buf[4:8], r.NotificationHandle)
	return buf, nil
}

func (r *AddDeviceNotificationResponse) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("ads: add notification response requires 8 bytes, got %d", len(data))
	}
	r.Result = binary.LittleEndian.Uint32(data[0:4])
	r.NotificationHandle = binary.LittleEndian.Uint32(data[4:8])
	return nil
}

type DeleteDeviceNotificationRequest struct {
	NotificationHandle uint32
}

func (r *DeleteDeviceNotificationRequest) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf[0:4], r.NotificationHandle)
	return buf, nil
}

func (r *DeleteDeviceNotificationRequest) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("ads: delete notification request requires 4 bytes, got %d", len(data))
	}
	r.NotificationHandle = binary.LittleEndian.Uint32(data[0:4])
	return nil
}

type DeleteDeviceNotificationResponse struct {
	Result uint32
}

func (r *DeleteDeviceNotificationResponse) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf[0:4], r.Result)
	return buf, nil
}

func (r *DeleteDeviceNotificationResponse) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("ads: delete notification response requires 4 bytes, got %d", len(data))
	}
	r.Result = binary.LittleEndian.Uint32(data[0:4])
	return nil
}

// NotificationSample is one value sample inside a notification stamp.
type NotificationSample struct {
	NotificationHandle uint32
	Data               []byte
}

// NotificationStamp groups samples that share one timestamp.
type NotificationStamp struct {
	Timestamp time.Time
	Samples   []NotificationSample
}

// NotificationStream is the payload of a DEVICE_NOTIFICATION push frame:
// a length-prefixed list of stamps, each holding timestamped samples.
type NotificationStream struct {
	Stamps []NotificationStamp
}

// SingleSampleStream builds the one-stamp, one-sample stream the
// simulator pushes for each value change.
func SingleSampleStream(handle uint32, timestamp time.Time, data []byte) *NotificationStream {
	return &NotificationStream{
		Stamps: []NotificationStamp{{
			Timestamp: timestamp,
			Samples:   []NotificationSample{{NotificationHandle: handle, Data: data}},
		}},
	}
}

func (s *NotificationStream) MarshalBinary() ([]byte, error) {
	size := 8 // length + stamp count
	for _, stamp := range s.Stamps {
		size += 12 // timestamp + sample count
		for _, sample := range stamp.Samples {
			size += 8 + len(sample.Data)
		}
	}

	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(size-4))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(s.Stamps)))
	pos := 8
	for _, stamp := range s.Stamps {
		binary.LittleEndian.PutUint64(buf[pos:pos+8], TimeToFiletime(stamp.Timestamp))
		binary.LittleEndian.PutUint32(buf[pos+8:pos+12], uint32(len(stamp.Samples)))
		pos += 12
		for _, sample := range stamp.Samples {
			binary.LittleEndian.PutUint32(buf[pos:pos+4], sample.NotificationHandle)
			binary.LittleEndian.PutUint32(buf[pos+4:pos+8], uint32(len(sample.Data)))
			pos += 8
			copy(buf[pos:], sample.Data)
			pos += len(sample.Data)
		}
	}
	return buf, nil
}

func (s *NotificationStream) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("ads: notification stream requires at least 8 bytes, got %d", len(data))
	}
	stampCount := binary.LittleEndian.Uint32(data[4:8])
	pos := 8
	s.Stamps = make([]NotificationStamp, 0, stampCount)
	for i := uint32(0); i < stampCount; i++ {
		if len(data) < pos+12 {
			return fmt.Errorf("ads: notification stream truncated at stamp %d", i)
		}
		stamp := NotificationStamp{
			Timestamp: FiletimeToTime(binary.LittleEndian.Uint64(data[pos : pos+8])),
		}
		sampleCount := binary.LittleEndian.Uint32(data[pos+8 : pos+12])
		pos += 12
		for j := uint32(0); j < sampleCount; j++ {
			if len(data) < pos+8 {
				return fmt.Errorf("ads: notification stream truncated at sample %d/%d", i, j)
			}
			handle := binary.LittleEndian.Uint32(data[pos : pos+4])
			size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
			pos += 8
			if len(data) < pos+size {
				return fmt.Errorf("ads: notification sample %d/%d exceeds stream", i, j)
			}
			sample := NotificationSample{
				NotificationHandle: handle,
				Data:               append([]byte(nil), data[pos:pos+size]...),
			}
			pos += size
			stamp.Samples = append(stamp.Samples, sample)
		}
		s.Stamps = append(s.Stamps, stamp)
	}
	return nil
}

// filetimeEpochDelta is the count of 100 ns intervals between the Windows
// FILETIME epoch (1601-01-01) and the Unix epoch (1970-01-01).
const filetimeEpochDelta = 116444736000000000

// TimeToFiletime converts a time.Time to Windows FILETIME, the timestamp
// format notification stamps carry on the wire.
func TimeToFiletime(t time.Time) uint64 {
	return uint64(t.UnixNano()/100 + filetimeEpochDelta)
}

// FiletimeToTime converts a Windows FILETIME value to time.Time.
func FiletimeToTime(ft uint64) time.Time {
	return time.Unix(0, (int64(ft)-filetimeEpochDelta)*100)
}
