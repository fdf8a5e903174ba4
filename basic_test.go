package goadssim

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/mrpasztoradam/goadssim/internal/ads"
)

func TestBasicReadDeviceInfo(t *testing.T) {
	h := NewBasicHandler(nil)
	resp := dispatch(t, h, ads.CmdReadDeviceInfo, nil)

	var info ads.ReadDeviceInfoResponse
	if err := info.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if info.MajorVersion != 1 || info.MinorVersion != 2 || info.VersionBuild != 3 {
		t.Errorf("version = %d.%d.%d, want 1.2.3", info.MajorVersion, info.MinorVersion, info.VersionBuild)
	}
	if info.DeviceName != "TestServer" {
		t.Errorf("DeviceName = %q, want TestServer", info.DeviceName)
	}
}

func TestBasicReadReturnsFiller(t *testing.T) {
	h := NewBasicHandler(nil)

	rr := ads.ReadRequest{IndexGroup: 0x4020, IndexOffset: 0, Length: 4}
	resp := dispatch(t, h, ads.CmdRead, mustMarshal(t, &rr))
	var rresp ads.ReadResponse
	if err := rresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !bytes.Equal(rresp.Data, []byte{0x0F, 0x0F, 0x0F, 0x00}) {
		t.Errorf("read = %x, want 0f0f0f00", rresp.Data)
	}
}

func TestFillerValue(t *testing.T) {
	tests := []struct {
		length uint32
		want   []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x00}},
		{2, []byte{0x0F, 0x00}},
		{5, []byte{0x0F, 0x0F, 0x0F, 0x0F, 0x00}},
	}
	for _, tt := range tests {
		if got := fillerValue(tt.length); !bytes.Equal(got, tt.want) {
			t.Errorf("fillerValue(%d) = %x, want %x", tt.length, got, tt.want)
		}
	}
}

func TestBasicWriteIsSwallowed(t *testing.T) {
	h := NewBasicHandler(nil)

	wr := ads.WriteRequest{IndexGroup: 0x4020, IndexOffset: 0, Data: []byte{0xde, 0xad}}
	resp := dispatch(t, h, ads.CmdWrite, mustMarshal(t, &wr))
	var wresp ads.WriteResponse
	if err := wresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if wresp.Result != 0 {
		t.Errorf("Result = %d, want 0", wresp.Result)
	}
}

func TestBasicReadState(t *testing.T) {
	h := NewBasicHandler(nil)
	resp := dispatch(t, h, ads.CmdReadState, nil)

	var state ads.ReadStateResponse
	if err := state.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if state.ADSState != ads.StateRun {
		t.Errorf("ADSState = %d, want %d", state.ADSState, ads.StateRun)
	}
}

func TestBasicFixedNotificationHandle(t *testing.T) {
	h := NewBasicHandler(nil)

	req := ads.AddDeviceNotificationRequest{IndexGroup: 0x4020, Length: 2}
	resp := dispatch(t, h, ads.CmdAddDeviceNotification, mustMarshal(t, &req))
	var addResp ads.AddDeviceNotificationResponse
	if err := addResp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if addResp.NotificationHandle != 0x0F0F0F0F {
		t.Errorf("NotificationHandle = %#x, want 0x0f0f0f0f", addResp.NotificationHandle)
	}
}

func TestBasicSymbolInfoIsFixedWidth(t *testing.T) {
	h := NewBasicHandler(nil)

	query := func(name string) []byte {
		req := ads.ReadWriteRequest{
			IndexGroup: ads.IndexGroupSymbolInfoByNameEx,
			ReadLength: 0xFF,
			Data:       []byte(name),
		}
		resp := dispatch(t, h, ads.CmdReadWrite, mustMarshal(t, &req))
		var rwresp ads.ReadWriteResponse
		if err := rwresp.UnmarshalBinary(resp.Data); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return rwresp.Data
	}

	entry := query("Main.str_message")
	if len(entry) != 30 {
		t.Fatalf("entry = %d bytes, want 30", len(entry))
	}
	if got := binary.LittleEndian.Uint32(entry[0:4]); got != 30 {
		t.Errorf("entry length field = %d, want 30", got)
	}
	if got := binary.LittleEndian.Uint32(entry[12:16]); got != 5 {
		t.Errorf("size = %d, want 5", got)
	}
	if got := binary.LittleEndian.Uint32(entry[16:20]); got != ads.TypeString {
		t.Errorf("data type = %d, want %d", got, ads.TypeString)
	}

	entry = query("Main.plain")
	if got := binary.LittleEndian.Uint32(entry[12:16]); got != 1 {
		t.Errorf("default size = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(entry[16:20]); got != ads.TypeUInt8 {
		t.Errorf("default data type = %d, want %d", got, ads.TypeUInt8)
	}
}

func TestBasicSumRead(t *testing.T) {
	h := NewBasicHandler(nil)

	items := []ads.SumItem{
		{IndexGroup: 0x4020, IndexOffset: 0, Size: 5},
		{IndexGroup: 0x4020, IndexOffset: 8, Size: 2},
	}
	req := ads.ReadWriteRequest{
		IndexGroup: ads.IndexGroupSumRead,
		ReadLength: 0xFF,
		Data:       ads.MarshalSumItems(items),
	}
	resp := dispatch(t, h, ads.CmdReadWrite, mustMarshal(t, &req))
	var rwresp ads.ReadWriteResponse
	if err := rwresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := append(make([]byte, 8), 't', 'e', 's', 't', 0, 2)
	if !bytes.Equal(rwresp.Data, want) {
		t.Errorf("sum read = %x, want %x", rwresp.Data, want)
	}
}

func TestBasicSumWrite(t *testing.T) {
	h := NewBasicHandler(nil)

	items := []ads.SumItem{
		{IndexGroup: 0x4020, IndexOffset: 0, Size: 2},
		{IndexGroup: 0x4020, IndexOffset: 2, Size: 2},
		{IndexGroup: 0x4020, IndexOffset: 4, Size: 2},
	}
	req := ads.ReadWriteRequest{
		IndexGroup: ads.IndexGroupSumWrite,
		ReadLength: 12,
		Data:       ads.MarshalSumItems(items),
	}
	resp := dispatch(t, h, ads.CmdReadWrite, mustMarshal(t, &req))
	var rwresp ads.ReadWriteResponse
	if err := rwresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !bytes.Equal(rwresp.Data, make([]byte, 12)) {
		t.Errorf("status block = %x, want 12 zero bytes", rwresp.Data)
	}
}

func TestBasicReadWriteDefault(t *testing.T) {
	h := NewBasicHandler(nil)

	req := ads.ReadWriteRequest{IndexGroup: 0x4020, ReadLength: 3, Data: []byte{1, 2}}
	resp := dispatch(t, h, ads.CmdReadWrite, mustMarshal(t, &req))
	var rwresp ads.ReadWriteResponse
	if err := rwresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !bytes.Equal(rwresp.Data, []byte{0x0F, 0x0F, 0x00}) {
		t.Errorf("read data = %x, want 0f0f00", rwresp.Data)
	}

	// Zero read length yields an empty payload rather than filler.
	req.ReadLength = 0
	resp = dispatch(t, h, ads.CmdReadWrite, mustMarshal(t, &req))
	if err := rwresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rwresp.Data) != 0 {
		t.Errorf("read data = %x, want empty", rwresp.Data)
	}
}

func TestBasicUnknownCommand(t *testing.T) {
	h := NewBasicHandler(nil)
	resp := dispatch(t, h, ads.CommandID(0x42), nil)

	if resp.ErrorCode != uint32(ads.ErrUnknownCommandID) {
		t.Errorf("ErrorCode = %#x, want %#x", resp.ErrorCode, uint32(ads.ErrUnknownCommandID))
	}
	if len(resp.Data) != 0 {
		t.Errorf("unknown command carried %d data bytes, want 0", len(resp.Data))
	}
}
