package goadssim

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/mrpasztoradam/goadssim/internal/ads"
	"github.com/mrpasztoradam/goadssim/internal/ams"
)

var (
	testClientNetID = ams.NetID{192, 168, 0, 10, 1, 1}
	testServerNetID = ams.NetID{127, 0, 0, 1, 1, 1}
)

func newTestRequest(cmd ads.CommandID, payload []byte) *ams.Packet {
	return ams.NewRequestPacket(
		testServerNetID, ams.PortPLCRuntime1,
		testClientNetID, 32905,
		uint16(cmd), 1, payload)
}

func mustMarshal(t *testing.T, m interface{ MarshalBinary() ([]byte, error) }) []byte {
	t.Helper()
	data, err := m.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func dispatch(t *testing.T, h Handler, cmd ads.CommandID, payload []byte) ResponseData {
	t.Helper()
	resp, err := h.HandleRequest(newTestRequest(cmd, payload), &captureSink{})
	if err != nil {
		t.Fatalf("HandleRequest(%s) error: %v", cmd, err)
	}
	return resp
}

func TestAdvancedReadDeviceInfo(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)
	resp := dispatch(t, h, ads.CmdReadDeviceInfo, nil)

	var info ads.ReadDeviceInfoResponse
	if err := info.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if info.Result != 0 {
		t.Errorf("Result = %d, want 0", info.Result)
	}
	if info.MajorVersion != 1 || info.MinorVersion != 2 || info.VersionBuild != 3 {
		t.Errorf("version = %d.%d.%d, want 1.2.3", info.MajorVersion, info.MinorVersion, info.VersionBuild)
	}
	if info.DeviceName != "TestServer" {
		t.Errorf("DeviceName = %q, want TestServer", info.DeviceName)
	}
}

func TestAdvancedStateFlagsEchoRequestFlags(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)
	req := newTestRequest(ads.CmdReadState, nil)
	req.Header.StateFlags = ams.StateFlagsTCPRequest

	resp, err := h.HandleRequest(req, &captureSink{})
	if err != nil {
		t.Fatalf("HandleRequest error: %v", err)
	}
	if want := ams.StateFlagsTCPRequest | ams.StateFlagResponse; resp.StateFlags != want {
		t.Errorf("StateFlags = %#04x, want %#04x", resp.StateFlags, want)
	}
}

func TestAdvancedUnknownCommand(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)
	resp := dispatch(t, h, ads.CommandID(0x99), nil)

	if resp.ErrorCode != uint32(ads.ErrUnknownCommandID) {
		t.Errorf("ErrorCode = %#x, want %#x", resp.ErrorCode, uint32(ads.ErrUnknownCommandID))
	}
	if len(resp.Data) != 0 {
		t.Errorf("unknown command carried %d data bytes, want 0", len(resp.Data))
	}
}

func TestAdvancedWriteThenReadByIndices(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)

	wr := ads.WriteRequest{IndexGroup: 0x4020, IndexOffset: 4, Data: []byte{0xde, 0xad}}
	resp := dispatch(t, h, ads.CmdWrite, mustMarshal(t, &wr))
	var wresp ads.WriteResponse
	if err := wresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal write response: %v", err)
	}
	if wresp.Result != 0 {
		t.Fatalf("write Result = %d, want 0", wresp.Result)
	}

	rr := ads.ReadRequest{IndexGroup: 0x4020, IndexOffset: 4, Length: 2}
	resp = dispatch(t, h, ads.CmdRead, mustMarshal(t, &rr))
	var rresp ads.ReadResponse
	if err := rresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal read response: %v", err)
	}
	if !bytes.Equal(rresp.Data, []byte{0xde, 0xad}) {
		t.Errorf("read back %x, want dead", rresp.Data)
	}
}

func TestAdvancedReadCreatesVariableImplicitly(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)

	rr := ads.ReadRequest{IndexGroup: 0x4020, IndexOffset: 0, Length: 4}
	resp := dispatch(t, h, ads.CmdRead, mustMarshal(t, &rr))
	var rresp ads.ReadResponse
	if err := rresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !bytes.Equal(rresp.Data, make([]byte, 4)) {
		t.Errorf("fresh read = %x, want zeros", rresp.Data)
	}

	if _, ok := h.Store().GetByIndices(0x4020, 0); !ok {
		t.Error("read did not create the variable")
	}
}

func TestAdvancedReadPadsShortValues(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)

	wr := ads.WriteRequest{IndexGroup: 0x4020, IndexOffset: 0, Data: []byte{0x01}}
	dispatch(t, h, ads.CmdWrite, mustMarshal(t, &wr))

	rr := ads.ReadRequest{IndexGroup: 0x4020, IndexOffset: 0, Length: 4}
	resp := dispatch(t, h, ads.CmdRead, mustMarshal(t, &rr))
	var rresp ads.ReadResponse
	if err := rresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !bytes.Equal(rresp.Data, []byte{0x01, 0, 0, 0}) {
		t.Errorf("read = %x, want 01000000", rresp.Data)
	}
}

func TestAdvancedHandleByNameRoundTrip(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)

	// Resolve a handle for a name that does not exist yet.
	hr := ads.ReadWriteRequest{
		IndexGroup: ads.IndexGroupSymbolHandleByName,
		ReadLength: 4,
		Data:       []byte("Main.counter\x00"),
	}
	resp := dispatch(t, h, ads.CmdReadWrite, mustMarshal(t, &hr))
	var hresp ads.ReadWriteResponse
	if err := hresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(hresp.Data) != 4 {
		t.Fatalf("handle payload = %d bytes, want 4", len(hresp.Data))
	}
	handle := binary.LittleEndian.Uint32(hresp.Data)
	if handle != 10000 {
		t.Errorf("handle = %d, want 10000", handle)
	}

	v, ok := h.Store().GetByName("Main.counter")
	if !ok {
		t.Fatal("variable not created by handle resolution")
	}
	if want := uint32(10000 + handle); v.IndexOffset != want {
		t.Errorf("offset = %d, want %d", v.IndexOffset, want)
	}

	// Write through the handle, then read back.
	wr := ads.WriteRequest{
		IndexGroup:  ads.IndexGroupSymbolValueByHandle,
		IndexOffset: handle,
		Data:        []byte{0x2a, 0x00},
	}
	resp = dispatch(t, h, ads.CmdWrite, mustMarshal(t, &wr))
	var wresp ads.WriteResponse
	if err := wresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if wresp.Result != 0 {
		t.Fatalf("write Result = %d, want 0", wresp.Result)
	}

	rr := ads.ReadRequest{
		IndexGroup:  ads.IndexGroupSymbolValueByHandle,
		IndexOffset: handle,
		Length:      2,
	}
	resp = dispatch(t, h, ads.CmdRead, mustMarshal(t, &rr))
	var rresp ads.ReadResponse
	if err := rresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !bytes.Equal(rresp.Data, []byte{0x2a, 0x00}) {
		t.Errorf("read back %x, want 2a00", rresp.Data)
	}
}

func TestAdvancedResolveSameNameTwice(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)

	resolve := func() uint32 {
		hr := ads.ReadWriteRequest{
			IndexGroup: ads.IndexGroupSymbolHandleByName,
			ReadLength: 4,
			Data:       []byte("Main.x"),
		}
		resp := dispatch(t, h, ads.CmdReadWrite, mustMarshal(t, &hr))
		var hresp ads.ReadWriteResponse
		if err := hresp.UnmarshalBinary(resp.Data); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return binary.LittleEndian.Uint32(hresp.Data)
	}

	if first, second := resolve(), resolve(); first != second {
		t.Errorf("handles differ across resolutions: %d, %d", first, second)
	}
}

func TestAdvancedReadUnknownHandle(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)

	rr := ads.ReadRequest{IndexGroup: ads.IndexGroupSymbolValueByHandle, IndexOffset: 42, Length: 2}
	resp := dispatch(t, h, ads.CmdRead, mustMarshal(t, &rr))
	var rresp ads.ReadResponse
	if err := rresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rresp.Result != uint32(ads.ErrDeviceSymbolNotFound) {
		t.Errorf("Result = %#x, want %#x", rresp.Result, uint32(ads.ErrDeviceSymbolNotFound))
	}
}

func TestAdvancedWriteUnknownHandle(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)

	wr := ads.WriteRequest{IndexGroup: ads.IndexGroupSymbolValueByHandle, IndexOffset: 42, Data: []byte{1}}
	resp := dispatch(t, h, ads.CmdWrite, mustMarshal(t, &wr))
	var wresp ads.WriteResponse
	if err := wresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if wresp.Result != uint32(ads.ErrDeviceSymbolNotFound) {
		t.Errorf("Result = %#x, want %#x", wresp.Result, uint32(ads.ErrDeviceSymbolNotFound))
	}
}

func TestAdvancedReleaseHandleKeepsVariable(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)
	st := h.Store()
	v := NewVariable("Main.x", 0x4020, 0, ads.TypeUInt16, 2)
	if err := st.Add(v); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	wr := ads.WriteRequest{IndexGroup: ads.IndexGroupSymbolReleaseHandle, Data: make([]byte, 4)}
	resp := dispatch(t, h, ads.CmdWrite, mustMarshal(t, &wr))
	var wresp ads.WriteResponse
	if err := wresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if wresp.Result != 0 {
		t.Errorf("Result = %d, want 0", wresp.Result)
	}
	if _, ok := st.GetByHandle(v.Handle); !ok {
		t.Error("release handle removed the variable")
	}
}

func TestAdvancedUploadInfo(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)
	st := h.Store()
	for _, name := range []string{"Main.a", "Main.b", "Main.c"} {
		if err := st.Add(NewVariable(name, 0, 0, ads.TypeUInt16, 2)); err != nil {
			t.Fatalf("Add error: %v", err)
		}
	}

	for _, group := range []uint32{ads.IndexGroupSymbolUploadInfo, ads.IndexGroupSymbolUploadInfo2} {
		rr := ads.ReadRequest{IndexGroup: group, Length: 8}
		resp := dispatch(t, h, ads.CmdRead, mustMarshal(t, &rr))
		var rresp ads.ReadResponse
		if err := rresp.UnmarshalBinary(resp.Data); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		var info ads.UploadInfo
		if err := info.UnmarshalBinary(rresp.Data); err != nil {
			t.Fatalf("unmarshal upload info: %v", err)
		}
		if info.SymbolCount != 3 {
			t.Errorf("group %#x: SymbolCount = %d, want 3", group, info.SymbolCount)
		}
		if info.UploadLength != 3*ads.UploadEntryStride {
			t.Errorf("group %#x: UploadLength = %d, want %d", group, info.UploadLength, 3*ads.UploadEntryStride)
		}
	}
}

func TestAdvancedSymbolUpload(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)
	st := h.Store()
	a := NewVariable("Main.a", 0x4020, 0, ads.TypeUInt16, 2)
	b := NewVariable("Main.b", 0x4020, 2, ads.TypeUInt16, 2)
	if err := st.Add(a); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if err := st.Add(b); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	rr := ads.ReadRequest{IndexGroup: ads.IndexGroupSymbolUpload, Length: 2 * ads.UploadEntryStride}
	resp := dispatch(t, h, ads.CmdRead, mustMarshal(t, &rr))
	var rresp ads.ReadResponse
	if err := rresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rresp.Data) != 2*ads.UploadEntryStride {
		t.Fatalf("upload = %d bytes, want %d", len(rresp.Data), 2*ads.UploadEntryStride)
	}

	for i, v := range []*Variable{a, b} {
		entry := rresp.Data[i*ads.UploadEntryStride:]
		if got := binary.LittleEndian.Uint32(entry[0:4]); got != ads.UploadEntryStride {
			t.Errorf("entry %d size = %d, want %d", i, got, ads.UploadEntryStride)
		}
		if got := binary.LittleEndian.Uint32(entry[4:8]); got != v.IndexGroup {
			t.Errorf("entry %d group = %#x, want %#x", i, got, v.IndexGroup)
		}
		if got := binary.LittleEndian.Uint32(entry[8:12]); got != v.IndexOffset {
			t.Errorf("entry %d offset = %d, want %d", i, got, v.IndexOffset)
		}
	}
}

func TestAdvancedSymbolInfoByNameEx(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)
	st := h.Store()
	v := NewVariable("Main.counter", 0x4020, 8, ads.TypeUInt16, 2)
	v.Comment = "cycle counter"
	if err := st.Add(v); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	query := func(name string) ads.SymbolEntry {
		req := ads.ReadWriteRequest{
			IndexGroup: ads.IndexGroupSymbolInfoByNameEx,
			ReadLength: 0xFF,
			Data:       []byte(name + "\x00"),
		}
		resp := dispatch(t, h, ads.CmdReadWrite, mustMarshal(t, &req))
		var rwresp ads.ReadWriteResponse
		if err := rwresp.UnmarshalBinary(resp.Data); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		var entry ads.SymbolEntry
		if err := entry.UnmarshalBinary(rwresp.Data); err != nil {
			t.Fatalf("unmarshal entry: %v", err)
		}
		return entry
	}

	// A registered variable reports its real metadata.
	entry := query("Main.counter")
	if entry.Name != "Main.counter" || entry.TypeName != "UINT" || entry.Comment != "cycle counter" {
		t.Errorf("entry = %+v, want real variable metadata", entry)
	}
	if entry.IndexGroup != 0x4020 || entry.IndexOffset != 8 || entry.Size != 2 {
		t.Errorf("entry address/size = (%#x, %d, %d), want (0x4020, 8, 2)", entry.IndexGroup, entry.IndexOffset, entry.Size)
	}

	// Unknown names fall back to the name-pattern fixtures.
	entry = query("Main.str_message")
	if entry.DataType != ads.TypeString || entry.Size != 5 {
		t.Errorf("str_ entry = (type %d, size %d), want (%d, 5)", entry.DataType, entry.Size, ads.TypeString)
	}

	entry = query("Main.plain")
	if entry.DataType != ads.TypeUInt8 || entry.Size != 1 {
		t.Errorf("default entry = (type %d, size %d), want (%d, 1)", entry.DataType, entry.Size, ads.TypeUInt8)
	}
}

func TestAdvancedSumWrite(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)

	items := []ads.SumItem{
		{IndexGroup: 0x4020, IndexOffset: 0, Size: 2},
		{IndexGroup: 0x4020, IndexOffset: 2, Size: 4},
	}
	payload := append(ads.MarshalSumItems(items), 0xaa, 0xbb, 0x01, 0x02, 0x03, 0x04)

	req := ads.ReadWriteRequest{
		IndexGroup:  ads.IndexGroupSumWrite,
		IndexOffset: uint32(len(items)),
		ReadLength:  uint32(4 * len(items)),
		Data:        payload,
	}
	resp := dispatch(t, h, ads.CmdReadWrite, mustMarshal(t, &req))
	var rwresp ads.ReadWriteResponse
	if err := rwresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rwresp.Data) != 8 {
		t.Fatalf("status block = %d bytes, want 8", len(rwresp.Data))
	}
	for i := 0; i < 2; i++ {
		if code := binary.LittleEndian.Uint32(rwresp.Data[4*i:]); code != 0 {
			t.Errorf("item %d status = %d, want 0", i, code)
		}
	}

	first, ok := h.Store().GetByIndices(0x4020, 0)
	if !ok || !bytes.Equal(first.Value, []byte{0xaa, 0xbb}) {
		t.Errorf("first item value = %x, want aabb", first.Value)
	}
	second, ok := h.Store().GetByIndices(0x4020, 2)
	if !ok || !bytes.Equal(second.Value, []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Errorf("second item value = %x, want 01020304", second.Value)
	}
}

func TestAdvancedSumRead(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)

	wr := ads.WriteRequest{IndexGroup: 0x4020, IndexOffset: 0, Data: []byte{0x11, 0x22}}
	dispatch(t, h, ads.CmdWrite, mustMarshal(t, &wr))

	items := []ads.SumItem{
		{IndexGroup: 0x4020, IndexOffset: 0, Size: 2},
		{IndexGroup: 0x4020, IndexOffset: 100, Size: 1},
	}
	req := ads.ReadWriteRequest{
		IndexGroup:  ads.IndexGroupSumRead,
		IndexOffset: uint32(len(items)),
		ReadLength:  uint32(4*len(items) + 3),
		Data:        ads.MarshalSumItems(items),
	}
	resp := dispatch(t, h, ads.CmdReadWrite, mustMarshal(t, &req))
	var rwresp ads.ReadWriteResponse
	if err := rwresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := append(make([]byte, 8), 0x11, 0x22, 0x00)
	if !bytes.Equal(rwresp.Data, want) {
		t.Errorf("sum read = %x, want %x", rwresp.Data, want)
	}
}

func TestAdvancedReadWriteExchange(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)

	wr := ads.WriteRequest{IndexGroup: 0x4020, IndexOffset: 0, Data: []byte{0x01, 0x02}}
	dispatch(t, h, ads.CmdWrite, mustMarshal(t, &wr))

	// ReadWrite returns the old value and stores the new one.
	req := ads.ReadWriteRequest{
		IndexGroup:  0x4020,
		IndexOffset: 0,
		ReadLength:  2,
		Data:        []byte{0x03, 0x04},
	}
	resp := dispatch(t, h, ads.CmdReadWrite, mustMarshal(t, &req))
	var rwresp ads.ReadWriteResponse
	if err := rwresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !bytes.Equal(rwresp.Data, []byte{0x01, 0x02}) {
		t.Errorf("exchange returned %x, want 0102", rwresp.Data)
	}

	v, _ := h.Store().GetByIndices(0x4020, 0)
	if !bytes.Equal(v.Value, []byte{0x03, 0x04}) {
		t.Errorf("stored value = %x, want 0304", v.Value)
	}
}

func TestAdvancedReadState(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)
	resp := dispatch(t, h, ads.CmdReadState, nil)

	var state ads.ReadStateResponse
	if err := state.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if state.ADSState != ads.StateRun {
		t.Errorf("ADSState = %d, want %d", state.ADSState, ads.StateRun)
	}
}

func TestAdvancedWriteControl(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)

	req := ads.WriteControlRequest{ADSState: ads.StateStop, DeviceState: 0}
	resp := dispatch(t, h, ads.CmdWriteControl, mustMarshal(t, &req))

	var wcresp ads.WriteControlResponse
	if err := wcresp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if wcresp.Result != 0 {
		t.Errorf("Result = %d, want 0", wcresp.Result)
	}
}

func TestAdvancedNotificationLifecycle(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)
	st := h.Store()
	v := NewVariable("Main.x", 0x4020, 0, ads.TypeUInt16, 2)
	if err := st.Add(v); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	sink := &captureSink{}
	addReq := ads.AddDeviceNotificationRequest{
		IndexGroup:       ads.IndexGroupSymbolValueByHandle,
		IndexOffset:      v.Handle,
		Length:           2,
		TransmissionMode: ads.TransModeServerOnCha,
	}
	resp, err := h.HandleRequest(newTestRequest(ads.CmdAddDeviceNotification, mustMarshal(t, &addReq)), sink)
	if err != nil {
		t.Fatalf("add notification error: %v", err)
	}
	var addResp ads.AddDeviceNotificationResponse
	if err := addResp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if addResp.Result != 0 {
		t.Fatalf("Result = %d, want 0", addResp.Result)
	}
	if addResp.NotificationHandle != 10 {
		t.Errorf("NotificationHandle = %d, want 10", addResp.NotificationHandle)
	}

	// A value change fires the notification.
	wr := ads.WriteRequest{
		IndexGroup:  ads.IndexGroupSymbolValueByHandle,
		IndexOffset: v.Handle,
		Data:        []byte{0x01, 0x00},
	}
	dispatch(t, h, ads.CmdWrite, mustMarshal(t, &wr))
	if sink.count() != 1 {
		t.Fatalf("got %d notifications, want 1", sink.count())
	}
	if sink.handles[0] != addResp.NotificationHandle {
		t.Errorf("notified handle = %d, want %d", sink.handles[0], addResp.NotificationHandle)
	}

	// Delete, then write again: no further notification.
	delReq := ads.DeleteDeviceNotificationRequest{NotificationHandle: addResp.NotificationHandle}
	resp = dispatch(t, h, ads.CmdDelDeviceNotification, mustMarshal(t, &delReq))
	var delResp ads.DeleteDeviceNotificationResponse
	if err := delResp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if delResp.Result != 0 {
		t.Errorf("delete Result = %d, want 0", delResp.Result)
	}

	wr.Data = []byte{0x02, 0x00}
	dispatch(t, h, ads.CmdWrite, mustMarshal(t, &wr))
	if sink.count() != 1 {
		t.Errorf("got %d notifications after delete, want 1", sink.count())
	}
}

func TestAdvancedAddNotificationUnknownHandle(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)

	req := ads.AddDeviceNotificationRequest{
		IndexGroup:  ads.IndexGroupSymbolValueByHandle,
		IndexOffset: 42,
		Length:      2,
	}
	resp := dispatch(t, h, ads.CmdAddDeviceNotification, mustMarshal(t, &req))
	var addResp ads.AddDeviceNotificationResponse
	if err := addResp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if addResp.Result != uint32(ads.ErrDeviceSymbolNotFound) {
		t.Errorf("Result = %#x, want %#x", addResp.Result, uint32(ads.ErrDeviceSymbolNotFound))
	}
}

func TestAdvancedDeleteUnknownNotification(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)

	req := ads.DeleteDeviceNotificationRequest{NotificationHandle: 99}
	resp := dispatch(t, h, ads.CmdDelDeviceNotification, mustMarshal(t, &req))
	var delResp ads.DeleteDeviceNotificationResponse
	if err := delResp.UnmarshalBinary(resp.Data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if delResp.Result != 0 {
		t.Errorf("Result = %d, want 0", delResp.Result)
	}
}

func TestAdvancedMalformedPayload(t *testing.T) {
	h := NewAdvancedHandler(nil, nil)

	for _, cmd := range []ads.CommandID{
		ads.CmdRead,
		ads.CmdWrite,
		ads.CmdReadWrite,
		ads.CmdAddDeviceNotification,
		ads.CmdDelDeviceNotification,
	} {
		_, err := h.HandleRequest(newTestRequest(cmd, []byte{0x01}), &captureSink{})
		if err == nil {
			t.Errorf("%s: expected error for truncated payload", cmd)
		}
	}
}
