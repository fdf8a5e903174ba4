package goadssim

import (
	"testing"

	"github.com/mrpasztoradam/goadssim/internal/ads"
)

func TestInMemoryMetrics(t *testing.T) {
	m := NewInMemoryMetrics()

	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()
	m.ConnectionsActive(1)
	m.RequestReceived("READ")
	m.RequestReceived("READ")
	m.RequestReceived("WRITE")
	m.ResponseSent("READ")
	m.MalformedFrame()
	m.DispatchFailed("WRITE")
	m.BytesRead(100)
	m.BytesWritten(50)
	m.NotificationSent()
	m.NotificationDropped()
	m.SubscriptionsActive(3)

	snap := m.Snapshot()
	if snap.ConnectionsOpened != 2 {
		t.Errorf("ConnectionsOpened = %d, want 2", snap.ConnectionsOpened)
	}
	if snap.ConnectionsClosed != 1 {
		t.Errorf("ConnectionsClosed = %d, want 1", snap.ConnectionsClosed)
	}
	if snap.ConnectionsActive != 1 {
		t.Errorf("ConnectionsActive = %d, want 1", snap.ConnectionsActive)
	}
	if snap.RequestCounts["READ"] != 2 || snap.RequestCounts["WRITE"] != 1 {
		t.Errorf("RequestCounts = %v", snap.RequestCounts)
	}
	if snap.ResponseCounts["READ"] != 1 {
		t.Errorf("ResponseCounts = %v", snap.ResponseCounts)
	}
	if snap.DispatchFailureCounts["WRITE"] != 1 {
		t.Errorf("DispatchFailureCounts = %v", snap.DispatchFailureCounts)
	}
	if snap.MalformedFrames != 1 {
		t.Errorf("MalformedFrames = %d, want 1", snap.MalformedFrames)
	}
	if snap.BytesRead != 100 || snap.BytesWritten != 50 {
		t.Errorf("bytes = %d/%d, want 100/50", snap.BytesRead, snap.BytesWritten)
	}
	if snap.NotificationsSent != 1 {
		t.Errorf("NotificationsSent = %d, want 1", snap.NotificationsSent)
	}
	if snap.NotificationsDropped != 1 {
		t.Errorf("NotificationsDropped = %d, want 1", snap.NotificationsDropped)
	}
	if snap.SubscriptionsActive != 3 {
		t.Errorf("SubscriptionsActive = %d, want 3", snap.SubscriptionsActive)
	}
}

func TestInMemoryMetricsConcurrent(t *testing.T) {
	m := NewInMemoryMetrics()

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 250; j++ {
				m.RequestReceived("READ")
				m.BytesRead(1)
			}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	snap := m.Snapshot()
	if snap.RequestCounts["READ"] != 1000 {
		t.Errorf("RequestCounts[READ] = %d, want 1000", snap.RequestCounts["READ"])
	}
	if snap.BytesRead != 1000 {
		t.Errorf("BytesRead = %d, want 1000", snap.BytesRead)
	}
}

func TestServerCollectsMetrics(t *testing.T) {
	m := NewInMemoryMetrics()
	srv := startTestServer(t, WithMetrics(m))
	client := dialTestServer(t, srv)

	client.roundTrip(ads.CmdReadDeviceInfo, nil)
	client.roundTrip(ads.CmdReadState, nil)

	snap := m.Snapshot()
	if snap.ConnectionsOpened != 1 {
		t.Errorf("ConnectionsOpened = %d, want 1", snap.ConnectionsOpened)
	}
	if snap.RequestCounts["READ_DEVICE_INFO"] != 1 || snap.RequestCounts["READ_STATE"] != 1 {
		t.Errorf("RequestCounts = %v", snap.RequestCounts)
	}
	if snap.BytesRead == 0 || snap.BytesWritten == 0 {
		t.Error("byte counters not updated")
	}
}
