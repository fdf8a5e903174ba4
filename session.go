package goadssim

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mrpasztoradam/goadssim/internal/ads"
	"github.com/mrpasztoradam/goadssim/internal/ams"
)

// session serves one client connection. It reads request frames in a loop,
// dispatches them to the handler and writes the responses back. Requests on
// one connection are answered strictly in arrival order.
//
// A session is also the NotificationSink for subscriptions registered
// through it: device notification frames are pushed over the same
// connection, addressed with the AMS addresses learned from the client's
// requests.
type session struct {
	server *Server
	conn   net.Conn
	logger Logger

	// writeMu serializes response and notification frames on the wire.
	writeMu sync.Mutex

	// addrMu guards the AMS addresses below, which the read loop updates
	// and Notify reads from other goroutines.
	addrMu      sync.Mutex
	clientNetID ams.NetID
	clientPort  ams.Port
	serverNetID ams.NetID
	serverPort  ams.Port
	sawRequest  bool

	closed atomic.Bool
}

func newSession(server *Server, conn net.Conn) *session {
	return &session{
		server: server,
		conn:   conn,
		logger: server.logger.With("remote_addr", conn.RemoteAddr().String()),
	}
}

// run is the per-connection read loop. It returns when the peer disconnects
// or the server shuts down; cleanup runs exactly once on the way out.
func (s *session) run() {
	defer s.cleanup()

	s.logger.Info("client connected")
	for {
		pkt, err := ams.ReadPacket(s.conn)
		if err != nil {
			if errors.Is(err, ams.ErrShortFrame) || errors.Is(err, ams.ErrDataLengthMismatch) {
				s.logger.Warn("dropping malformed frame", "error", err)
				s.server.metrics.MalformedFrame()
				continue
			}
			if !s.closed.Load() && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Warn("read failed, closing connection", "error", err)
			}
			return
		}

		s.rememberAddresses(pkt)
		s.server.recordRequest(pkt)

		cmd := ads.CommandID(pkt.Header.CommandID).String()
		s.server.metrics.RequestReceived(cmd)
		s.server.metrics.BytesRead(int64(ams.TCPHeaderLen + pkt.TCPHeader.Length))

		resp, err := s.server.handler.HandleRequest(pkt, s)
		if err != nil {
			s.logger.Error("request handler failed to return a valid response",
				"command", cmd,
				"invoke_id", pkt.Header.InvokeID,
				"error", err)
			s.server.metrics.DispatchFailed(cmd)
			continue
		}

		out := ams.NewResponsePacket(pkt, resp.StateFlags, resp.ErrorCode, resp.Data)
		if err := s.writePacket(out); err != nil {
			if !s.closed.Load() {
				s.logger.Warn("write failed, closing connection", "error", err)
			}
			return
		}
		s.server.metrics.ResponseSent(cmd)
		s.server.metrics.BytesWritten(int64(ams.TCPHeaderLen + out.TCPHeader.Length))
	}
}

// rememberAddresses captures the request's AMS addressing so notification
// frames can be built later, when no request is at hand.
func (s *session) rememberAddresses(pkt *ams.Packet) {
	s.addrMu.Lock()
	s.clientNetID = pkt.Header.SourceNetID
	s.clientPort = pkt.Header.SourcePort
	s.serverNetID = pkt.Header.TargetNetID
	s.serverPort = pkt.Header.TargetPort
	s.sawRequest = true
	s.addrMu.Unlock()
}

// Notify pushes one DEVICE_NOTIFICATION frame carrying a single sample.
// Called synchronously from Store.writeLocked, possibly on another
// session's goroutine.
func (s *session) Notify(handle uint32, timestamp time.Time, sample []byte) {
	if s.closed.Load() {
		s.server.metrics.NotificationDropped()
		return
	}

	s.addrMu.Lock()
	if !s.sawRequest {
		// No request seen yet, so there is no address to send to.
		s.addrMu.Unlock()
		s.server.metrics.NotificationDropped()
		return
	}
	target, targetPort := s.clientNetID, s.clientPort
	source, sourcePort := s.serverNetID, s.serverPort
	s.addrMu.Unlock()

	stream := ads.SingleSampleStream(handle, timestamp, sample)
	payload, err := stream.MarshalBinary()
	if err != nil {
		s.logger.Error("marshal notification stream", "error", err)
		s.server.metrics.NotificationDropped()
		return
	}

	pkt := ams.NewRequestPacket(target, targetPort, source, sourcePort,
		uint16(ads.CmdDeviceNotification), 0, payload)
	if err := s.writePacket(pkt); err != nil {
		if !s.closed.Load() {
			s.logger.Warn("notification write failed",
				"notification_handle", handle,
				"error", err)
		}
		s.server.metrics.NotificationDropped()
		return
	}
	s.server.metrics.BytesWritten(int64(ams.TCPHeaderLen + pkt.TCPHeader.Length))
}

func (s *session) writePacket(pkt *ams.Packet) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return ams.WritePacket(s.conn, pkt)
}

// close shuts the connection down; safe to call multiple times.
func (s *session) close() {
	if s.closed.CompareAndSwap(false, true) {
		s.conn.Close()
	}
}

func (s *session) cleanup() {
	s.close()
	dropped := s.server.store.DropSink(s)
	s.server.removeSession(s)
	s.server.metrics.ConnectionClosed()
	s.logger.Info("client disconnected", "subscriptions_dropped", dropped)
}
