package goadssim

import (
	"github.com/mrpasztoradam/goadssim/internal/ams"
)

// ResponseData carries the AMS-level fields of a response frame: the state
// flags to echo, the AMS header error code, and the response payload.
type ResponseData struct {
	StateFlags uint16
	ErrorCode  uint32
	Data       []byte
}

// Handler produces the response for one request frame. Implementations must
// be safe for concurrent use; the server calls HandleRequest from one
// goroutine per connection.
//
// The sink identifies the requesting session and receives any device
// notifications registered while handling the request. A non-nil error
// means no valid response could be formed; the server logs it and sends
// nothing, leaving the connection open.
type Handler interface {
	HandleRequest(req *ams.Packet, sink NotificationSink) (ResponseData, error)
}

// responseFlags echoes the request's state flags with the response bit set.
func responseFlags(req *ams.Packet) uint16 {
	return req.Header.StateFlags | ams.StateFlagResponse
}
