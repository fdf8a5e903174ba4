// Package httpapi exposes the test server's internals over HTTP: the
// request history, the live symbol table and a WebSocket stream of incoming
// requests. It is an inspection surface for test harnesses and dashboards,
// not part of the ADS protocol itself.
package httpapi

import (
	"encoding/hex"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mrpasztoradam/goadssim"
)

// Handler contains HTTP request handlers
type Handler struct {
	sim      *goadssim.Server
	logger   goadssim.Logger
	upgrader *websocket.Upgrader
}

// NewHandler creates a new handler
func NewHandler(sim *goadssim.Server, logger goadssim.Logger) *Handler {
	if logger == nil {
		logger = goadssim.DefaultLogger
	}
	return &Handler{
		sim:    sim,
		logger: logger,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins; this is a test tool
			},
		},
	}
}

// SymbolSummary is the JSON representation of one stored variable.
type SymbolSummary struct {
	Name        string `json:"name,omitempty"`
	Handle      uint32 `json:"handle"`
	IndexGroup  uint32 `json:"index_group"`
	IndexOffset uint32 `json:"index_offset"`
	DataType    uint32 `json:"data_type"`
	TypeName    string `json:"type_name,omitempty"`
	Size        int    `json:"size"`
	Value       string `json:"value"` // hex encoded
	Comment     string `json:"comment,omitempty"`
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}

// InfoResponse is the body of GET /api/v1/info.
type InfoResponse struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	ADSAddress string `json:"ads_address"`
	Symbols    int    `json:"symbols"`
	Requests   int    `json:"requests"`
}

// HandleHealth handles GET /api/v1/health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleInfo handles GET /api/v1/info
func (h *Handler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	addr := ""
	if a := h.sim.Addr(); a != nil {
		addr = a.String()
	}
	WriteJSON(w, http.StatusOK, InfoResponse{
		Name:       "goadssim",
		Version:    goadssim.Version(),
		ADSAddress: addr,
		Symbols:    h.sim.Store().Len(),
		Requests:   len(h.sim.RequestLog()),
	})
}

// HandleGetRequests handles GET /api/v1/requests
func (h *Handler) HandleGetRequests(w http.ResponseWriter, r *http.Request) {
	records := h.sim.RequestLog()
	if records == nil {
		records = []goadssim.RequestRecord{}
	}
	WriteJSON(w, http.StatusOK, records)
}

// HandleClearRequests handles DELETE /api/v1/requests
func (h *Handler) HandleClearRequests(w http.ResponseWriter, r *http.Request) {
	h.sim.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetSymbols handles GET /api/v1/symbols
func (h *Handler) HandleGetSymbols(w http.ResponseWriter, r *http.Request) {
	vars := h.sim.Store().Snapshot()
	out := make([]SymbolSummary, 0, len(vars))
	for _, v := range vars {
		out = append(out, SymbolSummary{
			Name:        v.Name,
			Handle:      v.Handle,
			IndexGroup:  v.IndexGroup,
			IndexOffset: v.IndexOffset,
			DataType:    v.DataType,
			TypeName:    v.TypeName,
			Size:        len(v.Value),
			Value:       hex.EncodeToString(v.Value),
			Comment:     v.Comment,
		})
	}
	WriteJSON(w, http.StatusOK, out)
}

// HandleWebSocket handles WebSocket connections streaming incoming request
// records as they arrive. The stream ends when the client disconnects or
// the ADS server stops.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	records, cancel := h.sim.SubscribeRequests()
	defer cancel()

	// Drain client frames so close messages are noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case rec, ok := <-records:
			if !ok {
				return
			}
			if err := conn.WriteJSON(rec); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
