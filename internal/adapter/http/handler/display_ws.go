package handler

import (
	"net/http"
	"time"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/pkg/logger"
	wrap "github.com/Temutjin2k/taximeter/pkg/logger/wrapper"
	ws "github.com/Temutjin2k/taximeter/pkg/wsHub"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// LastFrame yields the most recent display frame.
type LastFrame interface {
	Last() models.Display
}

type DisplayWS struct {
	hub      *ws.ConnectionHub
	frames   LastFrame
	upgrader websocket.Upgrader
	l        logger.Logger
}

func NewDisplayWS(hub *ws.ConnectionHub, frames LastFrame, l logger.Logger) *DisplayWS {
	return &DisplayWS{
		hub:    hub,
		frames: frames,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 5 * time.Second,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
		l: l,
	}
}

// Serve upgrades the request and streams display frames until the client leaves.
func (h *DisplayWS) Serve(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "display_ws")

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.l.Warn(ctx, "failed to upgrade display connection", "error", err)
		return
	}

	conn := ws.NewConn(ctx, uuid.New(), wsConn)
	if err := h.hub.Add(conn); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to register display connection", err)
		_ = conn.Close()
		return
	}
	defer h.hub.Delete(conn.ID())

	h.l.Info(ctx, "display client connected", "client_id", conn.ID(), "clients", h.hub.Len())

	if err := h.hub.SendTo(conn.ID(), envelope{"type": "display", "display": h.frames.Last()}); err != nil {
		h.l.Warn(ctx, "failed to send initial frame", "error", err)
		return
	}

	err = conn.Listen(func(any) error { return nil })
	h.l.Info(ctx, "display client disconnected", "client_id", conn.ID(), "reason", err)
}
