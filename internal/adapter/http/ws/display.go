package wshandler

import (
	"context"
	"sync"
	"time"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/pkg/logger"
	wrap "github.com/Temutjin2k/taximeter/pkg/logger/wrapper"
	"github.com/Temutjin2k/taximeter/pkg/metrics"
	ws "github.com/Temutjin2k/taximeter/pkg/wsHub"
)

const (
	serviceName  = "taximeter"
	pingInterval = 30 * time.Second
)

// DisplaySink fans meter display frames out to every websocket client.
// Publish never blocks: when the buffer is full the oldest frame is dropped.
type DisplaySink struct {
	hub    *ws.ConnectionHub
	frames chan models.Display
	l      logger.Logger

	mu   sync.RWMutex
	last models.Display
}

func NewDisplaySink(hub *ws.ConnectionHub, buffer int, l logger.Logger) *DisplaySink {
	if buffer <= 0 {
		buffer = 32
	}
	return &DisplaySink{
		hub:    hub,
		frames: make(chan models.Display, buffer),
		l:      l,
	}
}

func (s *DisplaySink) Publish(d models.Display) {
	s.mu.Lock()
	s.last = d
	s.mu.Unlock()

	for {
		select {
		case s.frames <- d:
			return
		default:
		}
		select {
		case <-s.frames:
		default:
		}
	}
}

// Last returns the most recent frame.
func (s *DisplaySink) Last() models.Display {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Run broadcasts queued frames until ctx is done.
func (s *DisplaySink) Run(ctx context.Context) {
	ctx = wrap.WithAction(ctx, "display_broadcast")
	s.l.Debug(ctx, "display broadcaster started")

	heartbeat := time.NewTicker(pingInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if n := s.hub.Prune(); n > 0 {
				s.l.Info(ctx, "dropped stale display clients", "count", n)
				metrics.WebSocketConnectionsGauge.WithLabelValues(serviceName).Set(float64(s.hub.Len()))
			}
		case d := <-s.frames:
			s.hub.Broadcast(frame(d))
			metrics.WebSocketConnectionsGauge.WithLabelValues(serviceName).Set(float64(s.hub.Len()))
		}
	}
}

func frame(d models.Display) map[string]any {
	return map[string]any{
		"type":    "display",
		"display": d,
	}
}
