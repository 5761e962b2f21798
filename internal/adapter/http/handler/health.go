package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Temutjin2k/taximeter/pkg/logger"
	wrap "github.com/Temutjin2k/taximeter/pkg/logger/wrapper"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Health struct {
	serviceName string
	deps        map[string]Pinger
	log         logger.Logger
}

// NewHealth builds the health handler. Nil pingers are skipped.
func NewHealth(serviceName string, deps map[string]Pinger, log logger.Logger) *Health {
	live := make(map[string]Pinger, len(deps))
	for name, p := range deps {
		if p != nil {
			live[name] = p
		}
	}
	return &Health{
		serviceName: serviceName,
		deps:        live,
		log:         log,
	}
}

// HealthCheck returns system information and the state of each dependency.
func (a *Health) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "health_check")

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := "available"
	code := http.StatusOK
	deps := make(map[string]string, len(a.deps))
	for name, p := range a.deps {
		if err := p.Ping(pingCtx); err != nil {
			a.log.Warn(ctx, "dependency unhealthy", "dependency", name, "error", err)
			deps[name] = "unavailable"
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	response := envelope{
		"status": status,
		"system_info": map[string]string{
			"service-name": a.serviceName,
		},
		"dependencies": deps,
	}

	if err := writeJSON(w, code, response, nil); err != nil {
		a.log.Error(ctx, "healthcheck", err)
		return
	}
}
