package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/domain/types"
	wrap "github.com/Temutjin2k/taximeter/pkg/logger/wrapper"
	"github.com/gorilla/websocket"
)

var localOperator = &models.Operator{ID: "local", Role: types.RoleOperator}

// Auth validates the bearer token and injects the operator into context.
// Requests without a header stay anonymous; protected routes reject them.
func (h *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if h.auth == nil {
			next.ServeHTTP(w, r.WithContext(models.WithOperator(ctx, localOperator)))
			return
		}

		token, ok, err := requestToken(r)
		if err != nil {
			errorResponse(w, http.StatusUnauthorized, err.Error())
			return
		}
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		op, err := h.auth.RoleCheck(ctx, token)
		if err != nil || op == nil {
			h.log.Warn(wrap.ErrorCtx(ctx, err), "failed to authenticate operator", "error", err)
			errorResponse(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		ctx = wrap.WithOperatorID(ctx, op.ID)
		next.ServeHTTP(w, r.WithContext(models.WithOperator(ctx, op)))
	})
}

// RequireRoles allows only operators holding one of the given roles.
// Usage: mux.Handle("POST /meter/activate", h.RequireRoles(handler, types.RoleOperator))
func (h *Middleware) RequireRoles(next http.HandlerFunc, allowedRoles ...types.UserRole) http.Handler {
	allowed := make(map[types.UserRole]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op := models.OperatorFromContext(r.Context())
		if op == nil {
			errorResponse(w, http.StatusUnauthorized, "authorization required")
			return
		}
		if len(allowed) > 0 {
			if _, ok := allowed[op.Role]; !ok {
				errorResponse(w, http.StatusForbidden, "forbidden: insufficient role")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// requestToken reads the bearer token from the Authorization header.
// Websocket handshakes from browsers cannot set headers, so they may pass
// it as the access_token query parameter instead.
func requestToken(r *http.Request) (string, bool, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, err := extractBearerToken(header)
		return token, err == nil, err
	}
	if websocket.IsWebSocketUpgrade(r) {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return token, true, nil
		}
	}
	return "", false, nil
}

func extractBearerToken(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	return parts[1], nil
}
