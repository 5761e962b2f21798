package middleware

import (
	"context"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/pkg/logger"
)

type (
	AuthService interface {
		RoleCheck(ctx context.Context, token string) (*models.Operator, error)
	}

	Middleware struct {
		auth AuthService
		log  logger.Logger
	}
)

// NewMiddleware builds the middleware set. A nil auth disables token checks
// and every request acts as an operator.
func NewMiddleware(auth AuthService, log logger.Logger) *Middleware {
	return &Middleware{
		auth: auth,
		log:  log,
	}
}
