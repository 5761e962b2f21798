package models

import (
	"context"

	"github.com/Temutjin2k/taximeter/internal/domain/types"
)

// Operator is the authenticated caller of the control API.
type Operator struct {
	ID   string         `json:"id"`
	Role types.UserRole `json:"role"`
}

type operatorCtxKey struct{}

func WithOperator(ctx context.Context, op *Operator) context.Context {
	return context.WithValue(ctx, operatorCtxKey{}, op)
}

// OperatorFromContext returns nil for anonymous requests.
func OperatorFromContext(ctx context.Context) *Operator {
	op, _ := ctx.Value(operatorCtxKey{}).(*Operator)
	return op
}
