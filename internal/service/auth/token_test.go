package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Temutjin2k/taximeter/internal/domain/types"
	"github.com/Temutjin2k/taximeter/pkg/logger"
)

func newService(secret string) *TokenService {
	return NewTokenService(secret, time.Hour, logger.New(io.Discard, "test", logger.LevelError))
}

func TestIssueAndCheck(t *testing.T) {
	s := newService("secret")
	ctx := context.Background()

	token, exp, err := s.Issue(ctx, "driver-1", types.RoleOperator)
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expiry in the past: %v", exp)
	}

	op, err := s.RoleCheck(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	if op.ID != "driver-1" || op.Role != types.RoleOperator {
		t.Errorf("unexpected operator %+v", op)
	}
}

func TestRoleCheckRejects(t *testing.T) {
	ctx := context.Background()
	good := newService("secret")
	token, _, _ := good.Issue(ctx, "driver-1", types.RoleViewer)

	expired := newService("secret")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, _ := expired.Issue(ctx, "driver-1", types.RoleOperator)

	tests := []struct {
		name  string
		svc   *TokenService
		token string
	}{
		{"wrong secret", newService("other"), token},
		{"garbage", good, "not-a-token"},
		{"expired", good, old},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.svc.RoleCheck(ctx, tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestIssueInvalidRole(t *testing.T) {
	if _, _, err := newService("s").Issue(context.Background(), "x", "ADMIN"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("err = %v, want ErrInvalidRole", err)
	}
}
