// Package auth issues and checks the bearer tokens of meter operators.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/domain/types"
	"github.com/Temutjin2k/taximeter/pkg/logger"
	wrap "github.com/Temutjin2k/taximeter/pkg/logger/wrapper"
	"github.com/Temutjin2k/taximeter/pkg/validator"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "taximeter"

type TokenService struct {
	secret    string
	AccessTTL time.Duration
	log       logger.Logger
	now       func() time.Time
}

func NewTokenService(secret string, accessTTL time.Duration, log logger.Logger) *TokenService {
	return &TokenService{
		secret:    secret,
		AccessTTL: accessTTL,
		log:       log,
		now:       time.Now,
	}
}

// Claims carried by an operator token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a token for operatorID with the given role.
func (s *TokenService) Issue(ctx context.Context, operatorID string, role types.UserRole) (string, time.Time, error) {
	ctx = wrap.WithAction(ctx, "issue_token")

	if operatorID == "" {
		return "", time.Time{}, wrap.Error(ctx, errors.New("operator id is empty"))
	}
	if !validator.PermittedValue(role, types.RoleOperator, types.RoleViewer) {
		return "", time.Time{}, wrap.Error(ctx, fmt.Errorf("%w: %q", ErrInvalidRole, role))
	}

	issuedAt := s.now().UTC()
	exp := issuedAt.Add(s.AccessTTL)

	claims := Claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   operatorID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		return "", time.Time{}, wrap.Error(ctx, fmt.Errorf("%w: %v", ErrTokenGenerateFail, err))
	}
	return token, exp, nil
}

// RoleCheck validates token and returns the operator it was issued to.
func (s *TokenService) RoleCheck(ctx context.Context, token string) (*models.Operator, error) {
	ctx = wrap.WithAction(ctx, "validate_token")

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return []byte(s.secret), nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: %v", ErrInvalidToken, err))
	}

	role := types.UserRole(claims.Role)
	if !validator.PermittedValue(role, types.RoleOperator, types.RoleViewer) {
		return nil, wrap.Error(ctx, ErrInvalidRole)
	}
	if claims.Subject == "" {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: missing subject", ErrInvalidToken))
	}

	return &models.Operator{ID: claims.Subject, Role: role}, nil
}
