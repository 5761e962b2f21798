// Package vehicle holds the cab data printed on receipts and attached to
// trip-completed events. It can be edited while the meter runs.
package vehicle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/domain/types"
	"github.com/Temutjin2k/taximeter/pkg/logger"
	wrap "github.com/Temutjin2k/taximeter/pkg/logger/wrapper"
	"github.com/Temutjin2k/taximeter/pkg/validator"
)

// Service caches the current vehicle. Safe for concurrent use; with a
// Store attached, edits are written through before they become visible.
type Service struct {
	mu      sync.RWMutex
	current models.Vehicle

	store Store
	l     logger.Logger
}

func NewService(store Store, l logger.Logger) *Service {
	return &Service{
		store: store,
		l:     l,
	}
}

// Load reads the stored vehicle, seeding the store with defaults when it
// holds none.
func (s *Service) Load(ctx context.Context, defaults models.Vehicle) error {
	const op = "vehicle.Load"
	ctx = wrap.WithAction(ctx, "load_vehicle")

	v := defaults
	if s.store != nil {
		stored, err := s.store.Get(ctx)
		switch {
		case err == nil:
			v = stored
		case errors.Is(err, types.ErrNotFound):
			if err := validate(defaults); err != nil {
				return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
			}
			if err := s.store.Save(ctx, defaults); err != nil {
				return wrap.Error(ctx, fmt.Errorf("%s: seed: %w", op, err))
			}
			s.l.Info(ctx, "seeded vehicle from config", "plate", defaults.Plate)
		default:
			return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
		}
	}

	s.mu.Lock()
	s.current = v
	s.mu.Unlock()
	return nil
}

// Current returns the vehicle as of now.
func (s *Service) Current() models.Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update validates and stores v. Trips already settled keep the vehicle
// they were recorded with.
func (s *Service) Update(ctx context.Context, v models.Vehicle) (models.Vehicle, error) {
	const op = "vehicle.Update"

	if err := validate(v); err != nil {
		return models.Vehicle{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Save(ctx, v); err != nil {
			return models.Vehicle{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	s.current = v
	return v, nil
}

func validate(v models.Vehicle) error {
	val := validator.New()
	v.Validate(val)
	if !val.Valid() {
		return &ValidationError{Fields: val.Errors}
	}
	return nil
}

// ValidationError lists the offending vehicle fields.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid vehicle: %v", e.Fields)
}

func (e *ValidationError) Unwrap() error {
	return types.ErrInvalidVehicle
}
