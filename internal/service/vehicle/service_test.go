package vehicle

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/domain/types"
	"github.com/Temutjin2k/taximeter/pkg/logger"
)

type memStore struct {
	mu       sync.Mutex
	vehicle  *models.Vehicle
	saves    int
	failNext error
}

func (s *memStore) Get(ctx context.Context) (models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vehicle == nil {
		return models.Vehicle{}, types.ErrNotFound
	}
	return *s.vehicle, nil
}

func (s *memStore) Save(ctx context.Context, v models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNext; err != nil {
		s.failNext = nil
		return err
	}
	s.vehicle = &v
	s.saves++
	return nil
}

func testLogger() logger.Logger {
	return logger.New(io.Discard, "test", logger.LevelError)
}

var defaults = models.Vehicle{Plate: "777AAA02", Model: "Camry", Driver: "A. Driver"}

func TestLoadSeedsEmptyStore(t *testing.T) {
	store := &memStore{}
	s := NewService(store, testLogger())

	if err := s.Load(context.Background(), defaults); err != nil {
		t.Fatal(err)
	}
	if s.Current() != defaults {
		t.Errorf("current = %+v, want defaults", s.Current())
	}
	if store.saves != 1 || *store.vehicle != defaults {
		t.Errorf("store not seeded: saves=%d vehicle=%+v", store.saves, store.vehicle)
	}
}

func TestLoadPrefersStored(t *testing.T) {
	edited := models.Vehicle{Plate: "123BBB02", Model: "Sonata"}
	store := &memStore{vehicle: &edited}
	s := NewService(store, testLogger())

	if err := s.Load(context.Background(), defaults); err != nil {
		t.Fatal(err)
	}
	if s.Current() != edited {
		t.Errorf("current = %+v, want stored %+v", s.Current(), edited)
	}
	if store.saves != 0 {
		t.Errorf("stored vehicle overwritten by defaults")
	}
}

func TestLoadWithoutStore(t *testing.T) {
	s := NewService(nil, testLogger())
	if err := s.Load(context.Background(), defaults); err != nil {
		t.Fatal(err)
	}
	if s.Current() != defaults {
		t.Errorf("current = %+v, want defaults", s.Current())
	}
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name     string
		in       models.Vehicle
		storeErr error
		wantErr  error
	}{
		{name: "valid", in: models.Vehicle{Plate: "123BBB02", Model: "Sonata", Driver: "B. Driver"}},
		{name: "missing plate", in: models.Vehicle{Plate: "  ", Model: "Sonata"}, wantErr: types.ErrInvalidVehicle},
		{name: "plate too long", in: models.Vehicle{Plate: "0123456789ABCDEFG"}, wantErr: types.ErrInvalidVehicle},
		{name: "store failure", in: models.Vehicle{Plate: "123BBB02"}, storeErr: types.ErrDatabaseFailed, wantErr: types.ErrDatabaseFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{}
			s := NewService(store, testLogger())
			if err := s.Load(context.Background(), defaults); err != nil {
				t.Fatal(err)
			}
			store.failNext = tt.storeErr

			got, err := s.Update(context.Background(), tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if s.Current() != defaults {
					t.Errorf("failed update changed current vehicle to %+v", s.Current())
				}
				return
			}
			if got != tt.in || s.Current() != tt.in || *store.vehicle != tt.in {
				t.Errorf("update not applied: got %+v current %+v", got, s.Current())
			}
		})
	}
}

func TestUpdateValidationFields(t *testing.T) {
	s := NewService(nil, testLogger())
	_, err := s.Update(context.Background(), models.Vehicle{})

	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields["plate"] == "" {
		t.Fatalf("err = %v, want ValidationError on plate", err)
	}
}
