// Package tariff keeps the named fare schedules and which one is active.
package tariff

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/internal/domain/types"
	"github.com/Temutjin2k/taximeter/pkg/logger"
	wrap "github.com/Temutjin2k/taximeter/pkg/logger/wrapper"
	"github.com/Temutjin2k/taximeter/pkg/validator"
)

// Registry is the in-memory source of truth for tariffs. It is safe for
// concurrent use. When a Store is attached every change is written
// through before it becomes visible.
type Registry struct {
	mu      sync.RWMutex
	tariffs map[string]models.Tariff
	order   []string

	store Store
	l     logger.Logger
}

func NewRegistry(store Store, l logger.Logger) *Registry {
	return &Registry{
		tariffs: make(map[string]models.Tariff),
		store:   store,
		l:       l,
	}
}

// Load fills the registry from the store, seeding the store with defaults
// when it is empty. Without a store the defaults are used directly.
func (r *Registry) Load(ctx context.Context, defaults []models.Tariff) error {
	const op = "Registry.Load"
	ctx = wrap.WithAction(ctx, "load_tariffs")

	var tariffs []models.Tariff
	if r.store != nil {
		stored, err := r.store.List(ctx)
		if err != nil {
			return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
		}
		tariffs = stored
	}

	if len(tariffs) == 0 {
		if len(defaults) == 0 {
			return wrap.Error(ctx, fmt.Errorf("%s: %w", op, types.ErrNoActiveTariff))
		}
		for _, t := range defaults {
			if err := r.validate(t); err != nil {
				return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
			}
			if r.store != nil {
				if err := r.store.Upsert(ctx, t); err != nil {
					return wrap.Error(ctx, fmt.Errorf("%s: seed %s: %w", op, t.Name, err))
				}
			}
		}
		tariffs = defaults
		r.l.Info(ctx, "seeded default tariffs", "count", len(defaults))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tariffs = make(map[string]models.Tariff, len(tariffs))
	r.order = r.order[:0]
	for _, t := range tariffs {
		if _, dup := r.tariffs[t.Name]; !dup {
			r.order = append(r.order, t.Name)
		}
		r.tariffs[t.Name] = t
	}

	if active, changed := r.normalizeLocked(); changed && r.store != nil {
		if err := r.store.Activate(ctx, active); err != nil {
			return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
		}
	}

	return nil
}

// Activate makes name the only active tariff.
func (r *Registry) Activate(ctx context.Context, name string) error {
	const op = "Registry.Activate"

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tariffs[name]; !ok {
		return fmt.Errorf("%s: %q: %w", op, name, types.ErrUnknownTariff)
	}

	if r.store != nil {
		if err := r.store.Activate(ctx, name); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	for n, t := range r.tariffs {
		t.Active = n == name
		r.tariffs[n] = t
	}

	r.l.Info(wrap.WithAction(ctx, types.ActionTariffActivated), "tariff activated", "tariff", name)
	return nil
}

// Active returns a copy of the active tariff.
func (r *Registry) Active() (models.Tariff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		if t := r.tariffs[name]; t.Active {
			return t, nil
		}
	}
	return models.Tariff{}, types.ErrNoActiveTariff
}

// Get returns the tariff called name.
func (r *Registry) Get(name string) (models.Tariff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tariffs[name]
	if !ok {
		return models.Tariff{}, fmt.Errorf("%q: %w", name, types.ErrUnknownTariff)
	}
	return t, nil
}

// List returns every tariff in registration order.
func (r *Registry) List() []models.Tariff {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Tariff, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tariffs[name])
	}
	return out
}

// Save creates or replaces a tariff. The activation flag of an existing
// tariff is preserved; a new tariff is stored inactive. Running trips keep
// the snapshot they started with.
func (r *Registry) Save(ctx context.Context, t models.Tariff) (models.Tariff, error) {
	const op = "Registry.Save"

	if err := r.validate(t); err != nil {
		return models.Tariff{}, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.tariffs[t.Name]
	t.Active = ok && existing.Active

	if r.store != nil {
		if err := r.store.Upsert(ctx, t); err != nil {
			return models.Tariff{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	if !ok {
		r.order = append(r.order, t.Name)
	}
	r.tariffs[t.Name] = t
	return t, nil
}

func (r *Registry) validate(t models.Tariff) error {
	v := validator.New()
	t.Validate(v)
	if !v.Valid() {
		return &ValidationError{Fields: v.Errors}
	}
	return nil
}

// normalizeLocked keeps exactly one tariff active: the first flagged one,
// or the first registered when none is. It reports whether any flag changed.
func (r *Registry) normalizeLocked() (string, bool) {
	if len(r.order) == 0 {
		return "", false
	}

	active := slices.IndexFunc(r.order, func(n string) bool { return r.tariffs[n].Active })
	if active < 0 {
		active = 0
	}

	changed := false
	for i, n := range r.order {
		t := r.tariffs[n]
		if t.Active != (i == active) {
			t.Active = i == active
			r.tariffs[n] = t
			changed = true
		}
	}
	return r.order[active], changed
}

// ValidationError lists the offending tariff fields.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid tariff: %v", e.Fields)
}

func (e *ValidationError) Unwrap() error {
	return types.ErrInvalidTariff
}
