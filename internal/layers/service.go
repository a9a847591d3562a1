package layers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/geo-visualizer/backend/internal/legend"
	"github.com/geo-visualizer/backend/internal/models"
	"github.com/geo-visualizer/backend/internal/style"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaveOptions controls a layer save.
type SaveOptions struct {
	// PreserveLegends demotes legends whose encoding disappeared instead of
	// dropping them.
	PreserveLegends bool
}

// Service saves layers: it compiles every style slot, reconciles the legend
// list and commits the result with a single store write.
type Service struct {
	store    Store
	compiler *style.Compiler
	log      *zap.Logger
	newUID   func() string
	now      func() time.Time

	// one lock per layer id serializes reconciliation passes
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewService creates a save service.
func NewService(store Store, compiler *style.Compiler, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:    store,
		compiler: compiler,
		log:      log.With(zap.String("component", "layers")),
		newUID:   uuid.NewString,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *Service) lock(id string) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[id] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// Save compiles and stores layer. Slots without a uid get one. When the
// input carries legends, its manual entries and the titles of its auto
// entries are applied to the stored list first; items of auto entries always
// come from this compilation. When any step fails the stored layer is left
// unchanged.
func (s *Service) Save(ctx context.Context, layer *models.Layer, opts SaveOptions) (*models.Layer, error) {
	if err := ValidateID(layer.ID); err != nil {
		return nil, err
	}
	unlock := s.lock(layer.ID)
	defer unlock()

	var old []models.LegendEntry
	stored, err := s.store.Get(layer.ID)
	switch {
	case err == nil:
		old = stored.Legends
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}
	old = legend.ApplyEdits(old, layer.Legends, s.newUID)

	next := layer.Clone()
	slots := next.Slots()
	var fragments []models.LegendFragment
	for i, slot := range slots {
		if slot.UID == "" {
			slot.UID = s.newUID()
		}
		tree, frags, err := s.compiler.Compile(ctx, next.ID, *slot)
		if err != nil {
			s.log.Warn("style compilation failed",
				zap.String("layer", next.ID), zap.Int("slot", i), zap.Error(err))
			return nil, fmt.Errorf("compiling slot %s: %w", slot.UID, err)
		}
		slot.Style = tree
		fragments = append(fragments, frags...)
	}

	next.Legends = legend.Reconcile(old, fragments, legend.LiveSlots(slots), legend.Options{
		Preserve: opts.PreserveLegends,
		Title:    next.Name,
		NewUID:   s.newUID,
	})
	next.UpdatedAt = s.now().UTC()

	if err := s.store.Put(next); err != nil {
		return nil, err
	}
	s.log.Info("layer saved",
		zap.String("layer", next.ID), zap.Int("slots", len(slots)),
		zap.Int("legends", len(next.Legends)), zap.Bool("preserve", opts.PreserveLegends))
	return next, nil
}

// Preview compiles one slot of a layer without storing anything.
func (s *Service) Preview(ctx context.Context, layerID string, slot models.StyleSlot) (*models.StyleTree, []models.LegendFragment, error) {
	return s.compiler.Compile(ctx, layerID, slot)
}

// Get returns a stored layer.
func (s *Service) Get(id string) (*models.Layer, error) {
	return s.store.Get(id)
}

// List returns the most recently updated layers.
func (s *Service) List(limit int) ([]*models.Layer, error) {
	return s.store.List(limit)
}

// Delete removes a stored layer.
func (s *Service) Delete(id string) error {
	unlock := s.lock(id)
	defer unlock()
	return s.store.Delete(id)
}
