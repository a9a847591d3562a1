// Package layers stores layers and runs the save pipeline compiling their
// styles and reconciling their legends.
package layers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/geo-visualizer/backend/internal/models"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned for a layer id the store does not hold.
	ErrNotFound = errors.New("layer not found")
	// ErrInvalidID is returned for a layer id that cannot name a file.
	ErrInvalidID = errors.New("invalid layer id")
)

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)

// ValidateID checks that id can be used as a layer id.
func ValidateID(id string) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Store defines the interface for layer persistence. Returned layers are
// copies; changing them does not change the store.
type Store interface {
	Get(id string) (*models.Layer, error)
	List(limit int) ([]*models.Layer, error)
	Put(layer *models.Layer) error
	Delete(id string) error
}

// FileStore implements Store with one JSON document per layer in a directory.
type FileStore struct {
	mu     sync.RWMutex
	dir    string
	layers map[string]*models.Layer
	log    *zap.Logger
}

// NewFileStore creates the directory if needed and loads the layers it holds.
func NewFileStore(dir string, log *zap.Logger) (*FileStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating layers directory: %w", err)
	}

	s := &FileStore{
		dir:    dir,
		layers: make(map[string]*models.Layer),
		log:    log.With(zap.String("component", "layers"), zap.String("dir", dir)),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading layers directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		var layer models.Layer
		if err := json.Unmarshal(data, &layer); err != nil {
			s.log.Warn("skipping unreadable layer file", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		s.layers[layer.ID] = &layer
	}
	s.log.Info("loaded layers", zap.Int("count", len(s.layers)))
	return nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Get retrieves a layer by ID.
func (s *FileStore) Get(id string) (*models.Layer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	layer, ok := s.layers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return layer.Clone(), nil
}

// List returns the most recently updated layers.
func (s *FileStore) List(limit int) ([]*models.Layer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.Layer, 0, len(s.layers))
	for _, layer := range s.layers {
		list = append(list, layer.Clone())
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// Put writes the layer document atomically and then updates the index.
func (s *FileStore) Put(layer *models.Layer) error {
	if err := ValidateID(layer.ID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(layer, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding layer %s: %w", layer.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, layer.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing layer %s: %w", layer.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing layer %s: %w", layer.ID, err)
	}
	if err := os.Rename(tmp.Name(), s.path(layer.ID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("committing layer %s: %w", layer.ID, err)
	}

	s.layers[layer.ID] = layer.Clone()
	return nil
}

// Delete removes a layer from storage.
func (s *FileStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.layers[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting layer %s: %w", id, err)
	}
	delete(s.layers, id)
	return nil
}

var _ Store = (*FileStore)(nil)
