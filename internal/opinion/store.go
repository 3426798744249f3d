// Package opinion persists reader-submitted opinions in a flat JSON
// file, newest first.
package opinion

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gacetapress/gaceta/internal/model"
)

// Sanitizer strips markup from submitted opinion text.
type Sanitizer interface {
	Sanitize(raw string) string
}

// Store reads and writes the opinion file. All access goes through a
// mutex: submissions are rare and the file is small, so a single lock
// is enough.
type Store struct {
	path      string
	sanitizer Sanitizer
	logger    *slog.Logger

	mu sync.Mutex
}

// NewStore returns a Store backed by the JSON file at path.
func NewStore(path string, sanitizer Sanitizer, logger *slog.Logger) *Store {
	return &Store{
		path:      path,
		sanitizer: sanitizer,
		logger:    logger,
	}
}

// List returns up to limit opinions, newest first. A limit below 1
// returns all. A missing file reads as an empty list.
func (s *Store) List(limit int) ([]model.Opinion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opinions, err := s.readAll()
	if err != nil {
		return nil, err
	}

	// The file is kept newest-first, but re-sort in case it was edited
	// by hand. RFC 3339 timestamps compare correctly as strings.
	sort.SliceStable(opinions, func(i, j int) bool {
		return opinions[i].Fecha > opinions[j].Fecha
	})

	if limit > 0 && len(opinions) > limit {
		opinions = opinions[:limit]
	}
	return opinions, nil
}

// Add sanitizes, stamps and front-inserts one opinion, then rewrites
// the file. An opinion whose text is empty after sanitizing is
// rejected.
func (s *Store) Add(op model.Opinion) (model.Opinion, error) {
	op.Text = s.sanitizer.Sanitize(op.Text)
	op.Author = s.sanitizer.Sanitize(op.Author)
	if op.Text == "" {
		return model.Opinion{}, model.NewEmptyOpinionError()
	}
	if op.Fecha == "" {
		op.Fecha = time.Now().Format(time.RFC3339)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	opinions, err := s.readAll()
	if err != nil {
		return model.Opinion{}, err
	}

	opinions = append([]model.Opinion{op}, opinions...)

	if err := s.writeAll(opinions); err != nil {
		return model.Opinion{}, err
	}

	s.logger.Info("opinion stored",
		slog.Int("total_opinions", len(opinions)),
	)
	return op, nil
}

// readAll loads the whole file. Caller holds the mutex.
func (s *Store) readAll() ([]model.Opinion, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read opinion file: %w", err)
	}

	var opinions []model.Opinion
	if err := json.Unmarshal(data, &opinions); err != nil {
		return nil, fmt.Errorf("opinion file is corrupt: %w", err)
	}
	return opinions, nil
}

// writeAll rewrites the file through a temp-file rename so a crash
// mid-write never truncates the stored opinions. Caller holds the
// mutex.
func (s *Store) writeAll(opinions []model.Opinion) error {
	data, err := json.MarshalIndent(opinions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode opinions: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".opiniones-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp opinion file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write opinion file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close opinion file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace opinion file: %w", err)
	}
	return nil
}
