// Package source provides the ways a viewer obtains manuals: a static
// document shipped with the deployment or a fetch from the HTTP API.
package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/ziadkadry99/manualview/internal/client"
	"github.com/ziadkadry99/manualview/internal/manual"
)

// Loader loads a manual by id.
type Loader interface {
	Load(ctx context.Context, id int) (*manual.Manual, error)
}

// Static serves a single manual document. Requests for any other id are
// not found.
type Static struct {
	mu   sync.RWMutex
	m    *manual.Manual
	path string
}

// NewBundled returns a Static serving the manual compiled into the binary.
func NewBundled() (*Static, error) {
	m, err := manual.Bundled()
	if err != nil {
		return nil, fmt.Errorf("loading bundled manual: %w", err)
	}
	return &Static{m: m}, nil
}

// NewFile returns a Static serving the document at path.
func NewFile(path string) (*Static, error) {
	m, err := manual.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return &Static{m: m, path: path}, nil
}

// Path returns the backing file, or "" for the bundled document.
func (s *Static) Path() string { return s.path }

// ID returns the id of the served manual.
func (s *Static) ID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.ID
}

// Load returns the document when id matches it.
func (s *Static) Load(_ context.Context, id int) (*manual.Manual, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.m == nil || s.m.ID != id {
		return nil, fmt.Errorf("manual %d: %w", id, manual.ErrNotFound)
	}
	return s.m, nil
}

// Reload re-reads the backing file.
func (s *Static) Reload() (*manual.Manual, error) {
	if s.path == "" {
		return s.current(), nil
	}
	m, err := manual.LoadFile(s.path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.m = m
	s.mu.Unlock()
	return m, nil
}

func (s *Static) current() *manual.Manual {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m
}

// Remote loads manuals from the HTTP API.
func Remote(baseURL string) Loader {
	return client.New(baseURL, nil)
}
