// Package session provides datagrid.SessionContext implementations backed by
// static values or a small JSON file.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goliatone/go-datagrid/components/datagrid"
)

// Static is an immutable session.
type Static struct {
	token   string
	role    int
	hasRole bool
}

var (
	_ datagrid.SessionContext = Static{}
	_ datagrid.SessionContext = (*FileStore)(nil)
)

// NewStatic returns a session with token and role. A blank token or a role <= 0
// is treated as absent.
func NewStatic(token string, role int) Static {
	return Static{token: strings.TrimSpace(token), role: role, hasRole: role > 0}
}

// Anonymous is a session without token or role.
func Anonymous() Static {
	return Static{}
}

func (s Static) Token() (string, bool) {
	return s.token, s.token != ""
}

func (s Static) Role() (int, bool) {
	return s.role, s.hasRole
}

// Record is the persisted session document.
type Record struct {
	Token string `json:"token,omitempty"`
	Role  *int   `json:"role,omitempty"`
}

// FileStore reads and writes a Record as JSON. A missing file is an empty session.
type FileStore struct {
	path   string
	mu     sync.RWMutex
	record Record
}

// NewFileStore builds a store for path. Call Load to read it.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// OpenFileStore builds a store and loads it.
func OpenFileStore(path string) (*FileStore, error) {
	s := NewFileStore(path)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load re-reads the file.
func (s *FileStore) Load() error {
	data, err := os.ReadFile(s.path) //nolint:gosec
	if errors.Is(err, fs.ErrNotExist) {
		s.set(Record{})
		return nil
	}
	if err != nil {
		return fmt.Errorf("session: read %s: %w", s.path, err)
	}
	var record Record
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("session: decode %s: %w", s.path, err)
		}
	}
	s.set(record)
	return nil
}

// Save persists token and role. role <= 0 stores no role.
func (s *FileStore) Save(token string, role int) error {
	record := Record{Token: strings.TrimSpace(token)}
	if role > 0 {
		record.Role = &role
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("session: create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("session: write %s: %w", s.path, err)
	}
	s.set(record)
	return nil
}

// Clear removes the file and forgets the session.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: remove %s: %w", s.path, err)
	}
	s.set(Record{})
	return nil
}

func (s *FileStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.Token, s.record.Token != ""
}

func (s *FileStore) Role() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.record.Role == nil {
		return 0, false
	}
	return *s.record.Role, true
}

func (s *FileStore) set(record Record) {
	s.mu.Lock()
	s.record = record
	s.mu.Unlock()
}
