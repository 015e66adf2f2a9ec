// Package store persists the flat artifact record list. The whole list is
// serialized under a single well-known key and overwritten on every
// mutation; there is no append log and no partial write.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/menta2k/livemoji/pkg/model"
)

var ErrCorruptStore = goerr.New("record store file is corrupt")

// RecordStore is a file-backed artifact list. All mutations persist the
// full list before returning; a failed persist leaves the in-memory list
// unchanged.
type RecordStore struct {
	mu      sync.Mutex
	path    string
	records []*model.Artifact
}

type document struct {
	SavedEmojis []*model.Artifact `json:"saved_emojis"`
}

// Open loads the record store at the given path, creating an empty store
// when the file does not exist yet.
func Open(path string) (*RecordStore, error) {
	s := &RecordStore{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read record store", goerr.V("path", path))
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, goerr.Wrap(ErrCorruptStore, err.Error(), goerr.V("path", path))
	}
	s.records = doc.SavedEmojis
	return s, nil
}

// List returns a snapshot copy of the record list, newest first
func (s *RecordStore) List() []*model.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Artifact, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns the record with the given id, or nil when absent
func (s *RecordStore) Get(id model.ArtifactID) *model.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Add validates the artifact, prepends it to the list and persists. On
// persist failure the list is rolled back.
func (s *RecordStore) Add(a *model.Artifact) error {
	if err := a.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orig := s.records
	s.records = append([]*model.Artifact{a}, orig...)
	if err := s.persist(); err != nil {
		s.records = orig
		return err
	}
	return nil
}

// Delete removes exactly the record with the given id and persists.
// Deleting an id that does not exist is a no-op.
func (s *RecordStore) Delete(id model.ArtifactID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, r := range s.records {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	orig := s.records
	next := make([]*model.Artifact, 0, len(orig)-1)
	next = append(next, orig[:idx]...)
	next = append(next, orig[idx+1:]...)

	s.records = next
	if err := s.persist(); err != nil {
		s.records = orig
		return err
	}
	return nil
}

// Len returns the number of stored records
func (s *RecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// persist writes the full list atomically (tmp file + rename). Callers
// must hold the mutex.
func (s *RecordStore) persist() error {
	doc := document{SavedEmojis: s.records}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to serialize record list")
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return goerr.Wrap(err, "failed to create store directory", goerr.V("dir", dir))
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write record store", goerr.V("path", tmp))
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return goerr.Wrap(err, "failed to replace record store", goerr.V("path", s.path))
	}
	return nil
}
