package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

const (
	BookmarksField = "syncedUrls"
	BooksField     = "syncedBooks"
)

// ErrCorrupt marks a state file that exists but cannot be used.
var ErrCorrupt = errors.New("sync state is corrupt")

// FileStore keeps a State in a JSON file of the form
//
//	{ "<keysField>": ["..."], "lastSync": "2025-01-02T15:04:05Z" }
type FileStore struct {
	path      string
	keysField string
}

func NewFileStore(path, keysField string) *FileStore {
	return &FileStore{path: path, keysField: keysField}
}

func (fs *FileStore) Path() string {
	return fs.path
}

// Load never fails: a missing or unusable file yields an empty State.
func (fs *FileStore) Load() *State {
	st, err := fs.read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("No sync state found, starting empty", "path", fs.path)
		} else {
			slog.Warn("Ignoring unreadable sync state", "path", fs.path, "error", err)
		}
		return New()
	}

	slog.Debug("Sync state loaded", "path", fs.path, "keys", st.Len(), "last_sync", st.LastSync)
	return st
}

func (fs *FileStore) read() (*State, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	st := New()

	if raw, ok := doc[fs.keysField]; ok && string(raw) != "null" {
		var keys []string
		if err := json.Unmarshal(raw, &keys); err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", ErrCorrupt, fs.keysField, err)
		}
		for _, key := range keys {
			st.Record(key)
		}
	}

	if raw, ok := doc["lastSync"]; ok && string(raw) != "null" {
		var lastSync time.Time
		if err := json.Unmarshal(raw, &lastSync); err != nil {
			return nil, fmt.Errorf("%w: field lastSync: %v", ErrCorrupt, err)
		}
		st.LastSync = &lastSync
	}

	return st, nil
}

// Save rewrites the whole file.
func (fs *FileStore) Save(st *State) error {
	doc := map[string]any{
		fs.keysField: st.Keys(),
		"lastSync":   nil,
	}
	if st.LastSync != nil {
		doc["lastSync"] = st.LastSync.UTC().Format(time.RFC3339)
	}

	if err := WriteJSON(fs.path, doc); err != nil {
		return fmt.Errorf("failed to save sync state: %w", err)
	}
	return nil
}
