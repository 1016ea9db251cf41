package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/shanehull/mikecast/internal/fsutil"
)

// JSONFile persists the history as a JSON object mapping key to entry.
type JSONFile struct {
	Path string
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{Path: path}
}

func (f *JSONFile) Location() string {
	return f.Path
}

// Load returns an empty map when the file does not exist.
func (f *JSONFile) Load() (map[string]*Entry, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]*Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	entries := make(map[string]*Entry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history JSON: %w", err)
	}
	return entries, nil
}

func (f *JSONFile) Save(entries map[string]*Entry) error {
	if entries == nil {
		entries = map[string]*Entry{}
	}
	return fsutil.WriteJSONAtomic(f.Path, entries)
}
