/*
Package manifest maintains the descending index of dates that have a
published briefing artifact. The dashboard reads it to populate its archive
selector.
*/
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/shanehull/mikecast/internal/fsutil"
	"github.com/shanehull/mikecast/internal/types"
)

const FileName = "manifest.json"

var artifactName = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.json$`)

// Index is the on-disk manifest document.
type Index struct {
	Dates []string `json:"dates"`
}

// Manifest is an Index bound to its file.
type Manifest struct {
	path  string
	index Index
}

// Load reads the manifest at path. When the file is missing or unreadable
// the index is rebuilt from the artifacts found in dataDir.
func Load(path, dataDir string) (*Manifest, error) {
	m := &Manifest{path: path}

	data, err := os.ReadFile(path)
	if err == nil {
		var idx Index
		if jsonErr := json.Unmarshal(data, &idx); jsonErr == nil {
			m.index.Dates = normalize(idx.Dates)
			return m, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, &types.PersistenceError{Op: "read manifest", Path: path, Err: err}
	}

	dates, scanErr := Scan(dataDir)
	if scanErr != nil {
		return nil, scanErr
	}
	m.index.Dates = dates
	return m, nil
}

// Scan lists the dates of YYYY-MM-DD.json artifacts in dir, newest first.
// A missing directory yields an empty list.
func Scan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, &types.PersistenceError{Op: "scan artifacts", Path: dir, Err: err}
	}

	var dates []string
	for _, e := range entries {
		if e.IsDir() || !artifactName.MatchString(e.Name()) {
			continue
		}
		dates = append(dates, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	return normalize(dates), nil
}

// Append adds date if absent and keeps the index in descending order. It
// reports whether the index changed.
func (m *Manifest) Append(date types.Date) bool {
	d := date.String()
	for _, existing := range m.index.Dates {
		if existing == d {
			return false
		}
	}
	m.index.Dates = normalize(append(m.index.Dates, d))
	return true
}

func (m *Manifest) Dates() []string {
	out := make([]string, len(m.index.Dates))
	copy(out, m.index.Dates)
	return out
}

// Latest returns the newest date, or "" for an empty index.
func (m *Manifest) Latest() string {
	if len(m.index.Dates) == 0 {
		return ""
	}
	return m.index.Dates[0]
}

func (m *Manifest) Save() error {
	if err := fsutil.WriteJSONAtomic(m.path, m.index); err != nil {
		return &types.PersistenceError{Op: "write manifest", Path: m.path, Err: err}
	}
	return nil
}

// normalize drops invalid and repeated dates and sorts newest first.
func normalize(dates []string) []string {
	seen := make(map[string]struct{}, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		d = strings.TrimSpace(d)
		if _, err := types.ParseDate(d); err != nil {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	// ISO dates sort lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

func (m *Manifest) String() string {
	return fmt.Sprintf("manifest(%s, %d dates)", m.path, len(m.index.Dates))
}
