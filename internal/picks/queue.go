/*
Package picks manages the queue of user-submitted items ("Mike's Picks") and
turns them into the briefing's picks section.
*/
package picks

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shanehull/mikecast/internal/fsutil"
	"github.com/shanehull/mikecast/internal/types"
)

// Queue is the on-disk FIFO of pending picks. Callers serialize access with
// the run lock.
type Queue struct {
	path   string
	logger *slog.Logger
	now    func() time.Time
}

func NewQueue(path string, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{path: path, logger: logger, now: time.Now}
}

func (q *Queue) Path() string {
	return q.path
}

// storedItem accepts both the current layout and the older
// {"type","content","timestamp","processed"} records written by earlier
// ingest tools.
type storedItem struct {
	types.PickItem
	Type      string `json:"type,omitempty"`
	Content   string `json:"content,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Processed bool   `json:"processed,omitempty"`
}

func (s storedItem) toItem() types.PickItem {
	item := s.PickItem
	if item.Kind == "" && s.Type != "" {
		item.Kind = types.PickKind(s.Type)
		switch item.Kind {
		case types.PickURL:
			item.URL = s.Content
		case types.PickPDF:
			item.Path = s.Content
		default:
			item.BodyText = s.Content
		}
		if t, err := time.Parse(time.RFC3339Nano, s.Timestamp); err == nil {
			item.AddedAt = t
		}
	}
	if item.ID == "" {
		item.ID = contentID(item, s.Timestamp)
	}
	return item
}

// contentID derives an ID from the record itself, so an item stored
// without one keeps the same ID across loads and can be drained.
func contentID(item types.PickItem, timestamp string) string {
	key := strings.Join([]string{
		string(item.Kind), item.Title, item.URL, item.Path, item.BodyText,
		timestamp, item.AddedAt.UTC().Format(time.RFC3339Nano),
	}, "\x00")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

var errMalformedQueue = errors.New("picks queue malformed")

// Load returns the pending items in submission order. A missing or
// malformed queue file yields an empty queue. Records already marked
// processed are skipped.
func (q *Queue) Load() []types.PickItem {
	items, err := q.load()
	if err != nil {
		q.logger.Warn("picks queue unusable, treating as empty", "path", q.path, "error", err)
		return nil
	}
	return items
}

func (q *Queue) load() ([]types.PickItem, error) {
	raw, err := os.ReadFile(q.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}

	var stored []storedItem
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedQueue, err)
	}

	items := make([]types.PickItem, 0, len(stored))
	for _, s := range stored {
		if s.Processed {
			continue
		}
		item := s.toItem()
		if err := Validate(item); err != nil {
			q.logger.Warn("dropping invalid pick", "id", item.ID, "error", err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// quarantine moves a malformed queue file to path.bad so a following save
// does not destroy it.
func (q *Queue) quarantine() {
	bad := q.path + ".bad"
	if err := os.Rename(q.path, bad); err != nil {
		q.logger.Error("failed to set aside malformed picks queue", "path", q.path, "error", err)
		return
	}
	q.logger.Warn("malformed picks queue set aside", "path", bad)
}

// Add validates item, assigns an ID and timestamp when missing and appends
// it to the queue.
func (q *Queue) Add(item types.PickItem) (types.PickItem, error) {
	if err := Validate(item); err != nil {
		return item, err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = q.now().UTC()
	}

	items, err := q.load()
	if err != nil {
		q.logger.Warn("picks queue unusable, starting a new one", "path", q.path, "error", err)
		if errors.Is(err, errMalformedQueue) {
			q.quarantine()
		}
		items = nil
	}
	items = append(items, item)
	if err := q.save(items); err != nil {
		return item, err
	}
	q.logger.Info("queued pick", "id", item.ID, "kind", item.Kind, "pending", len(items))
	return item, nil
}

// Drain removes the items whose IDs are given and keeps everything else,
// including items queued after those IDs were read. It returns the number
// of removed items.
func (q *Queue) Drain(ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	consumed := make(map[string]bool, len(ids))
	for _, id := range ids {
		consumed[id] = true
	}

	items, err := q.load()
	if err != nil {
		if errors.Is(err, errMalformedQueue) {
			q.quarantine()
		}
		return 0, &types.PersistenceError{Op: "drain picks", Path: q.path, Err: err}
	}
	kept := make([]types.PickItem, 0, len(items))
	for _, item := range items {
		if !consumed[item.ID] {
			kept = append(kept, item)
		}
	}
	removed := len(items) - len(kept)
	if err := q.save(kept); err != nil {
		return 0, err
	}
	q.logger.Info("drained picks queue", "removed", removed, "remaining", len(kept))
	return removed, nil
}

func (q *Queue) save(items []types.PickItem) error {
	if items == nil {
		items = []types.PickItem{}
	}
	if err := fsutil.WriteJSONAtomic(q.path, items); err != nil {
		return &types.PersistenceError{Op: "save picks", Path: q.path, Err: err}
	}
	return nil
}

// Validate checks that item carries the content its kind needs.
func Validate(item types.PickItem) error {
	switch item.Kind {
	case types.PickURL:
		if strings.TrimSpace(item.URL) == "" {
			return &types.InputError{Reason: "url pick without a url"}
		}
	case types.PickPDF:
		if strings.TrimSpace(item.Path) == "" {
			return &types.InputError{Reason: "pdf pick without a path"}
		}
	case types.PickText:
		if strings.TrimSpace(item.BodyText) == "" {
			return &types.InputError{Reason: "text pick without text"}
		}
	default:
		return &types.InputError{Reason: fmt.Sprintf("unknown pick kind %q", item.Kind)}
	}
	return nil
}
