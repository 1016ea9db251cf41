package briefing

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shanehull/mikecast/internal/fsutil"
	"github.com/shanehull/mikecast/internal/types"
)

// Artifact is the per-day document the dashboard loads.
type Artifact struct {
	Date          string                     `json:"date"`
	DateDisplay   string                     `json:"date_display"`
	HTMLBriefing  string                     `json:"html_briefing"`
	AudioFile     *string                    `json:"audio_file"`
	Articles      map[string][]types.Article `json:"articles"`
	MikesPicks    []types.Pick               `json:"mikes_picks"`
	PodcastScript string                     `json:"podcast_script"`
	GeneratedAt   string                     `json:"generated_at"`
}

func ArtifactPath(dataDir string, d types.Date) string {
	return filepath.Join(dataDir, d.String()+".json")
}

func AudioFileName(d types.Date) string {
	return "MikeCast_" + d.String() + ".mp3"
}

func ScriptFileName(d types.Date) string {
	return "MikeCast_Script_" + d.String() + ".txt"
}

// NewArtifact assembles the artifact for a digest. audioFile is the file
// name inside the data directory, or "" when no audio was produced.
func NewArtifact(d types.Digest, html, script, audioFile string, generatedAt time.Time) Artifact {
	articles := make(map[string][]types.Article, len(d.Categories))
	for _, cat := range d.Categories {
		arts := d.Articles[cat]
		if arts == nil {
			arts = []types.Article{}
		}
		articles[cat] = arts
	}
	picks := d.Picks
	if picks == nil {
		picks = []types.Pick{}
	}

	a := Artifact{
		Date:          d.Date.String(),
		DateDisplay:   d.Date.Display(),
		HTMLBriefing:  html,
		Articles:      articles,
		MikesPicks:    picks,
		PodcastScript: script,
		GeneratedAt:   generatedAt.Format(time.RFC3339),
	}
	if audioFile != "" {
		a.AudioFile = &audioFile
	}
	return a
}

// WriteArtifact writes a atomically to path.
func WriteArtifact(path string, a Artifact) error {
	if err := fsutil.WriteJSONAtomic(path, a); err != nil {
		return &types.PersistenceError{Op: "write artifact", Path: path, Err: err}
	}
	return nil
}

func ReadArtifact(path string) (Artifact, error) {
	var a Artifact
	data, err := os.ReadFile(path)
	if err != nil {
		return a, &types.PersistenceError{Op: "read artifact", Path: path, Err: err}
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return a, &types.PersistenceError{Op: "read artifact", Path: path, Err: fmt.Errorf("failed to unmarshal: %w", err)}
	}
	return a, nil
}

func artifactExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
