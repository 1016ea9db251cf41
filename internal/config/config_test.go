package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shanehull/mikecast/internal/logging"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		configPathEnv, dataDirEnv, logLevelEnv, nytAPIKeyEnv, geminiAPIKeyEnv,
		openAIAPIKeyEnv, gmailPassEnv, gmailFromEnv, gmailToEnv,
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultsValidate(t *testing.T) {
	clearEnv(t)
	cfg := Load("", logging.Discard())
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.History.RetentionDays != 7 {
		t.Fatalf("retention = %d, want 7", cfg.History.RetentionDays)
	}
	if got := cfg.CategoryNames(); len(got) != 4 || got[0] != "AI & Tech" {
		t.Fatalf("categories = %v", got)
	}
	if cfg.Email.Enabled() {
		t.Fatal("email should be disabled without credentials")
	}
	if cfg.Location() != time.UTC {
		t.Fatalf("location = %v, want UTC", cfg.Location())
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "mikecast.yaml")
	body := `
paths:
  data_dir: ` + filepath.Join(dir, "data") + `
history:
  backend: sqlite
  retention_days: 5
dedup:
  match_threshold: 0.7
sources:
  request_interval: 250ms
  categories:
    - name: Only
      queries: [one, two]
  nyt_sections:
    - section: home
      category: Only
email:
  to: [a@example.com]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(nytAPIKeyEnv, "nyt-key")
	t.Setenv(gmailPassEnv, "secret")
	t.Setenv(gmailFromEnv, "me@example.com")

	cfg := Load(path, logging.Discard())
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.History.Backend != BackendSQLite || cfg.History.RetentionDays != 5 {
		t.Fatalf("history = %+v", cfg.History)
	}
	if cfg.Dedup.MatchThreshold != 0.7 || cfg.Dedup.UpdateThreshold != 0.9 {
		t.Fatalf("dedup = %+v", cfg.Dedup)
	}
	if cfg.Sources.RequestInterval != 250*time.Millisecond {
		t.Fatalf("interval = %v", cfg.Sources.RequestInterval)
	}
	if names := cfg.CategoryNames(); len(names) != 1 || names[0] != "Only" {
		t.Fatalf("categories = %v", names)
	}
	if cfg.Sources.NYTAPIKey != "nyt-key" {
		t.Fatalf("nyt key not taken from env")
	}
	if !cfg.Email.Enabled() || cfg.Email.User != "me@example.com" {
		t.Fatalf("email = %+v", cfg.Email)
	}
	if want := filepath.Join(dir, "briefing_history.json"); cfg.Paths.History != want {
		t.Fatalf("history path = %q, want %q", cfg.Paths.History, want)
	}
}

func TestInvalidFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("dedup: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := Load(path, logging.Discard())
	if cfg.Dedup.MatchThreshold != 0.8 {
		t.Fatalf("match threshold = %v, want default", cfg.Dedup.MatchThreshold)
	}
}

func TestValidateRejects(t *testing.T) {
	cfg := Default()
	cfg.Dedup.MatchThreshold = 1.5
	cfg.History.RetentionDays = 0
	cfg.History.Backend = "mongo"
	cfg.Sources.NYTSections = append(cfg.Sources.NYTSections, SectionConfig{Section: "arts", Category: "Arts"})

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"match_threshold", "retention_days", "backend", "Arts"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}
