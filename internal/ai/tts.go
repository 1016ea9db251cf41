package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/shanehull/mikecast/internal/fsutil"
	"github.com/shanehull/mikecast/internal/retry"
)

// DefaultChunkSize keeps each request under the speech endpoint's 4096
// character input limit.
const DefaultChunkSize = 4000

type SpeakerConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Voice      string
	ChunkSize  int
	HTTPClient *http.Client
	Retry      retry.Policy
}

// Speaker narrates a script with OpenAI speech synthesis.
type Speaker struct {
	client    *openai.Client
	model     openai.SpeechModel
	voice     openai.SpeechVoice
	chunkSize int
	pause     time.Duration
	policy    retry.Policy
	logger    *slog.Logger
}

func NewSpeaker(cfg SpeakerConfig, logger *slog.Logger) (*Speaker, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.TTSModel1HD)
	}
	if cfg.Voice == "" {
		cfg.Voice = string(openai.VoiceAlloy)
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	return &Speaker{
		client:    openai.NewClientWithConfig(oc),
		model:     openai.SpeechModel(cfg.Model),
		voice:     openai.SpeechVoice(cfg.Voice),
		chunkSize: cfg.ChunkSize,
		pause:     500 * time.Millisecond,
		policy:    cfg.Retry,
		logger:    logger,
	}, nil
}

// Synthesize narrates script and writes the concatenated MP3 segments to
// path. Nothing is written unless every chunk succeeds.
func (s *Speaker) Synthesize(ctx context.Context, script, path string) error {
	chunks := SplitChunks(script, s.chunkSize)
	if len(chunks) == 0 {
		return fmt.Errorf("empty script")
	}

	var audio bytes.Buffer
	for i, chunk := range chunks {
		if i > 0 && s.pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.pause):
			}
		}
		s.logger.Info("generating speech chunk", "chunk", i+1, "of", len(chunks), "chars", len(chunk))

		segment, err := s.speak(ctx, chunk)
		if err != nil {
			return fmt.Errorf("speech chunk %d/%d failed: %w", i+1, len(chunks), err)
		}
		audio.Write(segment)
	}

	if err := fsutil.WriteFileAtomic(path, audio.Bytes(), 0o644); err != nil {
		return err
	}
	s.logger.Info("podcast audio saved", "path", path, "bytes", audio.Len())
	return nil
}

// speak synthesizes one chunk, retrying rate limits and server errors.
func (s *Speaker) speak(ctx context.Context, chunk string) ([]byte, error) {
	var segment []byte
	err := retry.Do(ctx, s.policy, func(attempt int) error {
		resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
			Model:          s.model,
			Voice:          s.voice,
			Input:          chunk,
			ResponseFormat: openai.SpeechResponseFormatMp3,
		})
		if err != nil {
			s.logger.Warn("speech request failed", "attempt", attempt, "error", err)
			return retryable(ctx, err)
		}
		defer resp.Close()

		data, err := io.ReadAll(resp)
		if err != nil {
			return fmt.Errorf("failed to read speech audio: %w", err)
		}
		segment = data
		return nil
	})
	return segment, err
}

// SplitChunks cuts script into pieces of at most max bytes, preferring to
// end each piece after a sentence (". ").
func SplitChunks(script string, max int) []string {
	if max <= 0 {
		max = DefaultChunkSize
	}
	var chunks []string
	remaining := script
	for strings.TrimSpace(remaining) != "" {
		if len(remaining) <= max {
			chunks = append(chunks, remaining)
			break
		}
		cut := strings.LastIndex(remaining[:max], ". ")
		if cut == -1 {
			cut = safeCut(remaining, max)
		} else {
			cut += 2
		}
		chunks = append(chunks, remaining[:cut])
		remaining = remaining[cut:]
	}
	return chunks
}

// safeCut backs off from max so a multi-byte rune is never split.
func safeCut(s string, max int) int {
	for max > 0 && max < len(s) && !isRuneStart(s[max]) {
		max--
	}
	if max == 0 {
		return len(s)
	}
	return max
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
