package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shanehull/mikecast/internal/ai"
	"github.com/shanehull/mikecast/internal/briefing"
	"github.com/shanehull/mikecast/internal/dedup"
	"github.com/shanehull/mikecast/internal/news"
	"github.com/shanehull/mikecast/internal/notify"
	"github.com/shanehull/mikecast/internal/picks"
)

func runCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build and publish today's briefing",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner, closeFn, err := a.newRunner(ctx, force)
			if err != nil {
				return err
			}
			defer closeFn()

			_, err = runner.Run(ctx)
			if errors.Is(err, briefing.ErrAlreadyPublished) {
				a.logger.Warn("today's briefing already exists, use --force to rebuild it")
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "rebuild today's briefing even if it was already published")
	return cmd
}

func (a *app) newRunner(ctx context.Context, force bool) (*briefing.Runner, func() error, error) {
	cfg := a.cfg
	policy := a.retryPolicy()
	client := &http.Client{Timeout: cfg.Sources.Timeout}

	hist, closeFn, err := a.openHistory()
	if err != nil {
		return nil, nil, err
	}

	collector := news.NewCollector(
		news.NewNYT(cfg.Sources.NYTBaseURL, cfg.Sources.NYTAPIKey, client, policy),
		news.NewGoogleNews(cfg.Sources.GoogleNewsURL, client, policy),
		cfg.Sources,
		a.logger.With("component", "news"),
	)

	deps := briefing.Deps{
		History:   hist,
		Collector: collector,
		Picks:     picks.NewQueue(cfg.Paths.Picks, a.logger.With("component", "picks")),
		Merger:    picks.NewMerger(client, policy, a.logger.With("component", "picks")),
	}

	if cfg.AI.GeminiAPIKey != "" {
		s, err := ai.NewSummarizer(ctx, ai.SummarizerConfig{
			APIKey: cfg.AI.GeminiAPIKey,
			Model:  cfg.AI.Model,
			Retry:  policy,
		}, a.logger.With("component", "ai"))
		if err != nil {
			a.logger.Warn("AI summaries disabled", "error", err)
		} else {
			deps.Summarizer = s
		}
	} else {
		a.logger.Info("GEMINI_API_KEY not set, using heuristic insights")
	}

	if cfg.TTS.OpenAIAPIKey != "" {
		sp, err := ai.NewSpeaker(ai.SpeakerConfig{
			APIKey:    cfg.TTS.OpenAIAPIKey,
			BaseURL:   cfg.TTS.BaseURL,
			Model:     cfg.TTS.Model,
			Voice:     cfg.TTS.Voice,
			ChunkSize: cfg.TTS.ChunkSize,
			Retry:     policy,
		}, a.logger.With("component", "tts"))
		if err != nil {
			a.logger.Warn("audio disabled", "error", err)
		} else {
			deps.Speaker = sp
		}
	} else {
		a.logger.Info("OPENAI_API_KEY not set, skipping audio")
	}

	if cfg.Email.Enabled() {
		a.logger.Info("email delivery enabled", "smtp", cfg.Email.SMTPServer, "port", cfg.Email.SMTPPort)
		deps.Sender = notify.NewEmailSender(notify.EmailConfig{
			SMTPServer: cfg.Email.SMTPServer,
			SMTPPort:   cfg.Email.SMTPPort,
			SMTPUser:   cfg.Email.User,
			SMTPPass:   cfg.Email.Pass,
			FromEmail:  cfg.Email.From,
			ToEmails:   cfg.Email.To,
			Enabled:    true,
		}, policy, a.logger.With("component", "email"))
	}

	runner := briefing.NewRunner(briefing.Options{
		DataDir:       cfg.Paths.DataDir,
		LockPath:      cfg.Paths.Lock,
		Categories:    cfg.CategoryNames(),
		RetentionDays: cfg.History.RetentionDays,
		Thresholds: dedup.Thresholds{
			Match:  cfg.Dedup.MatchThreshold,
			Update: cfg.Dedup.UpdateThreshold,
		},
		TotalArticles: cfg.Selection.TotalArticles,
		Location:      cfg.Location(),
		Force:         force,
	}, deps, os.Stdout, a.logger)
	return runner, closeFn, nil
}
