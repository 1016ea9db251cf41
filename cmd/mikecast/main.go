package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shanehull/mikecast/internal/config"
	"github.com/shanehull/mikecast/internal/history"
	"github.com/shanehull/mikecast/internal/logging"
	"github.com/shanehull/mikecast/internal/retry"
)

// app carries the loaded configuration to every subcommand.
type app struct {
	configPath string
	logLevel   string

	cfg    config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "mikecast",
		Short:         "MikeCast daily news briefing",
		Long:          "Collects the day's news, drops stories already covered, and publishes an HTML/audio briefing with Mike's picks.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config.yaml (default: $MIKECAST_CONFIG)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		runCmd(a),
		picksCmd(a),
		historyCmd(a),
		serveCmd(a),
	)
	return root
}

func (a *app) load() error {
	// Config problems are logged before the configured level is known.
	a.cfg = config.Load(a.configPath, logging.New("info"))
	if a.logLevel != "" {
		a.cfg.LogLevel = a.logLevel
	}
	a.logger = logging.New(a.cfg.LogLevel)
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (a *app) retryPolicy() retry.Policy {
	return retry.Policy{
		Attempts: a.cfg.Retry.Attempts,
		Base:     a.cfg.Retry.BaseDelay,
		Max:      a.cfg.Retry.MaxDelay,
	}
}

// openHistory returns the configured history backend and its closer.
func (a *app) openHistory() (history.Persister, func() error, error) {
	switch a.cfg.History.Backend {
	case config.BackendSQLite:
		db, err := history.OpenSQLite(a.cfg.Paths.History)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		return history.NewJSONFile(a.cfg.Paths.History), func() error { return nil }, nil
	}
}
