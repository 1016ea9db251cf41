package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shanehull/mikecast/internal/manifest"
)

func serveCmd(a *app) *cobra.Command {
	var addrFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and briefing artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := a.cfg.Server.Addr
			if addrFlag != "" {
				addr = addrFlag
			}

			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           newServeMux(a.cfg.Paths.DataDir, a.cfg.Server.DashboardDir, a.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("serving dashboard", "addr", addr, "data", a.cfg.Paths.DataDir)
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				a.logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return httpSrv.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}
	cmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (default from config)")
	return cmd
}

// newServeMux exposes the manifest, the data directory and the static
// dashboard.
func newServeMux(dataDir, dashboardDir string, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/manifest", func(w http.ResponseWriter, r *http.Request) {
		dates, err := manifest.Scan(dataDir)
		if err != nil {
			logger.Error("failed to scan artifacts", "error", err)
			http.Error(w, "failed to list briefings", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		if err := json.NewEncoder(w).Encode(manifest.Index{Dates: dates}); err != nil {
			logger.Warn("failed to write manifest response", "error", err)
		}
	})

	mux.Handle("GET /data/", http.StripPrefix("/data/", http.FileServer(http.Dir(dataDir))))

	if dashboardDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(dashboardDir)))
	}
	return mux
}
