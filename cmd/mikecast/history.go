package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shanehull/mikecast/internal/history"
	"github.com/shanehull/mikecast/internal/lock"
	"github.com/shanehull/mikecast/internal/types"
)

func historyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and maintain the briefing history",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Drop history entries older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := lock.TryAcquire(a.cfg.Paths.Lock)
			if err != nil {
				return fmt.Errorf("a briefing run is in progress: %w", err)
			}
			defer l.Release()

			p, closeFn, err := a.openHistory()
			if err != nil {
				return err
			}
			defer closeFn()

			store := history.NewStore(p, a.logger)
			store.Load()
			today := types.DateOf(time.Now().In(a.cfg.Location()))
			removed := store.Prune(today, a.cfg.History.RetentionDays)
			if err := store.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries, %d remaining.\n", removed, store.Len())
			return nil
		},
	})
	return cmd
}
