package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shanehull/mikecast/internal/lock"
	"github.com/shanehull/mikecast/internal/picks"
	"github.com/shanehull/mikecast/internal/types"
)

func picksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "picks",
		Short: "Manage Mike's picks for the next briefing",
	}
	cmd.AddCommand(picksAddCmd(a), picksListCmd(a))
	return cmd
}

func picksAddCmd(a *app) *cobra.Command {
	var urlFlag, pdfFlag, textFlag, titleFlag string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Queue a URL, PDF or note for the next briefing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := pickFromFlags(urlFlag, pdfFlag, textFlag, titleFlag)
			if err != nil {
				return err
			}

			l, err := lock.Acquire(a.cfg.Paths.Lock)
			if err != nil {
				return err
			}
			defer l.Release()

			q := picks.NewQueue(a.cfg.Paths.Picks, a.logger)
			added, err := q.Add(item)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued %s pick %s\n", added.Kind, added.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&urlFlag, "url", "", "article URL")
	cmd.Flags().StringVar(&pdfFlag, "pdf", "", "path to a local PDF")
	cmd.Flags().StringVar(&textFlag, "text", "", "free text")
	cmd.Flags().StringVar(&titleFlag, "title", "", "optional title")
	cmd.MarkFlagsMutuallyExclusive("url", "pdf", "text")
	cmd.MarkFlagsOneRequired("url", "pdf", "text")
	return cmd
}

// pickFromFlags builds a queue item from exactly one of url, pdf and text.
// PDF paths must exist and are stored absolute.
func pickFromFlags(url, pdf, text, title string) (types.PickItem, error) {
	item := types.PickItem{Title: strings.TrimSpace(title)}
	switch {
	case url != "":
		item.Kind = types.PickURL
		item.URL = strings.TrimSpace(url)
	case pdf != "":
		abs, err := filepath.Abs(pdf)
		if err != nil {
			return item, fmt.Errorf("failed to resolve %s: %w", pdf, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return item, fmt.Errorf("pdf not found: %s", abs)
			}
			return item, err
		}
		if info.IsDir() {
			return item, fmt.Errorf("%s is a directory", abs)
		}
		item.Kind = types.PickPDF
		item.Path = abs
	case text != "":
		item.Kind = types.PickText
		item.BodyText = text
	default:
		return item, errors.New("one of --url, --pdf or --text is required")
	}
	return item, picks.Validate(item)
}

func picksListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show queued picks",
		RunE: func(cmd *cobra.Command, args []string) error {
			items := picks.NewQueue(a.cfg.Paths.Picks, a.logger).Load()
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No picks queued.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tADDED\tCONTENT")
			for _, it := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", it.ID, it.Kind, it.AddedAt.Format("2006-01-02 15:04"), describePick(it))
			}
			return w.Flush()
		},
	}
}

func describePick(it types.PickItem) string {
	var s string
	switch it.Kind {
	case types.PickURL:
		s = it.URL
	case types.PickPDF:
		s = it.Path
	default:
		s = strings.Join(strings.Fields(it.BodyText), " ")
	}
	if it.Title != "" {
		s = it.Title + " (" + s + ")"
	}
	return picks.Truncate(s, 60)
}
