package commands

import (
	"fmt"
	"io"

	"github.com/benvon/study-advent/internal/models"
	"github.com/spf13/cobra"
)

type sessionsView struct {
	Sessions []models.StudySession `json:"sessions" yaml:"sessions"`
	Total    int                   `json:"total" yaml:"total"`
}

func newSessionsCmd(e *env) *cobra.Command {
	var offset, limit int
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded study sessions, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if offset < 0 || limit <= 0 {
				return fmt.Errorf("--offset must be >= 0 and --limit > 0")
			}
			p, closeFn, err := e.open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			sessions, total, err := p.ListSessions(cmd.Context(), offset, limit)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}
			view := sessionsView{Sessions: sessions, Total: total}
			return e.render(cmd.OutOrStdout(), view, func(w io.Writer) {
				fmt.Fprintf(w, "%d sessions\n", total)
				for _, s := range sessions {
					task := "-"
					if s.Task != nil {
						task = fmt.Sprintf("day %d: %s", s.Task.Day, s.Task.Title)
					}
					fmt.Fprintf(w, "  %s %02d:00  %3d min  %s\n", s.Date, s.HourOfDay, s.Duration, task)
				}
			})
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "Sessions to skip")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum sessions to list")
	return cmd
}
