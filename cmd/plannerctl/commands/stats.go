package commands

import (
	"fmt"
	"io"

	"github.com/benvon/study-advent/internal/analytics"
	"github.com/benvon/study-advent/internal/models"
	"github.com/spf13/cobra"
)

type statsView struct {
	Tasks          int                      `json:"tasks" yaml:"tasks"`
	CompletedCount int                      `json:"completed_count" yaml:"completed_count"`
	Gamification   models.GamificationStats `json:"gamification" yaml:"gamification"`
	TotalStudyTime int                      `json:"total_study_time" yaml:"total_study_time"`
	CurrentStreak  int                      `json:"current_streak" yaml:"current_streak"`
	LongestStreak  int                      `json:"longest_streak" yaml:"longest_streak"`
	CompletionRate int                      `json:"completion_rate" yaml:"completion_rate"`
	Week           analytics.WeeklySummary  `json:"week" yaml:"week"`
}

func newStatsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show progress, points and study time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, closeFn, err := e.open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			snap := p.Snapshot()
			stats := p.Analytics()
			view := statsView{
				Tasks:          len(snap.Tasks),
				CompletedCount: snap.CompletedCount,
				Gamification:   p.Gamification(),
				TotalStudyTime: stats.TotalStudyTime,
				CurrentStreak:  stats.CurrentStreak,
				LongestStreak:  stats.LongestStreak,
				CompletionRate: stats.CompletionRate,
				Week:           p.Weekly(),
			}

			return e.render(cmd.OutOrStdout(), view, func(w io.Writer) {
				if view.Tasks == 0 {
					fmt.Fprintln(w, "No calendar yet.")
				} else {
					fmt.Fprintf(w, "Calendar: %d/%d days completed\n", view.CompletedCount, view.Tasks)
				}
				fmt.Fprintf(w, "Points: %d\n", view.Gamification.Points)
				fmt.Fprintf(w, "Streak: %d (longest %d)\n", view.CurrentStreak, view.LongestStreak)
				fmt.Fprintf(w, "Study time: %d minutes\n", view.TotalStudyTime)
				fmt.Fprintf(w, "Completion rate: %d%%\n", view.CompletionRate)
				fmt.Fprintf(w, "Achievements: %d\n", len(view.Gamification.Achievements))
				fmt.Fprintf(w, "This week (%s to %s): %d minutes over %d sessions\n",
					view.Week.WeekStart, view.Week.WeekEnd, view.Week.TotalTime, view.Week.SessionsCount)
			})
		},
	}
}
