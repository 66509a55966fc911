package commands

import (
	"fmt"
	"io"

	"github.com/benvon/study-advent/internal/prediction"
	"github.com/spf13/cobra"
)

func newPredictCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "predict",
		Short: "Forecast when the calendar will be finished",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, closeFn, err := e.open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			f := p.Forecast()
			return e.render(cmd.OutOrStdout(), f, func(w io.Writer) {
				pred := f.Prediction
				if pred.Status == prediction.StatusNoCalendar {
					fmt.Fprintln(w, "No calendar yet.")
					return
				}
				fmt.Fprintf(w, "Status: %s\n", pred.Status)
				fmt.Fprintf(w, "Completed: %d/%d\n", pred.Completed, pred.Total)
				fmt.Fprintf(w, "Pace: %.2f/day (need %.2f/day)\n", pred.CurrentPace, pred.RequiredPace)
				fmt.Fprintf(w, "Projected finish: %s (target %s)\n",
					pred.ProjectedDate.Format("2006-01-02"), pred.TargetDate.Format("2006-01-02"))
				fmt.Fprintf(w, "Confidence: %s\n", pred.Confidence)
				fmt.Fprintf(w, "Efficiency: %s (%d) %s\n", f.Efficiency.Grade, f.Efficiency.Score, f.Efficiency.Message)
			})
		},
	}
}
