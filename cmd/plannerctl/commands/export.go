package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/benvon/study-advent/internal/export"
	"github.com/benvon/study-advent/internal/planner"
	"github.com/spf13/cobra"
)

func newExportCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the calendar for other tools",
	}
	cmd.AddCommand(newExportICSCmd(e))
	cmd.AddCommand(newExportPrintCmd(e))
	return cmd
}

func newExportICSCmd(e *env) *cobra.Command {
	var file string
	var pending bool
	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Write the calendar as iCalendar, day 1 starting today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, closeFn, err := e.open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			snap := p.Snapshot()
			if snap.Empty() {
				return planner.ErrNoCalendar
			}
			now := p.Now()
			return writeTo(cmd, file, func(w io.Writer) error {
				return export.WriteICS(w, snap.Tasks, export.ICSOptions{Base: now, Stamp: now, SkipCompleted: pending})
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Write to this file instead of stdout")
	cmd.Flags().BoolVar(&pending, "pending", false, "Leave completed days out")
	return cmd
}

func newExportPrintCmd(e *env) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Write a printable HTML page of the calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, closeFn, err := e.open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			snap := p.Snapshot()
			if snap.Empty() {
				return planner.ErrNoCalendar
			}
			return writeTo(cmd, file, func(w io.Writer) error {
				return export.WritePrintHTML(w, export.NewPrintData(snap, p.Now()))
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Write to this file instead of stdout")
	return cmd
}

// writeTo runs write against file, or stdout when file is empty.
func writeTo(cmd *cobra.Command, file string, write func(io.Writer) error) (err error) {
	if file == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("create %s: %w", file, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	if err := write(f); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", file)
	return nil
}
