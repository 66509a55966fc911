// Package commands implements plannerctl, an offline tool for the local planner store.
package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/benvon/study-advent/internal/config"
	"github.com/benvon/study-advent/internal/events"
	"github.com/benvon/study-advent/internal/persistence"
	"github.com/benvon/study-advent/internal/planner"
	"github.com/benvon/study-advent/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

type globalFlags struct {
	dbPath string
	output string
}

// env carries what every subcommand shares; clock is replaceable in tests.
type env struct {
	flags *globalFlags
	clock events.Clock
}

// NewRootCmd creates the plannerctl command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(clock events.Clock) *cobra.Command {
	e := &env{flags: &globalFlags{}, clock: clock}

	root := &cobra.Command{
		Use:           "plannerctl",
		Short:         "Inspect and manage the local study calendar",
		Long:          "Offline tool for the planner's local store: stats, forecasts, exports and resets.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&e.flags.dbPath, "db", "", "Path to the local store (defaults to LOCAL_DB_PATH or the XDG data dir)")
	root.PersistentFlags().StringVarP(&e.flags.output, "output", "o", outputText, "Output format: text, json or yaml")

	root.AddCommand(newStatsCmd(e))
	root.AddCommand(newPredictCmd(e))
	root.AddCommand(newSessionsCmd(e))
	root.AddCommand(newExportCmd(e))
	root.AddCommand(newResetCmd(e))
	return root
}

// open restores the planner from the local store. The caller must call the returned close func.
func (e *env) open(cmd *cobra.Command) (*planner.Planner, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	path := e.flags.dbPath
	if path == "" {
		path = cfg.LocalDBPath
	}
	if path == "" {
		if path, err = storage.DefaultPath(); err != nil {
			return nil, nil, err
		}
	}
	store, err := storage.OpenBolt(path)
	if err != nil {
		return nil, nil, err
	}

	clock := e.clock
	if clock == nil {
		loc, err := cfg.Location()
		if err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		clock = events.NewSystemClock(loc)
	}

	persister := persistence.New(store, nil, zap.NewNop())
	p := planner.New(store, persister, nil, zap.NewNop(),
		planner.WithClock(clock),
		planner.WithSessionLog(store.SessionLog()),
		planner.WithTargetDays(cfg.TargetDays),
	)
	p.Restore(cmd.Context())

	return p, func() {
		persister.Wait()
		if err := store.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to close store: %v\n", err)
		}
	}, nil
}

// render writes v as JSON or YAML, or calls text for the default format.
func (e *env) render(w io.Writer, v any, text func(io.Writer)) error {
	switch e.flags.output {
	case outputText:
		text(w)
		return nil
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		defer func() { _ = enc.Close() }()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", e.flags.output)
	}
}
