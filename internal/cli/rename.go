package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/logrename/internal/engine"
	"github.com/roach88/logrename/internal/store"
)

// RenameOptions holds flags for the rename command.
type RenameOptions struct {
	*RootOptions
	Database    string
	Output      string
	MetricsFile string
}

// NewRenameCommand creates the rename command.
func NewRenameCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenameOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rename <dump>",
		Short: "Recover names across a program",
		Long: `Process every class of a program dump and apply the recovered names.

With --target-class, only the matching class is processed, as a host does
when it visits classes one at a time during load.

Renames are journaled when --db is given. The renamed program is written
to --output in the format its extension names.

Examples:
  logrename rename app.yaml -o app.renamed.yaml
  logrename rename app.msgpack --db ./renames.db --metrics-file renames.prom
  logrename rename app.yaml --target-class Main --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRename(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite rename journal")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the renamed program to this path")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics in textfile format")

	return cmd
}

func runRename(opts *RenameOptions, dumpPath string, cmd *cobra.Command) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	cfg, prog, err := opts.load(dumpPath)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	options := append(opts.engineOptions(), engine.WithMetrics(engine.NewMetrics(reg)))

	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		options = append(options, engine.WithJournal(st))
	}

	eng := engine.New(prog, cfg, options...)

	var sum engine.Summary
	if cfg.TargetClass != "" {
		sum, err = eng.VisitAll(ctx)
	} else {
		sum, err = eng.ProcessAll(ctx)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "rename pass failed", err)
	}

	if opts.Output != "" {
		if err := prog.SaveFile(opts.Output); err != nil {
			return WrapExitError(ExitCommandError, "failed to write program", err)
		}
		slog.Debug("program written", "path", opts.Output)
	}
	if opts.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsFile, reg); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
	}

	err = opts.formatter(cmd).Render(sum, func(w io.Writer) {
		writeSummary(w, sum)
	})
	if err != nil {
		return err
	}

	if sum.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d classes failed", sum.Failed, sum.Scanned))
	}
	return nil
}

func writeSummary(w io.Writer, sum engine.Summary) {
	fmt.Fprintf(w, "Session %s\n", sum.SessionID)
	writeEvents(w, sum.Events)
	fmt.Fprintf(w, "Scanned %d classes, renamed %d, failed %d\n", sum.Scanned, sum.Changed, sum.Failed)
}
