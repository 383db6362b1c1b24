package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/logrename/internal/engine"
)

// ClassOptions holds flags for the class command.
type ClassOptions struct {
	*RootOptions
	Output string
}

// ClassReport is the class command's result.
type ClassReport struct {
	engine.ClassResult
	Name   string   `json:"name"`
	Errors []string `json:"errors,omitempty"`
}

// NewClassCommand creates the class command.
func NewClassCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClassOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "class <dump> <name>",
		Short: "Recover names in one class",
		Long: `Process one class now, regardless of --target-class.

The class is found by dotted, slashed or descriptor name, under its
original or current name. Non-fatal failures (undecodable methods,
rejected names) are listed with the result.

Examples:
  logrename class app.yaml o.a
  logrename class app.yaml com/foo/Bar --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClass(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the renamed program to this path")

	return cmd
}

func runClass(opts *ClassOptions, dumpPath, name string, cmd *cobra.Command) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	cfg, prog, err := opts.load(dumpPath)
	if err != nil {
		return err
	}

	eng := engine.New(prog, cfg, opts.engineOptions()...)
	cls, err := eng.FindClass(name)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find class", err)
	}

	res, err := eng.ProcessClass(ctx, cls)
	if err != nil {
		return WrapExitError(ExitFailure, "class failed", err)
	}
	if res.Changed {
		prog.RegroupPackages()
	}

	if opts.Output != "" {
		if err := prog.SaveFile(opts.Output); err != nil {
			return WrapExitError(ExitCommandError, "failed to write program", err)
		}
	}

	report := ClassReport{ClassResult: res, Name: cls.FullName()}
	for _, e := range res.Errors {
		report.Errors = append(report.Errors, e.Error())
	}
	return opts.formatter(cmd).Render(report, func(w io.Writer) {
		fmt.Fprintf(w, "%s -> %s\n", res.Class, cls.FullName())
		writeEvents(w, res.Events)
		writeErrors(w, res.Errors)
		if !res.Changed {
			noteColor.Fprintln(w, "No names recovered")
		}
	})
}
