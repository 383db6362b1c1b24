package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/logrename/internal/engine"
)

// RefReport describes how one ref was resolved, or why its category is
// inert.
type RefReport struct {
	Ref      string `json:"ref,omitempty"`
	Source   string `json:"source,omitempty"`
	Ancestor string `json:"ancestor,omitempty"`
	Code     string `json:"code,omitempty"`
	Error    string `json:"error,omitempty"`
}

// DiscoverResult is the discover command's result.
type DiscoverResult struct {
	SessionID string    `json:"session_id"`
	Factory   RefReport `json:"factory"`
	Location  RefReport `json:"location"`
}

// NewDiscoverCommand creates the discover command.
func NewDiscoverCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover <dump>",
		Short: "Resolve the factory and log-site refs",
		Long: `Resolve the logger factory and log-site setter refs without renaming.

Configured refs are parsed; empty ones are discovered from the logging
library classes in the dump. A category that cannot be resolved is
reported with its error code and stays inert during renaming; this is
not a command failure.

Examples:
  logrename discover app.yaml
  logrename discover app.yaml --factory-ref 'a/B->c(Ljava/lang/String;)La/B;'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runDiscover(opts *RootOptions, dumpPath string, cmd *cobra.Command) error {
	cfg, prog, err := opts.load(dumpPath)
	if err != nil {
		return err
	}

	session := engine.New(prog, cfg, opts.engineOptions()...).Session()
	result := DiscoverResult{SessionID: session.ID}

	if f, err := session.Factory(); err != nil {
		result.Factory = failedRef(err)
	} else {
		result.Factory = RefReport{Ref: f.Ref.String(), Source: string(f.Source)}
	}
	if l, err := session.Location(); err != nil {
		result.Location = failedRef(err)
	} else {
		result.Location = RefReport{Ref: l.Ref.String(), Source: string(l.Source), Ancestor: l.Ancestor}
	}

	return opts.formatter(cmd).Render(result, func(w io.Writer) {
		writeRef(w, "factory ", result.Factory)
		writeRef(w, "location", result.Location)
	})
}

func failedRef(err error) RefReport {
	return RefReport{Code: string(engine.CodeOf(err)), Error: err.Error()}
}

func writeRef(w io.Writer, label string, r RefReport) {
	if r.Error != "" {
		fmt.Fprintf(w, "%s  %s\n", classColor.Sprint(label), errorColor.Sprintf("inert: %s", r.Error))
		return
	}
	note := r.Source
	if r.Ancestor != "" {
		note += ", owner <: " + r.Ancestor
	}
	fmt.Fprintf(w, "%s  %s  %s\n", classColor.Sprint(label), r.Ref, noteColor.Sprintf("(%s)", note))
}
