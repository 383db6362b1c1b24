package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/logrename/internal/engine"
	"github.com/roach88/logrename/internal/store"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Database string
	Session  string
	Class    string
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List journaled sessions and renames",
		Long: `List the sessions recorded in a rename journal.

With --session, list that session's renames in the order they were
applied. With --class, list every rename of one class across sessions.

Examples:
  logrename journal --db ./renames.db
  logrename journal --db ./renames.db --session 0190d2c4-...
  logrename journal --db ./renames.db --class o.a --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite rename journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "list renames of one session")
	cmd.Flags().StringVar(&opts.Class, "class", "", "list renames of one class (raw name)")
	cmd.MarkFlagsMutuallyExclusive("session", "class")

	return cmd
}

func runJournal(opts *JournalOptions, cmd *cobra.Command) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	out := opts.formatter(cmd)

	switch {
	case opts.Session != "":
		events, err := st.ListRenames(ctx, opts.Session)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list renames", err)
		}
		return out.Render(events, func(w io.Writer) {
			if len(events) == 0 {
				fmt.Fprintf(w, "No renames found for session: %s\n", opts.Session)
				return
			}
			writeEvents(w, events)
		})

	case opts.Class != "":
		history, err := st.ClassHistory(ctx, opts.Class)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list class history", err)
		}
		return out.Render(history, func(w io.Writer) {
			if len(history) == 0 {
				fmt.Fprintf(w, "No renames found for class: %s\n", opts.Class)
				return
			}
			for _, r := range history {
				noteColor.Fprintf(w, "%s ", r.SessionID)
				writeEvents(w, []engine.RenameEvent{r.RenameEvent})
			}
		})

	default:
		sessions, err := st.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		return out.Render(sessions, func(w io.Writer) {
			if len(sessions) == 0 {
				fmt.Fprintln(w, "No sessions recorded")
				return
			}
			for _, s := range sessions {
				fmt.Fprintf(w, "%s", classColor.Sprint(s.ID))
				if s.TargetClass != "" {
					fmt.Fprintf(w, "  target=%s", s.TargetClass)
				}
				fmt.Fprintln(w)
				writeSessionRef(w, "factory ", s.FactoryRef, s.FactorySource, s.FactoryError)
				writeSessionRef(w, "location", s.LocationRef, s.LocationSource, s.LocationError)
			}
		})
	}
}

func writeSessionRef(w io.Writer, label, ref, source, errText string) {
	if errText != "" {
		fmt.Fprintf(w, "  %s  %s\n", label, errorColor.Sprint(errText))
		return
	}
	fmt.Fprintf(w, "  %s  %s  %s\n", label, ref, noteColor.Sprintf("(%s)", source))
}
