package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/logrename/internal/config"
	"github.com/roach88/logrename/internal/engine"
	"github.com/roach88/logrename/internal/program"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Config is an optional .cue, .toml or .yaml options file. Flags
	// below override its fields.
	Config      string
	TargetClass string
	FactoryRef  string
	LocationRef string

	// SessionIDs overrides the session ID generator (for testing).
	// If nil, engines use UUIDv7Generator.
	SessionIDs engine.SessionIDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the logrename CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "logrename",
		Short: "Recover obfuscated names from logging calls",
		Long: `Recover class and method names in obfuscated programs from the string
literals passed to logging helpers.

A logger factory call in a static initializer or constructor carries the
class name. A log-site setter call carries the class name and the name of
the enclosing method. Both refs may be configured or discovered from the
logging library's structure.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			configureLogging(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "options file (.cue, .toml, .yaml)")
	cmd.PersistentFlags().StringVar(&opts.TargetClass, "target-class", "", "class for the gated per-class pass")
	cmd.PersistentFlags().StringVar(&opts.FactoryRef, "factory-ref", "", "logger factory method ref (empty: discover)")
	cmd.PersistentFlags().StringVar(&opts.LocationRef, "location-ref", "", "log-site setter method ref (empty: discover)")

	cmd.AddCommand(NewRenameCommand(opts))
	cmd.AddCommand(NewClassCommand(opts))
	cmd.AddCommand(NewDiscoverCommand(opts))
	cmd.AddCommand(NewJournalCommand(opts))

	return cmd
}

// EngineOptions layers the config file and flags over the defaults.
func (o *RootOptions) EngineOptions() (config.Options, error) {
	opts := config.Default()
	if o.Config != "" {
		loaded, err := config.LoadFile(o.Config)
		if err != nil {
			return config.Options{}, err
		}
		opts = loaded
	}
	return opts.Merge(config.Options{
		TargetClass:       o.TargetClass,
		FactoryMethodRef:  o.FactoryRef,
		LocationMethodRef: o.LocationRef,
	}), nil
}

// formatter returns an OutputFormatter writing to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// load reads the options and the program dump shared by every
// engine-backed command.
func (o *RootOptions) load(dumpPath string) (config.Options, *program.Program, error) {
	cfg, err := o.EngineOptions()
	if err != nil {
		return config.Options{}, nil, WrapExitError(ExitCommandError, "failed to load options", err)
	}
	slog.Debug("loading program", "path", dumpPath)
	prog, err := program.LoadFile(dumpPath)
	if err != nil {
		return config.Options{}, nil, WrapExitError(ExitCommandError, "failed to load program", err)
	}
	slog.Debug("program loaded", "classes", len(prog.Classes()))
	return cfg, prog, nil
}

func (o *RootOptions) engineOptions() []engine.Option {
	if o.SessionIDs == nil {
		return nil
	}
	return []engine.Option{engine.WithSessionIDs(o.SessionIDs)}
}

func configureLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// commandContext returns the command's context, cancelled on SIGINT or
// SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
