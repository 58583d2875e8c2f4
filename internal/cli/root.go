// Package cli implements the simrec command tree.
package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "./data/config.yaml"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool

	logger *slog.Logger
}

// Logger is configured by the root command before any subcommand runs.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		return slog.Default()
	}
	return o.logger
}

// NewRootCommand creates the root command for the simrec CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "simrec",
		Short: "SimRecorder - racing simulator change recorder",
		Long: `Records session info and telemetry changes from a racing simulator
into two human-readable change logs.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))

	return cmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
