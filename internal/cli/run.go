package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ghalamif/SimRecorder/pkg/simrecorder"
)

type runOptions struct {
	configPath string
	replay     string
	speed      float64
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start recording with the provided config",
		Long: `Start both recording loops and the configured feed.

Recording stops on SIGINT/SIGTERM, or when a replay reaches the end of its
script. Both change logs are truncated at start.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecorder(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "path to configuration file")
	cmd.Flags().StringVar(&opts.replay, "replay", "", "play this replay script instead of the configured source")
	cmd.Flags().Float64Var(&opts.speed, "speed", 1, "replay speed multiplier (0 = as fast as possible)")

	return cmd
}

func runRecorder(cmd *cobra.Command, rootOpts *RootOptions, opts *runOptions) error {
	cfg, err := loadRunConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger := rootOpts.Logger()
	flow, err := simrecorder.ConfFromConfig(cfg, simrecorder.WithFlowOptions(simrecorder.WithLogger(logger)))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = flow.Run(ctx, simrecorder.StreamOutExceptionHandler(func(err error) {
		var loopErr *simrecorder.LoopError
		if errors.As(err, &loopErr) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s loop stopped: %v\n", loopErr.Loop, loopErr.Err)
		}
	}))
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "session info: %s\ntelemetry:    %s\n",
		cfg.Recorder.SessionInfoPath, cfg.Recorder.TelemetryPath)
	return nil
}

// loadRunConfig applies --replay and --speed on top of the config file. With
// --replay and no explicit --config the defaults are used.
func loadRunConfig(cmd *cobra.Command, opts *runOptions) (*simrecorder.Config, error) {
	if opts.replay != "" && !cmd.Flags().Changed("config") {
		raw := fmt.Sprintf("source: {kind: %s}\nreplay: {path: %q, speed: %g}\n",
			simrecorder.SourceReplay, opts.replay, opts.speed)
		cfg, err := simrecorder.ParseConfig([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("replay config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := simrecorder.LoadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.replay == "" {
		return cfg, nil
	}
	speed := opts.speed
	cfg.Source.Kind = simrecorder.SourceReplay
	cfg.Replay.Path = opts.replay
	cfg.Replay.Speed = &speed
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("replay config: %w", err)
	}
	return cfg, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
