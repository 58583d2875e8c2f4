package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ghalamif/SimRecorder/internal/adapters/replay"
	"github.com/ghalamif/SimRecorder/pkg/simrecorder"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate a config file without recording",
		Long: `Load and validate a config file without recording.

For the replay source the script is compiled as well, so frame errors are
reported before a run.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := simrecorder.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("config %s: %w", configPath, err)
			}
			rootOpts.Logger().Debug("config loaded", "path", configPath, "source", cfg.Source.Kind)

			out := cmd.OutOrStdout()
			switch cfg.Source.Kind {
			case simrecorder.SourceReplay:
				script, err := replay.Load(cfg.Replay.Path)
				if err != nil {
					return fmt.Errorf("replay %s: %w", cfg.Replay.Path, err)
				}
				fmt.Fprintf(out, "source:  replay %s (%d channels, %d frames, %d Hz)\n",
					cfg.Replay.Path, len(script.Channels), len(script.Frames), script.TickRate)
			case simrecorder.SourceOPCUA:
				fmt.Fprintf(out, "source:  opcua %s (%d nodes)\n", cfg.OPCUA.Endpoint, len(cfg.OPCUA.Nodes))
			}
			fmt.Fprintf(out, "logs:    %s, %s\n", cfg.Recorder.SessionInfoPath, cfg.Recorder.TelemetryPath)
			fmt.Fprintf(out, "config %s looks good\n", configPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to configuration file")

	return cmd
}
