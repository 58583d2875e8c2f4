package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/ghalamif/SimRecorder/internal/ports"
)

type statsOptions struct {
	url      string
	interval time.Duration
	once     bool
}

// statsMetrics are printed in this order.
var statsMetrics = []struct {
	label string
	name  string
}{
	{"session_batches", ports.MetricSessionInfoBatches},
	{"session_changes", ports.MetricSessionInfoChanges},
	{"telemetry_batches", ports.MetricTelemetryBatches},
	{"telemetry_changes", ports.MetricTelemetryChanges},
	{"channels", ports.MetricChannelsTracked},
	{"failures", ports.MetricLoopFailures},
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &statsOptions{}

	cmd := &cobra.Command{
		Use:          "stats",
		Short:        "Poll the metrics endpoint and print recorder counters",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.once {
				return printSnapshot(cmd.OutOrStdout(), opts.url)
			}
			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return streamStats(ctx, cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	cmd.Flags().DurationVar(&opts.interval, "interval", 2*time.Second, "refresh interval")
	cmd.Flags().BoolVar(&opts.once, "once", false, "print a single snapshot and exit")

	return cmd
}

func streamStats(ctx context.Context, cmd *cobra.Command, rootOpts *RootOptions, opts *statsOptions) error {
	if opts.interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", opts.interval)
	}
	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Streaming metrics from %s (Ctrl+C to stop)\n", opts.url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printSnapshot(cmd.OutOrStdout(), opts.url); err != nil {
				rootOpts.Logger().Warn("stats poll failed", "url", opts.url, "err", err)
			}
		}
	}
}

func printSnapshot(w io.Writer, url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	values, err := parseMetrics(resp.Body)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "[%s]", time.Now().Format(time.RFC3339))
	for _, m := range statsMetrics {
		fmt.Fprintf(w, " %s=%g", m.label, values[m.name])
	}
	fmt.Fprintln(w)
	return nil
}

// parseMetrics sums every series of the recorder counters and gauges found
// in a text exposition. Missing metrics read as zero.
func parseMetrics(r io.Reader) (map[string]float64, error) {
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(r)
	if err != nil {
		return nil, fmt.Errorf("parse metrics: %w", err)
	}

	values := make(map[string]float64, len(statsMetrics))
	for _, m := range statsMetrics {
		mf, ok := families[m.name]
		if !ok {
			continue
		}
		for _, metric := range mf.GetMetric() {
			values[m.name] += sampleValue(mf.GetType(), metric)
		}
	}
	return values, nil
}

func sampleValue(t dto.MetricType, m *dto.Metric) float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_UNTYPED:
		return m.GetUntyped().GetValue()
	default:
		return 0
	}
}
