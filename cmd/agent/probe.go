package agent

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/resource-monitor/pkg/collector"
	"github.com/resource-monitor/pkg/config"
	"github.com/resource-monitor/pkg/emitter"
	"github.com/resource-monitor/pkg/sampler"
)

// probeCmd 探测各数据源在当前主机上是否可用，不启动采样循环
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Report which metric providers are available on this host",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigWithCli(cmd)
		if err != nil {
			return err
		}
		return runProbe(cmd.OutOrStdout(), cfg.Monitor, collector.NewCgroupReader(nil))
	},
}

func runProbe(w io.Writer, cfg config.MonitorConfig, limits sampler.LimitReader) error {
	mon, err := sampler.New(cfg, zap.NewNop(),
		sampler.WithSink(emitter.NewLoggerSink(zap.NewNop())),
		sampler.WithLimitReader(limits),
	)
	if err != nil {
		return fmt.Errorf("create sampler: %w", err)
	}
	defer func() { _ = mon.Close() }()

	for _, a := range mon.Availability() {
		status := "available"
		if !a.Available {
			status = "unavailable"
		}
		if a.Reason != nil {
			_, _ = fmt.Fprintf(w, "%-8s %s (%v)\n", a.Provider, status, a.Reason)
		} else {
			_, _ = fmt.Fprintf(w, "%-8s %s\n", a.Provider, status)
		}
	}

	limit, err := limits.ReadMemoryLimit()
	switch {
	case err == nil:
		_, _ = fmt.Fprintf(w, "%-8s limit=%d bytes\n", "cgroup", limit)
	case errors.Is(err, collector.ErrUnlimited):
		_, _ = fmt.Fprintf(w, "%-8s unlimited\n", "cgroup")
	default:
		_, _ = fmt.Fprintf(w, "%-8s unavailable (%v)\n", "cgroup", err)
	}
	_, _ = fmt.Fprintf(w, "interval %s\n", mon.Interval())
	return nil
}
