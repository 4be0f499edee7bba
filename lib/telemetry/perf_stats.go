package telemetry

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

var perfMeter = Meter("rapthor.perf_stats")
var cpuGauge, _ = perfMeter.Float64Gauge("process_cpu_percent")
var rssGauge, _ = perfMeter.Int64Gauge("process_rss_mb")
var memoryGauge, _ = perfMeter.Int64Gauge("allocated_mb")
var goroutineGauge, _ = perfMeter.Int64Gauge("goroutine_count")

// InstrumentPerfStats samples the resource usage of the current process
// every interval until ctx is done.
func InstrumentPerfStats(ctx context.Context, interval time.Duration) {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		slog.WarnContext(ctx, "perf stats disabled", "err", err)
		return
	}

	go func() {
		var memStats runtime.MemStats
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runtime.ReadMemStats(&memStats)
				memoryGauge.Record(ctx, int64(memStats.Alloc/1_000_000))
				goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))

				cpuUsage, err := proc.CPUPercentWithContext(ctx)
				if err != nil {
					slog.DebugContext(ctx, "failed to read cpu usage", "err", err)
				} else {
					cpuGauge.Record(ctx, cpuUsage)
				}
				mem, err := proc.MemoryInfoWithContext(ctx)
				if err != nil {
					slog.DebugContext(ctx, "failed to read memory usage", "err", err)
				} else {
					rssGauge.Record(ctx, int64(mem.RSS/1_000_000))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
