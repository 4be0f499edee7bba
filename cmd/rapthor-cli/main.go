package main

import (
	"context"
	"log/slog"
	"os"
	"rapthor-backend/cmd/rapthor-cli/commands"
	"rapthor-backend/lib/serviceutil"
	"rapthor-backend/lib/telemetry"
	"time"
)

func run() int {
	ctx, cancel := serviceutil.SignalContext(context.Background())
	defer cancel()

	err := telemetry.SetupFromEnv(ctx, "rapthor-cli")
	if err != nil {
		slog.Warn("failed to setup telemetry", "err", err)
	}
	defer telemetry.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx, time.Second*10)

	return commands.ExecuteContext(ctx)
}

func main() {
	os.Exit(run())
}
