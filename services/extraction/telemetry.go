package extraction

import (
	"rapthor-backend/lib/telemetry"

	"go.opentelemetry.io/otel/metric"
)

const library_name = "rapthor.services.extraction"

var (
	tracer = telemetry.Tracer(library_name)
	meter  = telemetry.Meter(library_name)
)

var (
	runsCounter, _ = meter.Int64Counter(
		"runs",
		metric.WithDescription("extraction runs by outcome"),
	)
	ordersCounter, _ = meter.Int64Counter(
		"orders_extracted",
		metric.WithDescription("orders decoded from the listing"),
	)
	skippedCounter, _ = meter.Int64Counter(
		"rows_skipped",
		metric.WithDescription("listing rows skipped or failing to decode"),
	)
)
