package atgpedi

import "rapthor-backend/lib/telemetry"

var tracer = telemetry.Tracer("rapthor.lib.scrapers.atgpedi")
