// Package export writes extraction results to files people open: CSV for
// other tools, an XLSX report for humans, optionally sent by mail.
package export

import (
	"fmt"
	"rapthor-backend/lib/orders"
	"rapthor-backend/lib/telemetry"
	"rapthor-backend/lib/timezone"
	"time"

	"github.com/govalues/decimal"
)

var tracer = telemetry.Tracer("rapthor.lib.export")

// Report is the content of an XLSX report.
type Report struct {
	Date            time.Time
	Threshold       decimal.Decimal
	Orders          []orders.Order
	DesadvPending   []orders.Order
	HighValueOrders []orders.Order
	Totals          []orders.ClientTotal
}

// ReportFilename names the report of a given day, RAPTHOR_DESADV_YYYYMMDD.xlsx.
func ReportFilename(day time.Time) string {
	return fmt.Sprintf("RAPTHOR_DESADV_%s.xlsx", day.In(timezone.Location).Format("20060102"))
}
