package orders

import (
	"fmt"
	"rapthor-backend/lib/timezone"
	"slices"
	"strings"
	"time"

	"github.com/govalues/decimal"
)

// FilterInWindow keeps the orders delivered within [start, end], both bounds
// included and compared by calendar day. Orders without a delivery date are
// dropped.
func FilterInWindow(orders []Order, start, end time.Time) []Order {
	start = timezone.Day(start)
	end = timezone.Day(end)

	var out []Order
	for _, o := range orders {
		if o.DeliveryDate == nil {
			continue
		}
		day := timezone.Day(*o.DeliveryDate)
		if day.Before(start) || day.After(end) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func FilterDesadvPending(orders []Order) []Order {
	var out []Order
	for _, o := range orders {
		if o.DesadvRequired {
			out = append(out, o)
		}
	}
	return out
}

// FilterAboveThreshold keeps orders strictly above the threshold.
func FilterAboveThreshold(orders []Order, threshold decimal.Decimal) []Order {
	var out []Order
	for _, o := range orders {
		if o.Amount.Cmp(threshold) > 0 {
			out = append(out, o)
		}
	}
	return out
}

// AggregateByClient groups orders by exact client name. Order numbers keep
// the order in which they were encountered.
func AggregateByClient(orders []Order) (map[string]ClientTotal, error) {
	totals := make(map[string]ClientTotal)
	for _, o := range orders {
		total, ok := totals[o.Client]
		if !ok {
			total = ClientTotal{Client: o.Client}
		}

		sum, err := total.TotalAmount.Add(o.Amount)
		if err != nil {
			return nil, fmt.Errorf("total for client %q: %w", o.Client, err)
		}
		total.TotalAmount = sum
		total.OrderCount++
		total.OrderNumbers = append(total.OrderNumbers, o.Number)

		totals[o.Client] = total
	}
	return totals, nil
}

// SortedTotals lists totals by descending amount, ties by client name.
func SortedTotals(totals map[string]ClientTotal) []ClientTotal {
	out := make([]ClientTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b ClientTotal) int {
		if c := b.TotalAmount.Cmp(a.TotalAmount); c != 0 {
			return c
		}
		return strings.Compare(a.Client, b.Client)
	})
	return out
}
