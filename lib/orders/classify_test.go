package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/require"
)

func numbers(orders []Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.Number
	}
	return out
}

func TestFilterInWindow(t *testing.T) {
	orders := []Order{
		{Number: "before", DeliveryDate: date(2025, time.November, 30)},
		{Number: "start", DeliveryDate: date(2025, time.December, 1)},
		{Number: "middle", DeliveryDate: date(2025, time.December, 3)},
		{Number: "end", DeliveryDate: date(2025, time.December, 7)},
		{Number: "after", DeliveryDate: date(2025, time.December, 8)},
		{Number: "undated"},
	}

	start := *date(2025, time.December, 1)
	// the end bound is inclusive even when it carries a time of day
	end := date(2025, time.December, 7).Add(time.Hour * 15)

	got := FilterInWindow(orders, start, end)
	require.Equal(t, []string{"start", "middle", "end"}, numbers(got))
}

func TestFilterDesadvPending(t *testing.T) {
	orders := []Order{
		{Number: "1", DesadvRequired: true},
		{Number: "2"},
		{Number: "3", DesadvRequired: true},
	}
	require.Equal(t, []string{"1", "3"}, numbers(FilterDesadvPending(orders)))
	require.Empty(t, FilterDesadvPending(nil))
}

func TestFilterAboveThreshold(t *testing.T) {
	orders := []Order{
		{Number: "equal", Amount: decimal.MustParse("850.00")},
		{Number: "above", Amount: decimal.MustParse("850.01")},
		{Number: "below", Amount: decimal.MustParse("849.99")},
		{Number: "zero"},
	}
	got := FilterAboveThreshold(orders, decimal.MustParse("850"))
	require.Equal(t, []string{"above"}, numbers(got))
}

func TestAggregateByClient(t *testing.T) {
	orders := []Order{
		{Number: "3", Client: "Auchan France", Amount: decimal.MustParse("100.50")},
		{Number: "1", Client: "Auchan Super", Amount: decimal.MustParse("20")},
		{Number: "2", Client: "Auchan France", Amount: decimal.MustParse("0.50")},
		{Number: "4", Client: "auchan france", Amount: decimal.MustParse("1")},
	}

	totals, err := AggregateByClient(orders)
	require.NoError(t, err)
	require.Len(t, totals, 3)

	france := totals["Auchan France"]
	require.Equal(t, 2, france.OrderCount)
	require.Equal(t, []string{"3", "2"}, france.OrderNumbers)
	require.Zero(t, france.TotalAmount.Cmp(decimal.MustParse("101")))

	for _, total := range totals {
		require.Equal(t, total.OrderCount, len(total.OrderNumbers))
	}

	again, err := AggregateByClient(orders)
	require.NoError(t, err)
	if diff := cmp.Diff(totals, again, cmp.AllowUnexported(decimal.Decimal{})); diff != "" {
		t.Fatalf("aggregation is not idempotent (-first +second):\n%s", diff)
	}
}

func TestSortedTotals(t *testing.T) {
	totals := map[string]ClientTotal{
		"B": {Client: "B", TotalAmount: decimal.MustParse("10")},
		"A": {Client: "A", TotalAmount: decimal.MustParse("10")},
		"C": {Client: "C", TotalAmount: decimal.MustParse("99")},
	}
	sorted := SortedTotals(totals)
	require.Equal(t, "C", sorted[0].Client)
	require.Equal(t, "A", sorted[1].Client)
	require.Equal(t, "B", sorted[2].Client)
}

func TestEndToEndClassification(t *testing.T) {
	rows := []RawRow{
		{
			Cells:  []string{"40484892", "Auchan France", "Site A", "26/11/2025", "03/12/2025", "GLN1", "1 779,00 €", "Nouveau"},
			Action: SignalAbsent,
		},
		{
			Cells:  []string{"40483812", "Auchan Super", "Site B", "25/11/2025", "01/12/2025", "GLN2", "540,50 €", "Accepté"},
			Action: SignalPresent,
		},
		{
			Cells: []string{"bad", "", "", "", "", "", "", ""},
		},
	}

	orders, _ := Extract(context.Background(), rows)
	require.Len(t, orders, 2)

	high := FilterAboveThreshold(orders, decimal.MustParse("850"))
	require.Equal(t, []string{"40484892"}, numbers(high))

	pending := FilterDesadvPending(orders)
	require.Equal(t, []string{"40483812"}, numbers(pending))

	totals, err := AggregateByClient(orders)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	for _, total := range totals {
		require.Equal(t, 1, total.OrderCount)
	}
}
