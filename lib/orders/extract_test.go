package orders

import (
	"context"
	"errors"
	"rapthor-backend/lib/timezone"
	"testing"
	"time"

	"github.com/govalues/decimal"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, timezone.Location)
	return &t
}

func TestExtractPositionalMapping(t *testing.T) {
	rows := []RawRow{
		{
			Cells: []string{
				"0040484892", " Auchan France ", "Site A", "26/11/2025",
				"03/12/2025", "GLN1", "1 779,00 €", "Nouveau",
			},
			Action: SignalAbsent,
		},
	}

	orders, stats := Extract(context.Background(), rows)
	require.Len(t, orders, 1)
	require.Equal(t, 1, stats.Decoded)

	o := orders[0]
	require.Equal(t, "0040484892", o.Number)
	require.Equal(t, "Auchan France", o.Client)
	require.Equal(t, "Site A", o.DeliverySite)
	require.Equal(t, date(2025, time.November, 26), o.CreatedDate)
	require.Equal(t, date(2025, time.December, 3), o.DeliveryDate)
	require.Equal(t, "GLN1", o.GLN)
	require.Zero(t, o.Amount.Cmp(decimal.MustParse("1779")))
	require.Equal(t, "Nouveau", o.Status)
	require.False(t, o.DesadvRequired)
}

func TestExtractSkipsNarrowRows(t *testing.T) {
	rows := []RawRow{
		{Cells: []string{"N°", "Client", "Site"}},
		{Cells: []string{"bad", "", "", "", "", "", "", ""}},
		{Cells: []string{"", "Auchan", "Site", "01/12/2025", "02/12/2025", "GLN", "10,00"}},
		{Cells: []string{"1", "Auchan", "", "01/12/2025", "02/12/2025", "", "10,00"}},
		{},
	}

	orders, stats := Extract(context.Background(), rows)
	require.Len(t, orders, 1)
	require.Equal(t, "1", orders[0].Number)
	require.Equal(t, "", orders[0].Status)
	require.Equal(t, ExtractStats{Rows: 5, Decoded: 1, Skipped: 4}, stats)
}

func TestExtractKeepsBlankAmountRows(t *testing.T) {
	rows := []RawRow{
		{Cells: []string{"40484892", "Auchan France", "Site A", "26/11/2025", "03/12/2025", "GLN1", ""}},
		{Cells: []string{"40484893", "", "", "", "", "", "", "Nouveau"}},
	}

	orders, stats := Extract(context.Background(), rows)
	require.Len(t, orders, 1)
	require.Equal(t, "40484892", orders[0].Number)
	require.Equal(t, "Auchan France", orders[0].Client)
	require.True(t, orders[0].Amount.IsZero())
	require.Equal(t, ExtractStats{Rows: 2, Decoded: 1, Skipped: 1}, stats)
}

func TestExtractKeepsGoingAfterBadRow(t *testing.T) {
	rows := []RawRow{
		{Cells: []string{"1", "A", "", "", "", "", "1,00"}},
		{Err: errors.New("unreadable colspan")},
		{Cells: []string{"2", "B", "", "", "", "", "2,00"}},
	}

	orders, stats := Extract(context.Background(), rows)
	require.Len(t, orders, 2)
	require.Equal(t, "1", orders[0].Number)
	require.Equal(t, "2", orders[1].Number)
	require.Len(t, stats.Errors, 1)

	var decodeErr RowDecodeError
	require.ErrorAs(t, stats.Errors[0], &decodeErr)
	require.Equal(t, 1, decodeErr.Index)
}

type panickingStrategy struct{}

func (panickingStrategy) Name() string { return "panic" }

func (panickingStrategy) Decide(row RawRow) (bool, bool) {
	if row.Cells[0] == "boom" {
		panic("boom")
	}
	return false, false
}

func TestExtractRecoversFromStrategyPanic(t *testing.T) {
	x := Extractor{Strategies: []DesadvStrategy{panickingStrategy{}}}
	rows := []RawRow{
		{Cells: []string{"boom", "A", "", "", "", "", "1,00"}},
		{Cells: []string{"ok", "A", "", "", "", "", "1,00"}},
	}

	orders, stats := x.Extract(context.Background(), rows)
	require.Len(t, orders, 1)
	require.Equal(t, "ok", orders[0].Number)
	require.Len(t, stats.Errors, 1)
}

func TestUnparsableFieldsAreRecoverable(t *testing.T) {
	rows := []RawRow{
		{Cells: []string{"7", "A", "", "soon", "??", "", "n/a", "Nouveau"}},
	}
	orders, _ := Extract(context.Background(), rows)
	require.Len(t, orders, 1)
	require.Nil(t, orders[0].CreatedDate)
	require.Nil(t, orders[0].DeliveryDate)
	require.Zero(t, orders[0].Amount.Sign())
}

func TestStructuralStrategy(t *testing.T) {
	s := StructuralStrategy{}

	required, ok := s.Decide(RawRow{Action: SignalPresent})
	require.True(t, ok)
	require.True(t, required)

	required, ok = s.Decide(RawRow{Action: SignalAbsent, Text: "DESADV"})
	require.True(t, ok)
	require.False(t, required)

	_, ok = s.Decide(RawRow{Action: SignalUnknown})
	require.False(t, ok)
}

func TestTextStrategy(t *testing.T) {
	s := TextStrategy{Markers: DefaultDesadvMarkers}

	required, ok := s.Decide(RawRow{Cells: []string{"1", "A", "", "", "", "", "", "DESADV à faire"}})
	require.True(t, ok)
	require.True(t, required)

	required, ok = s.Decide(RawRow{
		Cells: []string{"1", "A", "", "", "", "", "", "Accepté"},
		Text:  "1 A Accepté À expédier",
	})
	require.True(t, ok)
	require.True(t, required)

	required, ok = s.Decide(RawRow{Cells: []string{"1", "A", "", "", "", "", "", "Nouveau"}})
	require.True(t, ok)
	require.False(t, required)

	_, ok = TextStrategy{}.Decide(RawRow{Text: "desadv"})
	require.False(t, ok)
}

func TestStructuralSignalWinsOverText(t *testing.T) {
	rows := []RawRow{
		// the status mentions desadv but the action was already taken
		{Cells: []string{"1", "A", "", "", "", "", "1,00", "DESADV envoyé"}, Action: SignalAbsent},
		{Cells: []string{"2", "A", "", "", "", "", "1,00", "DESADV à faire"}, Action: SignalUnknown},
	}
	orders, _ := Extract(context.Background(), rows)
	require.False(t, orders[0].DesadvRequired)
	require.True(t, orders[1].DesadvRequired)
}

func TestRecord(t *testing.T) {
	o := Order{
		Number:         "0042",
		Client:         "Auchan France",
		DeliveryDate:   date(2025, time.December, 3),
		Amount:         decimal.MustParse("1779.00"),
		DesadvRequired: true,
	}
	require.Equal(t, len(Header), len(o.Record()))
	require.Equal(t, []string{
		"0042", "Auchan France", "", "", "03/12/2025", "", "1779.00", "", "true",
	}, o.Record())
}
