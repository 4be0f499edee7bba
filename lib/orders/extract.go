package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"rapthor-backend/lib/textutil"
	"strings"
)

// Signal is a tri-state structural observation about a row.
type Signal int

const (
	SignalUnknown Signal = iota
	SignalAbsent
	SignalPresent
)

func (s Signal) String() string {
	switch s {
	case SignalAbsent:
		return "absent"
	case SignalPresent:
		return "present"
	default:
		return "unknown"
	}
}

// RawRow is one table row as rendered by the portal.
type RawRow struct {
	Cells []string
	// Action tells whether a "prepare dispatch advice" affordance is scoped to
	// the row, SignalUnknown when the row carries no actionable element at all.
	Action Signal
	// Text is the full rendered text of the row, the cells joined when empty.
	Text string
	// Err is set when the row's markup could not be turned into cells.
	Err error
}

func (r RawRow) text() string {
	if r.Text != "" {
		return r.Text
	}
	return strings.Join(r.Cells, " ")
}

// Width is the number of cells once trailing empty cells are dropped.
func (r RawRow) Width() int {
	n := len(r.Cells)
	for n > 0 && strings.TrimSpace(r.Cells[n-1]) == "" {
		n--
	}
	return n
}

// blankFields reports whether the client through amount cells are all empty.
func (r RawRow) blankFields() bool {
	for i := colClient; i <= colAmount; i++ {
		if r.cell(i) != "" {
			return false
		}
	}
	return true
}

func (r RawRow) cell(i int) string {
	if i >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[i])
}

// MinCells is the narrowest row that can hold an order.
const MinCells = 7

const (
	colNumber = iota
	colClient
	colDeliverySite
	colCreatedDate
	colDeliveryDate
	colGLN
	colAmount
	colStatus
)

// DesadvStrategy decides whether a row still needs a dispatch advice,
// ok is false when the strategy has nothing to go on.
type DesadvStrategy interface {
	Name() string
	Decide(row RawRow) (required bool, ok bool)
}

// StructuralStrategy trusts the row's action affordance when one was observed.
type StructuralStrategy struct{}

func (StructuralStrategy) Name() string {
	return "structural"
}

func (StructuralStrategy) Decide(row RawRow) (bool, bool) {
	switch row.Action {
	case SignalPresent:
		return true, true
	case SignalAbsent:
		return false, true
	}
	return false, false
}

// TextStrategy looks for markers in the status cell, then in the row text.
type TextStrategy struct {
	Markers []string
}

func (TextStrategy) Name() string {
	return "text"
}

func (s TextStrategy) Decide(row RawRow) (bool, bool) {
	if len(s.Markers) == 0 {
		return false, false
	}
	if textutil.ContainsAny(row.cell(colStatus), s.Markers) {
		return true, true
	}
	return textutil.ContainsAny(row.text(), s.Markers), true
}

// DefaultDesadvMarkers are status fragments meaning the dispatch advice is
// still to be produced, compared case and accent insensitively.
var DefaultDesadvMarkers = []string{
	"desadv a faire",
	"desadv a creer",
	"desadv en attente",
	"avis d'expedition a faire",
	"a expedier",
}

var (
	errRowTooNarrow  = fmt.Errorf("row has fewer than %d cells", MinCells)
	errMissingNumber = errors.New("row has no order number")
	errBlankFields   = errors.New("row has no order fields")
)

// RowDecodeError is a row that could not be decoded, extraction carries on
// with the next row.
type RowDecodeError struct {
	Index int
	Err   error
}

func (e RowDecodeError) Error() string {
	return fmt.Sprintf("decode row %d: %s", e.Index, e.Err.Error())
}

func (e RowDecodeError) Unwrap() error {
	return e.Err
}

type ExtractStats struct {
	Rows    int `json:"rows"`
	Decoded int `json:"decoded"`
	// Skipped counts headers, separators and rows without an order number.
	Skipped int     `json:"skipped"`
	Errors  []error `json:"-"`
}

// Extractor turns raw rows into orders.
type Extractor struct {
	Strategies []DesadvStrategy
}

// NewExtractor tries the structural signal first and falls back to
// searching for `markers` in the row's text.
func NewExtractor(markers []string) Extractor {
	if markers == nil {
		markers = DefaultDesadvMarkers
	}
	return Extractor{
		Strategies: []DesadvStrategy{
			StructuralStrategy{},
			TextStrategy{Markers: markers},
		},
	}
}

// Extract decodes orders with the default extractor.
func Extract(ctx context.Context, rows []RawRow) ([]Order, ExtractStats) {
	return NewExtractor(nil).Extract(ctx, rows)
}

// Extract decodes every row independently, keeping the listing's order.
func (x Extractor) Extract(ctx context.Context, rows []RawRow) ([]Order, ExtractStats) {
	stats := ExtractStats{Rows: len(rows)}
	out := make([]Order, 0, len(rows))

	for i, row := range rows {
		order, err := x.decodeRow(row)
		switch {
		case err == nil:
			out = append(out, order)
			stats.Decoded++
		case errors.Is(err, errRowTooNarrow), errors.Is(err, errMissingNumber), errors.Is(err, errBlankFields):
			stats.Skipped++
			slog.DebugContext(ctx, "skip row", "index", i, "width", row.Width(), "reason", err)
		default:
			decodeErr := RowDecodeError{Index: i, Err: err}
			stats.Errors = append(stats.Errors, decodeErr)
			slog.WarnContext(ctx, "failed to decode row", "index", i, "err", err)
		}
	}

	return out, stats
}

func (x Extractor) decodeRow(row RawRow) (order Order, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if row.Err != nil {
		return Order{}, row.Err
	}
	if len(row.Cells) < MinCells {
		return Order{}, errRowTooNarrow
	}
	number := row.cell(colNumber)
	if number == "" {
		return Order{}, errMissingNumber
	}
	if row.blankFields() {
		return Order{}, errBlankFields
	}

	order = Order{
		Number:       number,
		Client:       row.cell(colClient),
		DeliverySite: row.cell(colDeliverySite),
		CreatedDate:  parseDatePtr(row.cell(colCreatedDate)),
		DeliveryDate: parseDatePtr(row.cell(colDeliveryDate)),
		GLN:          row.cell(colGLN),
		Amount:       ParseAmount(row.cell(colAmount)),
		Status:       row.cell(colStatus),
	}
	for _, s := range x.Strategies {
		required, ok := s.Decide(row)
		if ok {
			order.DesadvRequired = required
			break
		}
	}
	return order, nil
}
