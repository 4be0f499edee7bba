package atgpedi

import (
	"fmt"
	"rapthor-backend/lib/htmlutil"
	"rapthor-backend/lib/orders"
	"rapthor-backend/lib/textutil"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const actionSelector = "a, button, input[type=button], input[type=submit], [onclick]"

// maxColspan bounds the cells a single td can expand to.
const maxColspan = 64

// HasListing reports whether the document renders a table wide enough to
// hold orders, header rows count.
func HasListing(doc *goquery.Document) bool {
	found := false
	doc.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if row.ChildrenFiltered("td, th").Length() >= orders.MinCells {
			found = true
			return false
		}
		return true
	})
	return found
}

func isAffordance(el *goquery.Selection, markers []string) bool {
	parts := []string{
		el.AttrOr("href", ""),
		el.AttrOr("onclick", ""),
		el.AttrOr("title", ""),
		el.AttrOr("value", ""),
		el.AttrOr("class", ""),
		htmlutil.SelectionText(el),
	}
	return textutil.ContainsAny(strings.Join(parts, " "), markers)
}

func expandCells(row *goquery.Selection) ([]string, error) {
	var cells []string
	var err error
	row.ChildrenFiltered("td, th").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		cells = append(cells, htmlutil.SelectionText(cell))

		span, ok := cell.Attr("colspan")
		if !ok {
			return true
		}
		n, convErr := strconv.Atoi(strings.TrimSpace(span))
		if convErr != nil || n < 1 || n > maxColspan {
			err = fmt.Errorf("invalid colspan %q", span)
			return false
		}
		for i := 1; i < n; i++ {
			cells = append(cells, "")
		}
		return true
	})
	return cells, err
}

type decodedRow struct {
	table *html.Node
	raw   orders.RawRow
}

func closestTable(row *goquery.Selection) *html.Node {
	table := row.Closest("table")
	if table.Length() == 0 {
		return nil
	}
	return table.Get(0)
}

// DecodeRows reads the listing's rows with the first selector that matches
// any data row. Header-only rows (th cells only) are left out.
//
// A row holding an element that matches `actionMarkers` gets SignalPresent.
// A row without one is SignalAbsent when another row of the same table
// shows the affordance, otherwise SignalUnknown: the portal renders no such
// element anywhere and the row's text has to decide.
func DecodeRows(doc *goquery.Document, selectors []string, actionMarkers []string) []orders.RawRow {
	var rows []decodedRow
	for _, selector := range selectors {
		doc.Find(selector).Each(func(_ int, row *goquery.Selection) {
			if row.ChildrenFiltered("td").Length() == 0 {
				return
			}

			cells, err := expandCells(row)
			raw := orders.RawRow{
				Cells:  cells,
				Text:   htmlutil.SelectionText(row),
				Err:    err,
				Action: orders.SignalUnknown,
			}

			if row.Find(actionSelector).FilterFunction(func(_ int, el *goquery.Selection) bool {
				return isAffordance(el, actionMarkers)
			}).Length() > 0 {
				raw.Action = orders.SignalPresent
			}

			rows = append(rows, decodedRow{
				table: closestTable(row),
				raw:   raw,
			})
		})
		if len(rows) > 0 {
			break
		}
	}

	tablesWithAffordance := map[*html.Node]bool{}
	for _, r := range rows {
		if r.raw.Action == orders.SignalPresent && r.table != nil {
			tablesWithAffordance[r.table] = true
		}
	}

	out := make([]orders.RawRow, len(rows))
	for i, r := range rows {
		if r.raw.Action != orders.SignalPresent && tablesWithAffordance[r.table] {
			r.raw.Action = orders.SignalAbsent
		}
		out[i] = r.raw
	}
	return out
}
