package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"rapthor-backend/lib/orders"
	"rapthor-backend/services/extraction"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(title)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Montant", Align: text.AlignRight},
		{Name: "Total", Align: text.AlignRight},
	})
	return t
}

func dateCell(o *orders.Order, created bool) string {
	d := o.DeliveryDate
	if created {
		d = o.CreatedDate
	}
	if d == nil {
		return "-"
	}
	return d.Format(orders.DateLayout)
}

func renderOrders(title string, list []orders.Order) {
	t := newTable(fmt.Sprintf("%s (%d)", title, len(list)))
	t.AppendHeader(table.Row{"N°", "Client", "Site", "Création", "Livraison", "GLN", "Montant", "Statut", "DESADV"})
	for i := range list {
		o := &list[i]
		desadv := ""
		if o.DesadvRequired {
			desadv = "à faire"
		}
		t.AppendRow(table.Row{
			o.Number,
			o.Client,
			o.DeliverySite,
			dateCell(o, true),
			dateCell(o, false),
			o.GLN,
			o.Amount.String(),
			o.Status,
			desadv,
		})
	}
	t.Render()
}

func renderTotals(totals []orders.ClientTotal) {
	t := newTable("Totaux par client")
	t.AppendHeader(table.Row{"Client", "Commandes", "Total", "N°"})
	for _, total := range totals {
		t.AppendRow(table.Row{
			total.Client,
			total.OrderCount,
			total.TotalAmount.String(),
			strings.Join(total.OrderNumbers, ", "),
		})
	}
	t.Render()
}

func renderResult(result extraction.Result) {
	if !result.Success {
		fmt.Fprintln(os.Stderr, result.Message)
		if result.Snapshot != "" {
			fmt.Fprintln(os.Stderr, "page snapshot:", result.Snapshot)
		}
		return
	}

	renderOrders("Commandes", result.Orders)
	renderOrders("DESADV à faire", result.DesadvPending)
	renderOrders("Commandes à montant élevé", result.HighValueOrders)
	renderTotals(orders.SortedTotals(result.TotalsByClient))
	fmt.Println(result.Message)
}

func printJson(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
