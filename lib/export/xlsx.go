package export

import (
	"context"
	"fmt"
	"io"
	"rapthor-backend/lib/orders"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/codes"
)

const (
	SheetOrders  = "Commandes"
	SheetDesadv  = "DESADV"
	SheetAmounts = "Montants"
	SheetClients = "Clients"
)

var orderColumns = []any{
	"N° commande",
	"Client",
	"Site de livraison",
	"Date de création",
	"Date de livraison",
	"GLN",
	"Montant",
	"Statut",
	"DESADV à faire",
}

var clientColumns = []any{
	"Client",
	"Montant total",
	"Nombre de commandes",
	"Commandes",
}

func orderRow(o orders.Order) []any {
	record := o.Record()
	desadv := "non"
	if o.DesadvRequired {
		desadv = "oui"
	}
	return []any{
		record[0],
		record[1],
		record[2],
		record[3],
		record[4],
		record[5],
		o.AmountFloat(),
		record[7],
		desadv,
	}
}

func clientRow(t orders.ClientTotal) []any {
	total, _ := t.TotalAmount.Float64()
	return []any{t.Client, total, t.OrderCount, strings.Join(t.OrderNumbers, ", ")}
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	err = sw.SetRow("A1", header)
	if err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		err = sw.SetRow(cell, row)
		if err != nil {
			return err
		}
	}
	return sw.Flush()
}

func orderRows(list []orders.Order) [][]any {
	rows := make([][]any, len(list))
	for i, o := range list {
		rows[i] = orderRow(o)
	}
	return rows
}

// WriteXLSX writes the report as a workbook with one sheet per view.
func WriteXLSX(ctx context.Context, w io.Writer, report Report) error {
	_, span := tracer.Start(ctx, "WriteXLSX")
	defer span.End()

	f := excelize.NewFile()
	defer f.Close()

	// the default sheet becomes the order list
	err := f.SetSheetName(f.GetSheetName(0), SheetOrders)
	if err != nil {
		span.RecordError(err)
		return err
	}
	for _, sheet := range []string{SheetDesadv, SheetAmounts, SheetClients} {
		_, err = f.NewSheet(sheet)
		if err != nil {
			span.RecordError(err)
			return err
		}
	}

	clients := make([][]any, len(report.Totals))
	for i, t := range report.Totals {
		clients[i] = clientRow(t)
	}

	sheets := []struct {
		name   string
		header []any
		rows   [][]any
	}{
		{name: SheetOrders, header: orderColumns, rows: orderRows(report.Orders)},
		{name: SheetDesadv, header: orderColumns, rows: orderRows(report.DesadvPending)},
		{name: SheetAmounts, header: orderColumns, rows: orderRows(report.HighValueOrders)},
		{name: SheetClients, header: clientColumns, rows: clients},
	}
	for _, s := range sheets {
		err = writeSheet(f, s.name, s.header, s.rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to write sheet")
			return fmt.Errorf("sheet %s: %w", s.name, err)
		}
	}

	_, err = f.WriteTo(w)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write workbook")
		return err
	}
	return nil
}
