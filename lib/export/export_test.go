package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"rapthor-backend/lib/orders"
	"rapthor-backend/lib/timezone"
	"testing"
	"time"

	"github.com/govalues/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testReport() Report {
	delivery := time.Date(2025, 12, 3, 0, 0, 0, 0, timezone.Location)
	big := orders.Order{
		Number:       "040484892",
		Client:       "Auchan France",
		DeliverySite: "Site A",
		DeliveryDate: &delivery,
		GLN:          "GLN1",
		Amount:       decimal.MustParse("1779.00"),
		Status:       "Nouveau",
	}
	small := orders.Order{
		Number:         "40483812",
		Client:         "Auchan Super",
		Amount:         decimal.MustParse("540.50"),
		Status:         "Accepté",
		DesadvRequired: true,
	}
	list := []orders.Order{big, small}
	totals, _ := orders.AggregateByClient(list)

	return Report{
		Date:            delivery,
		Threshold:       decimal.MustParse("850"),
		Orders:          list,
		DesadvPending:   []orders.Order{small},
		HighValueOrders: []orders.Order{big},
		Totals:          orders.SortedTotals(totals),
	}
}

func TestReportFilename(t *testing.T) {
	// 23:30 UTC is already the next day in Paris
	day := time.Date(2025, 12, 2, 23, 30, 0, 0, time.UTC)
	require.Equal(t, "RAPTHOR_DESADV_20251203.xlsx", ReportFilename(day))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testReport().Orders))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{
		orders.Header,
		{"040484892", "Auchan France", "Site A", "", "03/12/2025", "GLN1", "1779.00", "Nouveau", "false"},
		{"40483812", "Auchan Super", "", "", "", "", "540.50", "Accepté", "true"},
	}, records)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(context.Background(), &buf, testReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{SheetOrders, SheetDesadv, SheetAmounts, SheetClients}, f.GetSheetList())

	rows, err := f.GetRows(SheetOrders)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "N° commande", rows[0][0])
	require.Equal(t, "040484892", rows[1][0])
	require.Equal(t, "1779", rows[1][6])

	rows, err = f.GetRows(SheetDesadv)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "40483812", rows[1][0])
	require.Equal(t, "oui", rows[1][8])

	rows, err = f.GetRows(SheetAmounts)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "040484892", rows[1][0])

	rows, err = f.GetRows(SheetClients)
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"Client", "Montant total", "Nombre de commandes", "Commandes"},
		{"Auchan France", "1779", "1", "040484892"},
		{"Auchan Super", "540.5", "1", "40483812"},
	}, rows)
}

func TestNewReportMail(t *testing.T) {
	report := testReport()
	mail, err := NewReportMail("rapthor@example.com", []string{"logistique@example.com"}, report, []byte("xlsx"))
	require.NoError(t, err)
	require.Equal(t, "RAPTHOR - DESADV du 03/12/2025", mail.Subject)
	require.Len(t, mail.Attachments, 1)
	require.Equal(t, "RAPTHOR_DESADV_20251203.xlsx", mail.Attachments[0].Filename)

	body := string(mail.Text)
	require.Contains(t, body, "Commandes : 2")
	require.Contains(t, body, "DESADV à faire : 1")
	require.Contains(t, body, "  - 40483812 Auchan Super (540.50)")
	require.Contains(t, body, "Commandes de plus de 850 € : 1")
}

func TestSendReportNotConfigured(t *testing.T) {
	err := SendReport(context.Background(), SmtpConfig{}, []string{"a@example.com"}, testReport(), nil)
	require.Error(t, err)
}
