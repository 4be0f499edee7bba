package atgpedi

import (
	"context"
	"rapthor-backend/lib/orders"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, body string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

func TestHasListing(t *testing.T) {
	require.True(t, HasListing(parseDoc(t, "<html><body>"+listingTable+"</body></html>")))
	require.False(t, HasListing(parseDoc(t, `<table><tr><td>a</td><td>b</td></tr></table>`)))
	require.False(t, HasListing(parseDoc(t, `<div>Aucune commande</div>`)))
}

func TestDecodeRowsGenericSelector(t *testing.T) {
	doc := parseDoc(t, `
		<table>
			<tr><th>N°</th><th>Client</th><th>Site</th><th>Création</th><th>Livraison</th><th>GLN</th><th>Montant</th></tr>
			<tr>
				<td>  00123 </td><td>Auchan&nbsp;Nord</td><td>Site C</td><td>01/12/2025</td>
				<td>02/12/2025</td><td>GLN3</td><td>12,00 €</td><td>À expédier</td>
			</tr>
			<tr><td colspan="8">Total</td></tr>
			<tr><td colspan="x">broken</td></tr>
		</table>
	`)

	rows := DecodeRows(doc, DefaultRowSelectors, DefaultActionMarkers)
	require.Len(t, rows, 3)

	require.Equal(t, []string{"00123", "Auchan Nord", "Site C", "01/12/2025", "02/12/2025", "GLN3", "12,00 €", "À expédier"}, rows[0].Cells)
	require.Equal(t, orders.SignalUnknown, rows[0].Action)

	// a colspan keeps the column positions of the row
	require.Len(t, rows[1].Cells, 8)
	require.Equal(t, 1, rows[1].Width())

	require.Error(t, rows[2].Err)

	extracted, stats := orders.Extract(context.Background(), rows)
	require.Len(t, extracted, 1)
	require.Equal(t, "00123", extracted[0].Number)
	// no affordance anywhere, the status text decides
	require.True(t, extracted[0].DesadvRequired)
	require.Equal(t, 1, stats.Skipped)
	require.Len(t, stats.Errors, 1)
}

func TestDecodeRowsSelectorOrder(t *testing.T) {
	doc := parseDoc(t, `
		<table>
			<tr class="LIGNECOMMANDE"><td>1</td><td>a</td><td></td><td></td><td></td><td></td><td>1,00</td></tr>
			<tr class="autre"><td>2</td><td>b</td><td></td><td></td><td></td><td></td><td>2,00</td></tr>
		</table>
	`)

	rows := DecodeRows(doc, DefaultRowSelectors, DefaultActionMarkers)
	require.Len(t, rows, 1)
	require.Equal(t, "1", rows[0].Cells[0])
}

func TestDecodeRowsActionSignal(t *testing.T) {
	doc := parseDoc(t, `
		<table>
			<tr class="ligneCommande"><td>1</td><td>a</td><td></td><td></td><td></td><td></td><td>1,00</td>
				<td><button onclick="ouvrirDesadv(1)">Créer</button></td></tr>
			<tr class="ligneCommande"><td>2</td><td>b</td><td></td><td></td><td></td><td></td><td>2,00</td>
				<td>DESADV à faire</td></tr>
			<tr class="ligneCommande"><td>3</td><td>c</td><td></td><td></td><td></td><td></td><td>3,00</td>
				<td><input type="submit" value="Préparer l'expédition"></td></tr>
		</table>
	`)

	rows := DecodeRows(doc, DefaultRowSelectors, DefaultActionMarkers)
	require.Len(t, rows, 3)
	require.Equal(t, orders.SignalPresent, rows[0].Action)
	require.Equal(t, orders.SignalAbsent, rows[1].Action)
	require.Equal(t, orders.SignalPresent, rows[2].Action)

	// the structural signal wins over the status text
	extracted, _ := orders.Extract(context.Background(), rows)
	require.Len(t, extracted, 3)
	require.True(t, extracted[0].DesadvRequired)
	require.False(t, extracted[1].DesadvRequired)
	require.True(t, extracted[2].DesadvRequired)
}

func TestDecodeRowsIgnoresConsultLinks(t *testing.T) {
	doc := parseDoc(t, `
		<table>
			<tr class="ligneCommande"><td>1</td><td>a</td><td></td><td></td><td></td><td></td><td>1,00</td>
				<td>Expédiée</td><td><a href="gui.php?page=desadv_consulter&id=1">Consulter</a></td></tr>
			<tr class="ligneCommande"><td>2</td><td>b</td><td></td><td></td><td></td><td></td><td>2,00</td>
				<td>Expédiée</td><td><a href="gui.php?page=desadv_pdf&id=2" title="Télécharger le DESADV">PDF</a></td></tr>
		</table>
	`)

	rows := DecodeRows(doc, DefaultRowSelectors, DefaultActionMarkers)
	require.Len(t, rows, 2)
	require.Equal(t, orders.SignalUnknown, rows[0].Action)
	require.Equal(t, orders.SignalUnknown, rows[1].Action)

	extracted, _ := orders.Extract(context.Background(), rows)
	require.Len(t, extracted, 2)
	require.False(t, extracted[0].DesadvRequired)
	require.False(t, extracted[1].DesadvRequired)

	// next to a real preparation control the consult link reads as absent
	doc = parseDoc(t, `
		<table>
			<tr class="ligneCommande"><td>1</td><td>a</td><td></td><td></td><td></td><td></td><td>1,00</td>
				<td>Expédiée</td><td><a href="gui.php?page=desadv_consulter&id=1">Consulter</a></td></tr>
			<tr class="ligneCommande"><td>2</td><td>b</td><td></td><td></td><td></td><td></td><td>2,00</td>
				<td></td><td><a href="gui.php?page=desadv_creer&id=2">Créer</a></td></tr>
		</table>
	`)
	rows = DecodeRows(doc, DefaultRowSelectors, DefaultActionMarkers)
	require.Len(t, rows, 2)
	require.Equal(t, orders.SignalAbsent, rows[0].Action)
	require.Equal(t, orders.SignalPresent, rows[1].Action)
}
