// Package orders decodes purchase-order rows scraped from the supplier portal
// and classifies them. Nothing in here touches the network.
package orders

import (
	"time"

	"github.com/govalues/decimal"
)

const DateLayout = "02/01/2006"

// Order is one purchase order row of the portal's listing.
type Order struct {
	// Number is opaque, leading zeros are significant.
	Number       string          `json:"number"`
	Client       string          `json:"client"`
	DeliverySite string          `json:"delivery_site"`
	CreatedDate  *time.Time      `json:"created_date"`
	DeliveryDate *time.Time      `json:"delivery_date"`
	GLN          string          `json:"gln"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	// DesadvRequired means a dispatch advice must still be produced.
	DesadvRequired bool `json:"desadv_required"`
}

// Header is the CSV header matching Order.Record.
var Header = []string{
	"number",
	"client",
	"delivery_site",
	"created_date",
	"delivery_date",
	"gln",
	"amount",
	"status",
	"desadv_required",
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// Record renders the order as strings in Header order.
func (o Order) Record() []string {
	desadv := "false"
	if o.DesadvRequired {
		desadv = "true"
	}
	return []string{
		o.Number,
		o.Client,
		o.DeliverySite,
		formatDate(o.CreatedDate),
		formatDate(o.DeliveryDate),
		o.GLN,
		o.Amount.String(),
		o.Status,
		desadv,
	}
}

// AmountFloat is the amount as a float for spreadsheet cells.
func (o Order) AmountFloat() float64 {
	f, _ := o.Amount.Float64()
	return f
}

// ClientTotal aggregates the orders of one client.
type ClientTotal struct {
	Client       string          `json:"client"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	OrderCount   int             `json:"order_count"`
	OrderNumbers []string        `json:"order_numbers"`
}
