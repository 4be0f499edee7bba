package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"rapthor-backend/lib/orders"
)

// WriteCSV writes one record per order under orders.Header.
func WriteCSV(w io.Writer, list []orders.Order) error {
	out := csv.NewWriter(w)
	err := out.Write(orders.Header)
	if err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, o := range list {
		err = out.Write(o.Record())
		if err != nil {
			return fmt.Errorf("write order %s: %w", o.Number, err)
		}
	}
	out.Flush()
	return out.Error()
}
