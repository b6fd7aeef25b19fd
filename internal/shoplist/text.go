package shoplist

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteText prints m as an aligned table followed by the list total.
func WriteText(w io.Writer, m Model) error {
	if m.Empty {
		_, err := fmt.Fprintf(w, "%s\nTotal: %s\n", m.Placeholder, m.TotalLabel)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tITEM\tQTY\tOBS\tPRICE\tCATEGORY")
	for _, r := range m.Rows {
		price := r.PriceLabel
		if !r.Paid {
			price = "pending"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", r.Position, r.Name, r.QuantityLabel, r.Observation, price, r.Category)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nTotal: %s\n", m.TotalLabel)
	return err
}
