package shoplist

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/shoplist/internal/model"
)

// PriceMode says whether a confirmed amount is per unit or for the whole
// quantity.
type PriceMode string

const (
	PriceUnit  PriceMode = "unit"
	PriceTotal PriceMode = "total"
)

// MaxPrice bounds every stored price so list totals stay finite.
const MaxPrice = 1e12

// ParsePriceMode accepts unit/total and the labels of the web client form.
func ParsePriceMode(s string) (PriceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unit", "unid", "unidade":
		return PriceUnit, nil
	case "total":
		return PriceTotal, nil
	}
	return "", invalid("mode", "must be unit or total")
}

// FinalPrice computes the price stored for an item: amount*quantity in unit
// mode, amount in total mode, rounded to cents.
func FinalPrice(amount float64, quantity int, mode PriceMode) (float64, error) {
	if err := validatePrice(amount); err != nil {
		return 0, err
	}
	d := decimal.NewFromFloat(amount)
	switch mode {
	case PriceUnit:
		d = d.Mul(decimal.NewFromInt(int64(quantity)))
	case PriceTotal:
	default:
		return 0, invalid("mode", "must be unit or total")
	}
	f, _ := d.Round(2).Float64()
	if math.IsInf(f, 0) || f > MaxPrice {
		return 0, invalid("price", "is too large")
	}
	return f, nil
}

// Total sums the prices of paid items.
func Total(items []model.Item) float64 {
	sum := decimal.Zero
	for _, item := range items {
		if item.Paid && item.Price > 0 {
			sum = sum.Add(decimal.NewFromFloat(item.Price))
		}
	}
	f, _ := sum.Round(2).Float64()
	return f
}

// FormatMoney renders an amount with two decimals after the currency symbol.
func FormatMoney(currency string, amount float64) string {
	return currency + " " + decimal.NewFromFloat(amount).StringFixed(2)
}

func validatePrice(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return invalid("price", "must be a number")
	}
	if amount < 0 {
		return invalid("price", "must not be negative")
	}
	if amount > MaxPrice {
		return invalid("price", "is too large")
	}
	return nil
}
