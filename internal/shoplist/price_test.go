package shoplist

import (
	"math"
	"testing"

	"github.com/dukerupert/shoplist/internal/model"
)

func TestFinalPrice(t *testing.T) {
	tests := []struct {
		amount   float64
		quantity int
		mode     PriceMode
		want     float64
	}{
		{5.50, 2, PriceUnit, 11.00},
		{5.50, 2, PriceTotal, 5.50},
		{0.1, 3, PriceUnit, 0.3},
		{3.333, 3, PriceUnit, 10.0},
		{0, 4, PriceUnit, 0},
	}
	for _, tt := range tests {
		got, err := FinalPrice(tt.amount, tt.quantity, tt.mode)
		if err != nil {
			t.Fatalf("FinalPrice(%v, %d, %s): %v", tt.amount, tt.quantity, tt.mode, err)
		}
		if got != tt.want {
			t.Errorf("FinalPrice(%v, %d, %s) = %v, want %v", tt.amount, tt.quantity, tt.mode, got, tt.want)
		}
	}
}

func TestFinalPriceRejectsInvalidAmounts(t *testing.T) {
	for _, amount := range []float64{-1, math.NaN(), math.Inf(1), 2 * MaxPrice} {
		if _, err := FinalPrice(amount, 1, PriceUnit); err == nil {
			t.Errorf("FinalPrice(%v) expected error", amount)
		}
	}
	// finite amounts whose product overflows
	for _, amount := range []float64{1e308, math.MaxFloat64, MaxPrice} {
		if got, err := FinalPrice(amount, 10, PriceUnit); err == nil {
			t.Errorf("FinalPrice(%v, 10, unit) = %v, expected error", amount, got)
		}
	}
	if got, err := FinalPrice(MaxPrice, 1, PriceTotal); err != nil || got != MaxPrice {
		t.Errorf("FinalPrice(MaxPrice, total) = %v, %v", got, err)
	}
	if _, err := FinalPrice(1, 1, PriceMode("bulk")); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestParsePriceMode(t *testing.T) {
	tests := map[string]PriceMode{
		"":        PriceUnit,
		"unit":    PriceUnit,
		"Unidade": PriceUnit,
		"total":   PriceTotal,
		" TOTAL ": PriceTotal,
	}
	for in, want := range tests {
		got, err := ParsePriceMode(in)
		if err != nil || got != want {
			t.Errorf("ParsePriceMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParsePriceMode("kg"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestTotal(t *testing.T) {
	items := []model.Item{
		{Name: "Arroz", Paid: true, Price: 11},
		{Name: "Feijão", Paid: false, Price: 0},
		{Name: "Leite", Paid: true, Price: 0.1},
		{Name: "Ovos", Paid: true, Price: 0.2},
	}
	if got := Total(items); got != 11.3 {
		t.Errorf("Total = %v, want 11.3", got)
	}
	if got := Total(nil); got != 0 {
		t.Errorf("Total(nil) = %v, want 0", got)
	}
}

func TestFormatMoney(t *testing.T) {
	if got := FormatMoney("R$", 11); got != "R$ 11.00" {
		t.Errorf("got %q, want %q", got, "R$ 11.00")
	}
	if got := FormatMoney("$", 0.5); got != "$ 0.50" {
		t.Errorf("got %q, want %q", got, "$ 0.50")
	}
}
