package shoplist

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dukerupert/shoplist/internal/grocery"
	"github.com/dukerupert/shoplist/internal/model"
)

// ValueFilter selects items by payment state.
type ValueFilter string

const (
	FilterAll     ValueFilter = "all"
	FilterPaid    ValueFilter = "paid"
	FilterPending ValueFilter = "pending"
)

// SortKey orders the visible rows.
type SortKey string

const (
	SortNone      SortKey = "none"
	SortAlpha     SortKey = "alpha"
	SortPriceDesc SortKey = "price_desc"
	SortPriceAsc  SortKey = "price_asc"
)

// NoItemsPlaceholder is shown instead of an empty list.
const NoItemsPlaceholder = "No items found."

// ParseFilter accepts the filter names and the option values of the
// web client select box.
func ParseFilter(s string) (ValueFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "todos":
		return FilterAll, nil
	case "paid", "paidonly", "com-valor":
		return FilterPaid, nil
	case "pending", "pendingonly", "sem-valor":
		return FilterPending, nil
	}
	return "", invalid("filter", fmt.Sprintf("unknown filter %q", s))
}

// ParseSort accepts the sort names and the option values of the
// web client select box.
func ParseSort(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "default":
		return SortNone, nil
	case "alpha", "alphabetical", "alfa":
		return SortAlpha, nil
	case "price_desc", "pricedesc", "preco-desc":
		return SortPriceDesc, nil
	case "price_asc", "priceasc", "preco-asc":
		return SortPriceAsc, nil
	}
	return "", invalid("sort", fmt.Sprintf("unknown sort %q", s))
}

// Query is the user's current search, filter and sort selection.
type Query struct {
	Search string      `json:"search"`
	Filter ValueFilter `json:"filter"`
	Sort   SortKey     `json:"sort"`
}

// Row is one visible item, ready for display. Position is the 1-based
// place of the item in the full list, stable across filters.
type Row struct {
	Position      int     `json:"position"`
	ItemID        string  `json:"itemId"`
	Name          string  `json:"name"`
	Quantity      int     `json:"quantity"`
	QuantityLabel string  `json:"quantityLabel"`
	Observation   string  `json:"observation"`
	Paid          bool    `json:"paid"`
	Price         float64 `json:"price"`
	PriceLabel    string  `json:"priceLabel"`
	Category      string  `json:"category"`
}

// Model is the rendered list view.
type Model struct {
	Query       Query   `json:"query"`
	Rows        []Row   `json:"rows"`
	Empty       bool    `json:"empty"`
	Placeholder string  `json:"placeholder,omitempty"`
	Count       int     `json:"count"`
	Total       float64 `json:"total"`
	TotalLabel  string  `json:"totalLabel"`
}

// Renderer turns items into a Model. Locale drives alphabetical ordering.
type Renderer struct {
	Locale   language.Tag
	Currency string
}

// DefaultRenderer sorts names the Brazilian Portuguese way and prints reais.
func DefaultRenderer() Renderer {
	return Renderer{Locale: language.BrazilianPortuguese, Currency: "R$"}
}

// Render is DefaultRenderer().Render.
func Render(items []model.Item, q Query) Model {
	return DefaultRenderer().Render(items, q)
}

// Render filters, sorts and formats items. It never modifies items and
// always recomputes from the full list.
func (r Renderer) Render(items []model.Item, q Query) Model {
	if q.Filter == "" {
		q.Filter = FilterAll
	}
	if q.Sort == "" {
		q.Sort = SortNone
	}
	currency := r.Currency
	if currency == "" {
		currency = "R$"
	}

	rows := make([]Row, 0, len(items))
	term := strings.ToLower(strings.TrimSpace(q.Search))
	for i, item := range items {
		if !matchesSearch(item, term) || !matchesFilter(item, q.Filter) {
			continue
		}
		rows = append(rows, r.row(i+1, item, currency))
	}

	switch q.Sort {
	case SortAlpha:
		c := collate.New(r.Locale)
		slices.SortStableFunc(rows, func(a, b Row) int {
			return c.CompareString(a.Name, b.Name)
		})
	case SortPriceDesc:
		slices.SortStableFunc(rows, func(a, b Row) int {
			return cmp.Compare(b.Price, a.Price)
		})
	case SortPriceAsc:
		slices.SortStableFunc(rows, func(a, b Row) int {
			return cmp.Compare(a.Price, b.Price)
		})
	}

	total := Total(items)
	m := Model{
		Query:      q,
		Rows:       rows,
		Count:      len(rows),
		Total:      total,
		TotalLabel: FormatMoney(currency, total),
	}
	if len(rows) == 0 {
		m.Empty = true
		m.Placeholder = NoItemsPlaceholder
	}
	return m
}

func (r Renderer) row(position int, item model.Item, currency string) Row {
	quantity := item.Quantity
	if quantity < 1 {
		quantity = 1
	}
	row := Row{
		Position:      position,
		ItemID:        item.ItemID,
		Name:          item.Name,
		Quantity:      quantity,
		QuantityLabel: fmt.Sprintf("x%d", quantity),
		Observation:   item.Observation,
		Paid:          item.Paid,
		Price:         item.Price,
		Category:      grocery.Categorize(item.Name),
	}
	if item.Paid {
		row.PriceLabel = FormatMoney(currency, item.Price)
	}
	return row
}

func matchesSearch(item model.Item, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(item.Name), term) ||
		strings.Contains(strings.ToLower(item.Observation), term)
}

func matchesFilter(item model.Item, f ValueFilter) bool {
	switch f {
	case FilterPaid:
		return item.Paid
	case FilterPending:
		return !item.Paid
	}
	return true
}
