package shoplist

import (
	"math"
	"strings"

	"github.com/dukerupert/shoplist/internal/model"
)

// DefaultItemName replaces a missing or blank name on ingest.
const DefaultItemName = "Unnamed item"

// Sanitize turns externally supplied list data (a decoded JSON array) into
// items that satisfy the model invariants. Absent or invalid fields get
// defaults, and missing or repeated item IDs are replaced with fresh ones.
func Sanitize(raw any) ([]model.Item, error) {
	entries, ok := raw.([]any)
	if !ok {
		return nil, invalid("items", "must be an array")
	}

	items := make([]model.Item, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		fields, _ := entry.(map[string]any)
		item := sanitizeItem(fields)
		if seen[item.ItemID] {
			item.ItemID = model.NewItemID()
		}
		seen[item.ItemID] = true
		items = append(items, item)
	}
	return items, nil
}

// SanitizeItems re-applies the invariants to already typed items, e.g. the
// contents of an exported file decoded into model.Item.
func SanitizeItems(in []model.Item) []model.Item {
	raw := make([]any, len(in))
	for i, item := range in {
		raw[i] = map[string]any{
			"itemId":      item.ItemID,
			"name":        item.Name,
			"quantity":    float64(item.Quantity),
			"observation": item.Observation,
			"paid":        item.Paid,
			"price":       item.Price,
		}
	}
	items, _ := Sanitize(raw)
	return items
}

func sanitizeItem(f map[string]any) model.Item {
	item := model.Item{
		ItemID:   model.NewItemID(),
		Name:     DefaultItemName,
		Quantity: 1,
	}

	if id, ok := f["itemId"].(string); ok && strings.TrimSpace(id) != "" {
		item.ItemID = id
	}
	if name, ok := f["name"].(string); ok && strings.TrimSpace(name) != "" {
		item.Name = strings.TrimSpace(name)
	}
	if q, ok := number(f["quantity"]); ok && q >= 1 && q <= math.MaxInt32 {
		item.Quantity = int(math.Trunc(q))
	}
	if obs, ok := f["observation"].(string); ok {
		item.Observation = strings.TrimSpace(obs)
	}
	if paid, ok := f["paid"].(bool); ok {
		item.Paid = paid
	}
	if p, ok := number(f["price"]); ok && p >= 0 && p <= MaxPrice && item.Paid {
		item.Price = p
	}
	return item
}

func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
