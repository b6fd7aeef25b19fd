package model

import (
	"time"

	"github.com/google/uuid"
)

// Item is one entry of a shopping list.
type Item struct {
	ItemID      string  `json:"itemId" bson:"itemId"`
	Name        string  `json:"name" bson:"name"`
	Quantity    int     `json:"quantity" bson:"quantity"`
	Observation string  `json:"observation" bson:"observation"`
	Paid        bool    `json:"paid" bson:"paid"`
	Price       float64 `json:"price" bson:"price"`
}

// List is the persisted document for one shared list. Whoever holds the ID
// can read and write it.
type List struct {
	ID        string    `json:"listId" bson:"_id"`
	Items     []Item    `json:"items" bson:"items"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Draft is the input for a new item.
type Draft struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Observation string `json:"observation"`
}

// Patch carries the fields of a partial item update. Nil fields are left
// untouched.
type Patch struct {
	Name        *string  `json:"name,omitempty"`
	Quantity    *int     `json:"quantity,omitempty"`
	Observation *string  `json:"observation,omitempty"`
	Paid        *bool    `json:"paid,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}

// NewListID returns a fresh list identifier.
func NewListID() string {
	return uuid.NewString()
}

// NewItemID returns a fresh item identifier.
func NewItemID() string {
	return uuid.NewString()
}

// NewList returns an empty list with a fresh identifier.
func NewList(now time.Time) *List {
	return &List{
		ID:        NewListID(),
		Items:     []Item{},
		CreatedAt: now.UTC(),
	}
}

// NewItem builds a pending item from a draft.
func NewItem(d Draft) Item {
	return Item{
		ItemID:      NewItemID(),
		Name:        d.Name,
		Quantity:    d.Quantity,
		Observation: d.Observation,
	}
}

// IsEmpty reports whether the patch carries no fields.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Quantity == nil && p.Observation == nil && p.Paid == nil && p.Price == nil
}

// Apply merges the supplied fields into item. An item left unpaid never
// keeps a price.
func (p Patch) Apply(item *Item) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Quantity != nil {
		item.Quantity = *p.Quantity
	}
	if p.Observation != nil {
		item.Observation = *p.Observation
	}
	if p.Paid != nil {
		item.Paid = *p.Paid
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if !item.Paid {
		item.Price = 0
	}
}

// IndexOf returns the position of the item with the given ID, or -1.
func IndexOf(items []Item, itemID string) int {
	for i := range items {
		if items[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

// Clone returns a copy of items that never aliases the input. A nil input
// yields an empty slice so JSON encodes it as [].
func Clone(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
