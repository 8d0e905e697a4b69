package models

import "time"

// InventoryItem is a stocked item tracked by the warehouse view.
type InventoryItem struct {
	ID           string    `json:"id"`
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	Quantity     int       `json:"quantity"`
	ReorderLevel int       `json:"reorder_level"`
	UnitPrice    float64   `json:"unit_price"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateInventoryItemRequest struct {
	SKU          string  `json:"sku" validate:"required,min=3,max=40"`
	Name         string  `json:"name" validate:"required,min=2"`
	Quantity     int     `json:"quantity" validate:"gte=0"`
	ReorderLevel int     `json:"reorder_level" validate:"gte=0"`
	UnitPrice    float64 `json:"unit_price" validate:"gte=0"`
}

type UpdateInventoryItemRequest struct {
	Name         *string  `json:"name,omitempty" validate:"omitempty,min=2"`
	ReorderLevel *int     `json:"reorder_level,omitempty" validate:"omitempty,gte=0"`
	UnitPrice    *float64 `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
}

// AdjustStockRequest changes an item's quantity by a signed delta.
type AdjustStockRequest struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required,min=3"`
}
