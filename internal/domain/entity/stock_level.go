package entity

import "time"

// Clasificación derivada del stock.
const (
	StockStatusInStock    = "in_stock"
	StockStatusLowStock   = "low_stock"
	StockStatusOutOfStock = "out_of_stock"
)

// StockLevel es el agregado desnormalizado de un producto en una ubicación.
// Quantity = suma de lotes en la ubicación + UntrackedQuantity.
type StockLevel struct {
	ProductID         string
	LocationID        string
	Quantity          int64
	UntrackedQuantity int64 // stock heredado que nunca entró por lotes
	Status            string
	UpdatedAt         time.Time
}
