package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch representa un lote de un producto en una ubicación, con su propio costo, precio y vencimiento.
// Nunca se elimina: un lote en cero queda inerte para conservar la trazabilidad.
type Batch struct {
	ID                string
	Reference         string // código de lote; se repite entre ubicaciones cuando un traslado lo divide
	ProductID         string
	LocationID        string
	AvailableQuantity int64
	UnitCost          decimal.Decimal
	SalePrice         decimal.Decimal
	ExpiresAt         *time.Time
	EnteredAt         time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasStock indica si el lote tiene cantidad disponible.
func (b *Batch) HasStock() bool {
	return b.AvailableQuantity > 0
}
