package entity

import "time"

// Tipos de movimiento del kardex.
const (
	MovementTypeIN         = "IN"
	MovementTypeOUT        = "OUT"
	MovementTypeADJUSTMENT = "ADJUSTMENT"
	MovementTypeTRANSFER   = "TRANSFER"
)

// Sentido del movimiento; la cantidad siempre es positiva.
const (
	DirectionIN  = "IN"
	DirectionOUT = "OUT"
)

// Origen de negocio del movimiento.
const (
	OriginReceipt     = "RECEIPT"
	OriginSale        = "SALE"
	OriginTransfer    = "TRANSFER"
	OriginCorrection  = "CORRECTION"
	OriginRestoration = "RESTORATION"
	OriginLegacySale  = "LEGACY_SALE" // venta sin lote resoluble en la ubicación
)

// StockMovement es una entrada inmutable del kardex. Las correcciones son entradas nuevas.
type StockMovement struct {
	ID               string
	ProductID        string
	LocationID       string
	BatchID          *string // nil solo en el camino degradado de ventas sin lote
	Type             string
	Direction        string
	Quantity         int64
	Reference        string // agrupa las entradas de una misma operación lógica
	Origin           string
	Reason           string
	PreviousQuantity *int64
	NewQuantity      *int64
	ExpiresAt        *time.Time
	CreatedBy        string
	CreatedAt        time.Time
}

// Signed devuelve la cantidad con signo según la dirección.
func (m *StockMovement) Signed() int64 {
	if m.Direction == DirectionOUT {
		return -m.Quantity
	}
	return m.Quantity
}
