package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un detalle de traslado.
const (
	DetailStatusAvailable         = "Available"
	DetailStatusPartiallyConsumed = "PartiallyConsumed"
	DetailStatusConsumed          = "Consumed"
)

// TransferBatchDetail registra que Quantity unidades del lote SourceBatchID llegaron a
// DestinationLocationID como parte del traslado TransferReference.
type TransferBatchDetail struct {
	ID                    string
	TransferReference     string
	ProductID             string
	SourceBatchID         string
	DestinationBatchID    *string // nil en filas heredadas sin vínculo al lote destino
	BatchReference        string
	Quantity              int64
	ConsumedQuantity      int64
	UnitCost              decimal.Decimal
	SalePrice             decimal.Decimal
	ExpiresAt             *time.Time
	SourceLocationID      string
	DestinationLocationID string
	Status                string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Remaining devuelve lo que aún no se ha consumido de la fila.
func (d *TransferBatchDetail) Remaining() int64 {
	return d.Quantity - d.ConsumedQuantity
}

// DetailStatusFor deriva el estado a partir de la cantidad consumida.
func DetailStatusFor(quantity, consumed int64) string {
	switch {
	case consumed <= 0:
		return DetailStatusAvailable
	case consumed >= quantity:
		return DetailStatusConsumed
	default:
		return DetailStatusPartiallyConsumed
	}
}
