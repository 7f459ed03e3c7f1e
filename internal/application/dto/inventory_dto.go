package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllocateRequest body para POST /api/inventory/allocations.
type AllocateRequest struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Quantity   int64  `json:"quantity"`
}

// TransferRequest body para POST /api/inventory/transfers.
type TransferRequest struct {
	ProductID        string `json:"product_id"`
	SourceLocationID string `json:"source_location_id"`
	DestLocationID   string `json:"dest_location_id"`
	Quantity         int64  `json:"quantity"`
	Actor            string `json:"actor"`
}

// ConsumeRequest body para POST /api/inventory/consumptions.
type ConsumeRequest struct {
	ProductID     string `json:"product_id"`
	LocationID    string `json:"location_id"`
	Quantity      int64  `json:"quantity"`
	SaleReference string `json:"sale_reference"`
	Actor         string `json:"actor"`
}

// ReceiveRequest body para POST /api/inventory/receipts.
type ReceiveRequest struct {
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	Reference  string          `json:"reference"`
	Quantity   int64           `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	SalePrice  decimal.Decimal `json:"sale_price"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
	EnteredAt  *time.Time      `json:"entered_at,omitempty"`
	Actor      string          `json:"actor"`
}

// AdjustRequest body para POST /api/inventory/batches/:id/adjustments.
type AdjustRequest struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
	Actor  string `json:"actor"`
}

// RestoreRequest body para POST /api/inventory/restorations.
// sale_reference activa la devolución exacta sobre los lotes de esa venta.
type RestoreRequest struct {
	ProductID     string `json:"product_id"`
	LocationID    string `json:"location_id"`
	Quantity      int64  `json:"quantity"`
	SaleReference string `json:"sale_reference,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Actor         string `json:"actor"`
}

// BatchSliceResponse porción de un lote.
type BatchSliceResponse struct {
	BatchID   string          `json:"batch_id"`
	Reference string          `json:"reference"`
	Quantity  int64           `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	SalePrice decimal.Decimal `json:"sale_price"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

// AllocationResponse plan FIFO sin reserva.
type AllocationResponse struct {
	ProductID  string               `json:"product_id"`
	LocationID string               `json:"location_id"`
	Requested  int64                `json:"requested"`
	Slices     []BatchSliceResponse `json:"slices"`
}

// TransferSliceResponse porción trasladada.
type TransferSliceResponse struct {
	SourceBatchID      string `json:"source_batch_id"`
	DestinationBatchID string `json:"destination_batch_id"`
	BatchReference     string `json:"batch_reference"`
	Quantity           int64  `json:"quantity"`
	Merged             bool   `json:"merged"`
	DetailID           string `json:"detail_id"`
}

// TransferResponse resultado de un traslado.
type TransferResponse struct {
	Reference        string                  `json:"reference"`
	ProductID        string                  `json:"product_id"`
	SourceLocationID string                  `json:"source_location_id"`
	DestLocationID   string                  `json:"dest_location_id"`
	Quantity         int64                   `json:"quantity"`
	Slices           []TransferSliceResponse `json:"slices"`
	MovementIDs      []string                `json:"movement_ids"`
}

// ConsumptionResponse resultado de una venta.
type ConsumptionResponse struct {
	SaleReference string               `json:"sale_reference"`
	Slices        []BatchSliceResponse `json:"slices"`
	MovementIDs   []string             `json:"movement_ids"`
	Degraded      bool                 `json:"degraded"`
}

// ReceiveResponse lote creado.
type ReceiveResponse struct {
	BatchID      string `json:"batch_id"`
	Reference    string `json:"reference"`
	LotReference string `json:"lot_reference"`
	Quantity     int64  `json:"quantity"`
	MovementID   string `json:"movement_id"`
}

// AdjustResponse resultado de un ajuste.
type AdjustResponse struct {
	BatchID          string `json:"batch_id"`
	Reference        string `json:"reference"`
	PreviousQuantity int64  `json:"previous_quantity"`
	NewQuantity      int64  `json:"new_quantity"`
	MovementID       string `json:"movement_id"`
}

// RestoredBatchResponse cantidad devuelta a un lote.
type RestoredBatchResponse struct {
	BatchID     string `json:"batch_id"`
	Quantity    int64  `json:"quantity"`
	NewQuantity int64  `json:"new_quantity"`
}

// RestoreResponse resultado de una devolución.
type RestoreResponse struct {
	Reference   string                  `json:"reference"`
	BatchID     string                  `json:"batch_id"`
	NewQuantity int64                   `json:"new_quantity"`
	Exact       bool                    `json:"exact"`
	Restored    []RestoredBatchResponse `json:"restored"`
	MovementIDs []string                `json:"movement_ids"`
}

// MovementResponse entrada del kardex.
type MovementResponse struct {
	ID               string     `json:"id"`
	ProductID        string     `json:"product_id"`
	LocationID       string     `json:"location_id"`
	BatchID          *string    `json:"batch_id,omitempty"`
	Type             string     `json:"type"`
	Direction        string     `json:"direction"`
	Quantity         int64      `json:"quantity"`
	Reference        string     `json:"reference"`
	Origin           string     `json:"origin"`
	Reason           string     `json:"reason,omitempty"`
	PreviousQuantity *int64     `json:"previous_quantity,omitempty"`
	NewQuantity      *int64     `json:"new_quantity,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	CreatedBy        string     `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
}

// MovementsResponse entradas de una operación.
type MovementsResponse struct {
	Reference string             `json:"reference"`
	Total     int                `json:"total"`
	Movements []MovementResponse `json:"movements"`
}
