package repository

import (
	"context"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// TransferDetailRepository define el puerto de los detalles de traslado por lote.
type TransferDetailRepository interface {
	Create(ctx context.Context, detail *entity.TransferBatchDetail) error
	// ListOpenByDestinationBatchForUpdate devuelve filas no consumidas del lote destino, más antigua primero.
	ListOpenByDestinationBatchForUpdate(ctx context.Context, destinationBatchID string) ([]*entity.TransferBatchDetail, error)
	// ListRestorableForUpdate devuelve las filas con consumo > 0 del producto en la ubicación destino, más antigua primero.
	ListRestorableForUpdate(ctx context.Context, productID, locationID string) ([]*entity.TransferBatchDetail, error)
	// ListConsumedByDestinationBatchForUpdate devuelve filas con consumo > 0, la más reciente primero.
	ListConsumedByDestinationBatchForUpdate(ctx context.Context, destinationBatchID string) ([]*entity.TransferBatchDetail, error)
	UpdateConsumption(ctx context.Context, id string, consumed int64, status string) error
}
