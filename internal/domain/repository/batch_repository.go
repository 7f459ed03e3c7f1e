package repository

import (
	"context"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// BatchRepository define el puerto de persistencia de lotes.
// Los métodos ForUpdate bloquean las filas leídas hasta el fin de la transacción.
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.Batch) error
	GetByID(ctx context.Context, id string) (*entity.Batch, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Batch, error)
	// ListAvailable devuelve los lotes con cantidad > 0 en orden FIFO, sin bloquear.
	ListAvailable(ctx context.Context, productID, locationID string) ([]*entity.Batch, error)
	// ListAvailableForUpdate igual que ListAvailable pero bloqueando cada fila.
	ListAvailableForUpdate(ctx context.Context, productID, locationID string) ([]*entity.Batch, error)
	// ListByProductLocation incluye lotes en cero, en orden FIFO.
	ListByProductLocation(ctx context.Context, productID, locationID string) ([]*entity.Batch, error)
	FindByReferenceForUpdate(ctx context.Context, productID, locationID, reference string) (*entity.Batch, error)
	// LatestForProduct devuelve el lote más reciente del producto en cualquier ubicación.
	LatestForProduct(ctx context.Context, productID string) (*entity.Batch, error)
	// Decrement resta qty solo si la cantidad disponible alcanza; si no, ErrConcurrentModification.
	Decrement(ctx context.Context, id string, qty int64) (int64, error)
	Increment(ctx context.Context, id string, qty int64) (int64, error)
	SumAvailable(ctx context.Context, productID, locationID string) (int64, error)
}
