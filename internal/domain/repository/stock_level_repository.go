package repository

import (
	"context"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// StockLevelRepository define el puerto del agregado por producto y ubicación.
// Se usa dentro de la misma transacción que modifica los lotes.
type StockLevelRepository interface {
	// GetForUpdate bloquea la fila; si no existe devuelve un agregado en cero.
	GetForUpdate(ctx context.Context, productID, locationID string) (*entity.StockLevel, error)
	Upsert(ctx context.Context, level *entity.StockLevel) error
	ListKeys(ctx context.Context, limit, offset int) ([]entity.StockLevel, error)
}
