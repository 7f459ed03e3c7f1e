package repository

import (
	"context"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// StockMovementRepository define el puerto del kardex. Solo admite inserciones.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	// ListByReference devuelve las entradas de una operación en el orden en que se escribieron.
	ListByReference(ctx context.Context, reference string) ([]*entity.StockMovement, error)
}
