package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/inventory"
)

// appliedSlice porción ya descontada del lote, con la cantidad que quedó.
type appliedSlice struct {
	inventory.Slice
	NewQuantity int64
}

// takeFIFO bloquea los lotes disponibles en orden FIFO, calcula el plan y descuenta cada porción.
// Si otro proceso dejó el lote sin cantidad suficiente, Decrement devuelve ErrConcurrentModification.
func (e *Engine) takeFIFO(ctx context.Context, repos TxRepos, productID, locationID string, quantity int64) ([]appliedSlice, error) {
	batches, err := repos.Batches.ListAvailableForUpdate(ctx, productID, locationID)
	if err != nil {
		return nil, fmt.Errorf("lock batches: %w", err)
	}
	plan, err := inventory.Allocate(productID, locationID, batches, quantity)
	if err != nil {
		return nil, err
	}
	out := make([]appliedSlice, 0, len(plan))
	for _, s := range plan {
		newQty, err := repos.Batches.Decrement(ctx, s.Batch.ID, s.Quantity)
		if err != nil {
			return nil, fmt.Errorf("decrement batch %s: %w", s.Batch.ID, err)
		}
		out = append(out, appliedSlice{Slice: s, NewQuantity: newQty})
	}
	return out, nil
}

// record inserta una entrada en el kardex con la hora del motor y devuelve su ID.
func (e *Engine) record(ctx context.Context, repos TxRepos, m *entity.StockMovement) (string, error) {
	m.CreatedAt = e.now()
	if err := repos.Movements.Create(ctx, m); err != nil {
		return "", fmt.Errorf("create movement: %w", err)
	}
	return m.ID, nil
}
