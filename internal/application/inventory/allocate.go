package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain/inventory"
)

// AllocateInput solicitud de asignación FIFO.
type AllocateInput struct {
	ProductID  string `validate:"required"`
	LocationID string `validate:"required"`
	Quantity   int64  `validate:"gte=0"`
}

// AllocatedSlice porción de un lote dentro de un plan o de una operación aplicada.
type AllocatedSlice struct {
	BatchID   string
	Reference string
	Quantity  int64
	UnitCost  decimal.Decimal
	SalePrice decimal.Decimal
	ExpiresAt *time.Time
}

// AllocationPlan resultado de Allocate; no reserva stock.
type AllocationPlan struct {
	ProductID  string
	LocationID string
	Requested  int64
	Slices     []AllocatedSlice
}

// Allocate calcula el plan FIFO sin modificar nada ni tomar bloqueos.
// Sirve para cotizar antes de vender; el stock puede cambiar antes de aplicarlo.
func (e *Engine) Allocate(ctx context.Context, in AllocateInput) (plan *AllocationPlan, err error) {
	start := e.now()
	defer func() { e.observe(OpAllocate, start, 0, err) }()

	if err := e.validateInput(in); err != nil {
		return nil, err
	}
	err = e.txRunner.Run(ctx, func(repos TxRepos) error {
		if err := e.requireProduct(ctx, repos, in.ProductID); err != nil {
			return err
		}
		if err := e.requireLocation(ctx, repos, in.LocationID); err != nil {
			return err
		}
		batches, err := repos.Batches.ListAvailable(ctx, in.ProductID, in.LocationID)
		if err != nil {
			return err
		}
		slices, err := inventory.Allocate(in.ProductID, in.LocationID, batches, in.Quantity)
		if err != nil {
			return err
		}
		plan = &AllocationPlan{
			ProductID:  in.ProductID,
			LocationID: in.LocationID,
			Requested:  in.Quantity,
			Slices:     toAllocatedSlices(slices),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func toAllocatedSlices(slices []inventory.Slice) []AllocatedSlice {
	out := make([]AllocatedSlice, 0, len(slices))
	for _, s := range slices {
		out = append(out, AllocatedSlice{
			BatchID:   s.Batch.ID,
			Reference: s.Batch.Reference,
			Quantity:  s.Quantity,
			UnitCost:  s.Batch.UnitCost,
			SalePrice: s.Batch.SalePrice,
			ExpiresAt: s.Batch.ExpiresAt,
		})
	}
	return out
}
