package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// AdjustInput corrección manual de la cantidad de un lote.
type AdjustInput struct {
	BatchID string `validate:"required"`
	Delta   int64  `validate:"ne=0"`
	Reason  string `validate:"required"`
	Actor   string `validate:"required"`
}

// AdjustResult resultado de un ajuste.
type AdjustResult struct {
	BatchID          string
	Reference        string
	PreviousQuantity int64
	NewQuantity      int64
	MovementID       string
}

// Adjust bloquea el lote, aplica Delta (positivo o negativo) sin dejarlo en negativo,
// escribe un ADJUSTMENT con cantidad anterior y nueva y recalcula el agregado.
func (e *Engine) Adjust(ctx context.Context, in AdjustInput) (res *AdjustResult, err error) {
	start := e.now()
	defer func() { e.observe(OpAdjust, start, abs(in.Delta), err) }()

	if err := e.validateInput(in); err != nil {
		return nil, err
	}

	reference := newReference("ADJ")
	err = e.txRunner.Run(ctx, func(repos TxRepos) error {
		batch, err := repos.Batches.GetForUpdate(ctx, in.BatchID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("lote %s: %w", in.BatchID, domain.ErrNotFound)
			}
			return fmt.Errorf("lock batch: %w", err)
		}
		if batch == nil {
			return fmt.Errorf("lote %s: %w", in.BatchID, domain.ErrNotFound)
		}

		previous := batch.AvailableQuantity
		if previous+in.Delta < 0 {
			return &domain.WouldGoNegativeError{BatchID: batch.ID, Current: previous, Delta: in.Delta}
		}

		var newQty int64
		direction := entity.DirectionIN
		if in.Delta > 0 {
			newQty, err = repos.Batches.Increment(ctx, batch.ID, in.Delta)
		} else {
			direction = entity.DirectionOUT
			newQty, err = repos.Batches.Decrement(ctx, batch.ID, -in.Delta)
		}
		if err != nil {
			return fmt.Errorf("adjust batch: %w", err)
		}

		id, err := e.record(ctx, repos, &entity.StockMovement{
			ProductID:        batch.ProductID,
			LocationID:       batch.LocationID,
			BatchID:          ptr(batch.ID),
			Type:             entity.MovementTypeADJUSTMENT,
			Direction:        direction,
			Quantity:         abs(in.Delta),
			Reference:        reference,
			Origin:           entity.OriginCorrection,
			Reason:           in.Reason,
			PreviousQuantity: ptr(previous),
			NewQuantity:      ptr(newQty),
			ExpiresAt:        batch.ExpiresAt,
			CreatedBy:        in.Actor,
		})
		if err != nil {
			return err
		}

		res = &AdjustResult{
			BatchID:          batch.ID,
			Reference:        reference,
			PreviousQuantity: previous,
			NewQuantity:      newQty,
			MovementID:       id,
		}
		return e.refreshStockLevels(ctx, repos, batch.ProductID, batch.LocationID)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("reference", reference).
		Str("batch_id", res.BatchID).
		Int64("previous", res.PreviousQuantity).
		Int64("new", res.NewQuantity).
		Msg("ajuste aplicado")
	return res, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
