package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// ConsumeInput salida por venta en una ubicación.
type ConsumeInput struct {
	ProductID     string `validate:"required"`
	LocationID    string `validate:"required"`
	Quantity      int64  `validate:"gt=0"`
	SaleReference string `validate:"required"`
	Actor         string `validate:"required"`
}

// ConsumptionResult resultado de una venta aplicada.
// Degraded indica que se vendió stock heredado sin lotes.
type ConsumptionResult struct {
	SaleReference string
	Slices        []AllocatedSlice
	MovementIDs   []string
	Degraded      bool
}

// IdempotencyKey clave de la venta para el guard de idempotencia.
func (in ConsumeInput) IdempotencyKey() string {
	return "sale:" + in.SaleReference + ":" + in.ProductID + ":" + in.LocationID
}

// Consume descuenta la venta en orden FIFO, escribe una salida por porción con la referencia
// de la venta y avanza los detalles de traslado del lote consumido, todo en una transacción.
func (e *Engine) Consume(ctx context.Context, in ConsumeInput) (res *ConsumptionResult, err error) {
	start := e.now()
	defer func() { e.observe(OpConsume, start, in.Quantity, err) }()

	if err := e.validateInput(in); err != nil {
		return nil, err
	}

	if e.guard != nil {
		key := in.IdempotencyKey()
		ok, err := e.guard.Acquire(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("acquire idempotency key: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: venta %s ya aplicada", domain.ErrDuplicate, in.SaleReference)
		}
		defer func() {
			if err == nil {
				return
			}
			if relErr := e.guard.Release(context.WithoutCancel(ctx), key); relErr != nil {
				e.log.Warn().Err(relErr).Str("key", key).Msg("no se pudo liberar la clave de idempotencia")
			}
		}()
	}

	err = e.txRunner.Run(ctx, func(repos TxRepos) error {
		if err := e.requireProduct(ctx, repos, in.ProductID); err != nil {
			return err
		}
		if err := e.requireLocation(ctx, repos, in.LocationID); err != nil {
			return err
		}

		applied, err := e.takeFIFO(ctx, repos, in.ProductID, in.LocationID, in.Quantity)
		if err != nil {
			if !errors.Is(err, domain.ErrInsufficientStock) || !e.cfg.LegacyFallback {
				return err
			}
			legacy, ferr := e.consumeUntracked(ctx, repos, in)
			if ferr != nil {
				if errors.Is(ferr, errNoLegacyStock) {
					return err
				}
				return ferr
			}
			res = legacy
			return nil
		}

		res = &ConsumptionResult{SaleReference: in.SaleReference}
		for _, s := range applied {
			id, err := e.record(ctx, repos, &entity.StockMovement{
				ProductID:  in.ProductID,
				LocationID: in.LocationID,
				BatchID:    ptr(s.Batch.ID),
				Type:       entity.MovementTypeOUT,
				Direction:  entity.DirectionOUT,
				Quantity:   s.Quantity,
				Reference:  in.SaleReference,
				Origin:     entity.OriginSale,
				ExpiresAt:  s.Batch.ExpiresAt,
				CreatedBy:  in.Actor,
			})
			if err != nil {
				return err
			}
			res.MovementIDs = append(res.MovementIDs, id)
			res.Slices = append(res.Slices, AllocatedSlice{
				BatchID:   s.Batch.ID,
				Reference: s.Batch.Reference,
				Quantity:  s.Quantity,
				UnitCost:  s.Batch.UnitCost,
				SalePrice: s.Batch.SalePrice,
				ExpiresAt: s.Batch.ExpiresAt,
			})

			if err := e.advanceDetails(ctx, repos, s.Batch.ID, s.Quantity); err != nil {
				return err
			}
		}
		return e.refreshStockLevels(ctx, repos, in.ProductID, in.LocationID)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("reference", in.SaleReference).
		Str("product_id", in.ProductID).
		Str("location_id", in.LocationID).
		Int64("quantity", in.Quantity).
		Bool("degraded", res.Degraded).
		Msg("venta aplicada")
	return res, nil
}

// advanceDetails marca como consumidas las filas de traslado del lote, la más antigua primero.
func (e *Engine) advanceDetails(ctx context.Context, repos TxRepos, batchID string, quantity int64) error {
	rows, err := repos.Details.ListOpenByDestinationBatchForUpdate(ctx, batchID)
	if err != nil {
		return fmt.Errorf("lock transfer details: %w", err)
	}
	remaining := quantity
	for _, row := range rows {
		if remaining == 0 {
			break
		}
		take := min(remaining, row.Remaining())
		if take <= 0 {
			continue
		}
		row.ConsumedQuantity += take
		row.Status = entity.DetailStatusFor(row.Quantity, row.ConsumedQuantity)
		if err := repos.Details.UpdateConsumption(ctx, row.ID, row.ConsumedQuantity, row.Status); err != nil {
			return fmt.Errorf("update transfer detail: %w", err)
		}
		remaining -= take
	}
	if remaining > 0 && len(rows) > 0 {
		e.log.Debug().
			Str("batch_id", batchID).
			Int64("untracked", remaining).
			Msg("consumo mayor que los detalles de traslado abiertos")
	}
	return nil
}

var errNoLegacyStock = errors.New("sin stock heredado")

// consumeUntracked vende stock heredado cuando la ubicación no tiene ningún lote del producto.
// Descuenta UntrackedQuantity del agregado y deja una salida LEGACY_SALE en el kardex.
func (e *Engine) consumeUntracked(ctx context.Context, repos TxRepos, in ConsumeInput) (*ConsumptionResult, error) {
	all, err := repos.Batches.ListByProductLocation(ctx, in.ProductID, in.LocationID)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	if len(all) > 0 {
		return nil, errNoLegacyStock
	}
	level, err := repos.Levels.GetForUpdate(ctx, in.ProductID, in.LocationID)
	if err != nil {
		return nil, fmt.Errorf("lock stock level: %w", err)
	}
	if level.UntrackedQuantity < in.Quantity {
		return nil, errNoLegacyStock
	}

	// Mejor esfuerzo: el lote más reciente del producto en cualquier ubicación.
	var batchID *string
	latest, err := repos.Batches.LatestForProduct(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("latest batch: %w", err)
	}
	if latest != nil {
		batchID = ptr(latest.ID)
	}

	level.UntrackedQuantity -= in.Quantity
	level.UpdatedAt = e.now()
	if err := repos.Levels.Upsert(ctx, level); err != nil {
		return nil, fmt.Errorf("upsert stock level: %w", err)
	}

	id, err := e.record(ctx, repos, &entity.StockMovement{
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		BatchID:    batchID,
		Type:       entity.MovementTypeOUT,
		Direction:  entity.DirectionOUT,
		Quantity:   in.Quantity,
		Reference:  in.SaleReference,
		Origin:     entity.OriginLegacySale,
		Reason:     "venta sin lote en la ubicación",
		CreatedBy:  in.Actor,
	})
	if err != nil {
		return nil, err
	}
	if err := e.refreshStockLevels(ctx, repos, in.ProductID, in.LocationID); err != nil {
		return nil, err
	}

	e.log.Warn().
		Str("reference", in.SaleReference).
		Str("product_id", in.ProductID).
		Str("location_id", in.LocationID).
		Int64("quantity", in.Quantity).
		Msg("venta aplicada sobre stock heredado sin lotes")

	return &ConsumptionResult{
		SaleReference: in.SaleReference,
		MovementIDs:   []string{id},
		Degraded:      true,
	}, nil
}
