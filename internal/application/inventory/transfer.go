package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// TransferInput traslado de unidades de un producto entre dos ubicaciones.
type TransferInput struct {
	ProductID        string `validate:"required"`
	SourceLocationID string `validate:"required"`
	DestLocationID   string `validate:"required"`
	Quantity         int64  `validate:"gt=0"`
	Actor            string `validate:"required"`
}

// TransferSlice porción de un lote origen y el lote destino que la recibió.
type TransferSlice struct {
	SourceBatchID      string
	DestinationBatchID string
	BatchReference     string
	Quantity           int64
	Merged             bool // el lote destino ya existía con la misma referencia
	DetailID           string
}

// TransferResult resultado de un traslado aplicado.
type TransferResult struct {
	Reference        string
	ProductID        string
	SourceLocationID string
	DestLocationID   string
	Quantity         int64
	Slices           []TransferSlice
	MovementIDs      []string
}

// Transfer mueve unidades en orden FIFO de la ubicación origen a la destino, en una transacción:
// descuenta los lotes origen, suma o crea los lotes destino por referencia, escribe el kardex
// (salida y entrada por porción) y los detalles de traslado, y recalcula ambos agregados.
func (e *Engine) Transfer(ctx context.Context, in TransferInput) (res *TransferResult, err error) {
	start := e.now()
	defer func() { e.observe(OpTransfer, start, in.Quantity, err) }()

	if err := e.validateInput(in); err != nil {
		return nil, err
	}
	if in.SourceLocationID == in.DestLocationID {
		return nil, fmt.Errorf("%w: origen y destino iguales", domain.ErrInvalidLocation)
	}

	reference := newReference("TRF")
	err = e.txRunner.Run(ctx, func(repos TxRepos) error {
		if err := e.requireProduct(ctx, repos, in.ProductID); err != nil {
			return err
		}
		if err := e.requireLocation(ctx, repos, in.SourceLocationID); err != nil {
			return err
		}
		if err := e.requireLocation(ctx, repos, in.DestLocationID); err != nil {
			return err
		}

		applied, err := e.takeFIFO(ctx, repos, in.ProductID, in.SourceLocationID, in.Quantity)
		if err != nil {
			return err
		}

		res = &TransferResult{
			Reference:        reference,
			ProductID:        in.ProductID,
			SourceLocationID: in.SourceLocationID,
			DestLocationID:   in.DestLocationID,
			Quantity:         in.Quantity,
			Slices:           make([]TransferSlice, 0, len(applied)),
		}

		// Salidas en origen
		for _, s := range applied {
			id, err := e.record(ctx, repos, &entity.StockMovement{
				ProductID:  in.ProductID,
				LocationID: in.SourceLocationID,
				BatchID:    ptr(s.Batch.ID),
				Type:       entity.MovementTypeTRANSFER,
				Direction:  entity.DirectionOUT,
				Quantity:   s.Quantity,
				Reference:  reference,
				Origin:     entity.OriginTransfer,
				ExpiresAt:  s.Batch.ExpiresAt,
				CreatedBy:  in.Actor,
			})
			if err != nil {
				return err
			}
			res.MovementIDs = append(res.MovementIDs, id)
		}

		// Entradas en destino
		for _, s := range applied {
			dest, merged, err := e.receiveTransferred(ctx, repos, in.DestLocationID, s)
			if err != nil {
				return err
			}
			id, err := e.record(ctx, repos, &entity.StockMovement{
				ProductID:  in.ProductID,
				LocationID: in.DestLocationID,
				BatchID:    ptr(dest.ID),
				Type:       entity.MovementTypeTRANSFER,
				Direction:  entity.DirectionIN,
				Quantity:   s.Quantity,
				Reference:  reference,
				Origin:     entity.OriginTransfer,
				ExpiresAt:  dest.ExpiresAt,
				CreatedBy:  in.Actor,
			})
			if err != nil {
				return err
			}
			res.MovementIDs = append(res.MovementIDs, id)

			now := e.now()
			detail := &entity.TransferBatchDetail{
				TransferReference:     reference,
				ProductID:             in.ProductID,
				SourceBatchID:         s.Batch.ID,
				DestinationBatchID:    ptr(dest.ID),
				BatchReference:        s.Batch.Reference,
				Quantity:              s.Quantity,
				UnitCost:              s.Batch.UnitCost,
				SalePrice:             s.Batch.SalePrice,
				ExpiresAt:             s.Batch.ExpiresAt,
				SourceLocationID:      in.SourceLocationID,
				DestinationLocationID: in.DestLocationID,
				Status:                entity.DetailStatusAvailable,
				CreatedAt:             now,
				UpdatedAt:             now,
			}
			if err := repos.Details.Create(ctx, detail); err != nil {
				return fmt.Errorf("create transfer detail: %w", err)
			}
			res.Slices = append(res.Slices, TransferSlice{
				SourceBatchID:      s.Batch.ID,
				DestinationBatchID: dest.ID,
				BatchReference:     s.Batch.Reference,
				Quantity:           s.Quantity,
				Merged:             merged,
				DetailID:           detail.ID,
			})
		}

		return e.refreshStockLevels(ctx, repos, in.ProductID, in.SourceLocationID, in.DestLocationID)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("reference", reference).
		Str("product_id", in.ProductID).
		Str("source_location_id", in.SourceLocationID).
		Str("dest_location_id", in.DestLocationID).
		Int64("quantity", in.Quantity).
		Int("slices", len(res.Slices)).
		Msg("traslado aplicado")
	return res, nil
}

// receiveTransferred suma la porción al lote destino con la misma referencia o crea uno nuevo
// copiando costo, precio y vencimiento del lote origen.
func (e *Engine) receiveTransferred(ctx context.Context, repos TxRepos, destLocationID string, s appliedSlice) (*entity.Batch, bool, error) {
	dest, err := repos.Batches.FindByReferenceForUpdate(ctx, s.Batch.ProductID, destLocationID, s.Batch.Reference)
	if err != nil {
		return nil, false, fmt.Errorf("find destination batch: %w", err)
	}
	if dest != nil {
		newQty, err := repos.Batches.Increment(ctx, dest.ID, s.Quantity)
		if err != nil {
			return nil, false, fmt.Errorf("increment destination batch: %w", err)
		}
		dest.AvailableQuantity = newQty
		return dest, true, nil
	}

	now := e.now()
	dest = &entity.Batch{
		Reference:         s.Batch.Reference,
		ProductID:         s.Batch.ProductID,
		LocationID:        destLocationID,
		AvailableQuantity: s.Quantity,
		UnitCost:          s.Batch.UnitCost,
		SalePrice:         s.Batch.SalePrice,
		ExpiresAt:         s.Batch.ExpiresAt,
		EnteredAt:         now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := repos.Batches.Create(ctx, dest); err != nil {
		return nil, false, fmt.Errorf("create destination batch: %w", err)
	}
	return dest, false, nil
}
