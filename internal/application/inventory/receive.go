package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// ReceiveInput ingreso de un lote nuevo. EnteredAt vacío toma la hora actual.
type ReceiveInput struct {
	ProductID  string          `validate:"required"`
	LocationID string          `validate:"required"`
	Reference  string          `validate:"required,max=100"`
	Quantity   int64           `validate:"gt=0"`
	UnitCost   decimal.Decimal
	SalePrice  decimal.Decimal
	ExpiresAt  *time.Time
	EnteredAt  *time.Time
	Actor      string `validate:"required"`
}

// ReceiveResult lote creado y su entrada en el kardex. Reference identifica el ingreso (RCV-<uuid>);
// el código de lote queda en LotReference.
type ReceiveResult struct {
	BatchID      string
	Reference    string
	LotReference string
	Quantity     int64
	MovementID   string
}

// Receive crea el lote, registra la entrada RECEIPT y recalcula el agregado.
func (e *Engine) Receive(ctx context.Context, in ReceiveInput) (res *ReceiveResult, err error) {
	start := e.now()
	defer func() { e.observe(OpReceive, start, in.Quantity, err) }()

	if err := e.validateInput(in); err != nil {
		return nil, err
	}
	if in.UnitCost.IsNegative() || in.SalePrice.IsNegative() {
		return nil, fmt.Errorf("%w: costo y precio no pueden ser negativos", domain.ErrInvalidInput)
	}

	reference := newReference("RCV")
	err = e.txRunner.Run(ctx, func(repos TxRepos) error {
		if err := e.requireProduct(ctx, repos, in.ProductID); err != nil {
			return err
		}
		if err := e.requireLocation(ctx, repos, in.LocationID); err != nil {
			return err
		}

		now := e.now()
		entered := now
		if in.EnteredAt != nil {
			entered = *in.EnteredAt
		}
		batch := &entity.Batch{
			Reference:         in.Reference,
			ProductID:         in.ProductID,
			LocationID:        in.LocationID,
			AvailableQuantity: in.Quantity,
			UnitCost:          in.UnitCost,
			SalePrice:         in.SalePrice,
			ExpiresAt:         in.ExpiresAt,
			EnteredAt:         entered,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := repos.Batches.Create(ctx, batch); err != nil {
			return fmt.Errorf("create batch: %w", err)
		}
		id, err := e.record(ctx, repos, &entity.StockMovement{
			ProductID:   in.ProductID,
			LocationID:  in.LocationID,
			BatchID:     ptr(batch.ID),
			Type:        entity.MovementTypeIN,
			Direction:   entity.DirectionIN,
			Quantity:    in.Quantity,
			Reference:   reference,
			Origin:      entity.OriginReceipt,
			NewQuantity: ptr(in.Quantity),
			ExpiresAt:   in.ExpiresAt,
			CreatedBy:   in.Actor,
		})
		if err != nil {
			return err
		}
		res = &ReceiveResult{BatchID: batch.ID, Reference: reference, LotReference: in.Reference, Quantity: in.Quantity, MovementID: id}
		return e.refreshStockLevels(ctx, repos, in.ProductID, in.LocationID)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("reference", reference).
		Str("lot", in.Reference).
		Str("product_id", in.ProductID).
		Str("location_id", in.LocationID).
		Int64("quantity", in.Quantity).
		Msg("lote recibido")
	return res, nil
}
