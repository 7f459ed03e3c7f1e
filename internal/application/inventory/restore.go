package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// RestoreInput devolución de unidades a una ubicación.
// Con SaleReference la devolución va a los lotes exactos de esa venta; sin ella se usa
// la heurística del detalle de traslado más antiguo con consumo.
type RestoreInput struct {
	ProductID     string `validate:"required"`
	LocationID    string `validate:"required"`
	Quantity      int64  `validate:"gt=0"`
	Actor         string `validate:"required"`
	SaleReference string
	Reason        string
}

// RestoredBatch cantidad devuelta a un lote.
type RestoredBatch struct {
	BatchID     string
	Quantity    int64
	NewQuantity int64
}

// RestoreResult resultado de una devolución. BatchID y NewQuantity corresponden al primer lote afectado.
type RestoreResult struct {
	// Reference es RST-<uuid> en modo heurístico. En modo exacto es la referencia de la venta:
	// las devoluciones quedan en el kardex junto a sus salidas, y de esa suma sale lo que aún
	// se puede devolver.
	Reference   string
	BatchID     string
	NewQuantity int64
	Exact       bool
	Restored    []RestoredBatch
	MovementIDs []string
}

// Restore devuelve unidades a la ubicación en una transacción y deja entradas RESTORATION en el kardex.
//
// El modo heurístico es aproximado: recorre los detalles de traslado con consumo > 0 del más
// antiguo al más reciente aunque la venta original haya salido de otro lote.
func (e *Engine) Restore(ctx context.Context, in RestoreInput) (res *RestoreResult, err error) {
	start := e.now()
	defer func() { e.observe(OpRestore, start, in.Quantity, err) }()

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
		var err error
		if in.SaleReference != "" {
			res, err = e.restoreExact(ctx, repos, in)
		} else {
			res, err = e.restoreHeuristic(ctx, repos, in)
		}
		if err != nil {
			return err
		}
		return e.refreshStockLevels(ctx, repos, in.ProductID, in.LocationID)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("reference", res.Reference).
		Str("product_id", in.ProductID).
		Str("location_id", in.LocationID).
		Int64("quantity", in.Quantity).
		Bool("exact", res.Exact).
		Msg("devolución aplicada")
	return res, nil
}

// restoreHeuristic libera consumo en los detalles de traslado de la ubicación, el más antiguo primero,
// y devuelve a cada lote destino lo liberado en sus filas. Lo que ninguna fila absorbe va al
// primer lote tocado sin detalle que lo respalde.
func (e *Engine) restoreHeuristic(ctx context.Context, repos TxRepos, in RestoreInput) (*RestoreResult, error) {
	rows, err := repos.Details.ListRestorableForUpdate(ctx, in.ProductID, in.LocationID)
	if err != nil {
		return nil, fmt.Errorf("lock transfer details: %w", err)
	}

	reference := newReference("RST")
	if len(rows) == 0 {
		all, err := repos.Batches.ListByProductLocation(ctx, in.ProductID, in.LocationID)
		if err != nil {
			return nil, fmt.Errorf("list batches: %w", err)
		}
		if len(all) == 0 {
			return nil, domain.ErrNoRestorableBatch
		}
		batch, err := repos.Batches.GetForUpdate(ctx, all[0].ID)
		if err != nil {
			return nil, fmt.Errorf("lock batch: %w", err)
		}
		restored, id, err := e.restoreOnto(ctx, repos, batch, in.Quantity, reference, in)
		if err != nil {
			return nil, err
		}
		return &RestoreResult{
			Reference:   reference,
			BatchID:     restored.BatchID,
			NewQuantity: restored.NewQuantity,
			Restored:    []RestoredBatch{restored},
			MovementIDs: []string{id},
		}, nil
	}

	var order []*entity.Batch
	perBatch := map[string]int64{}
	remaining := in.Quantity
	for _, row := range rows {
		if remaining == 0 {
			break
		}
		batch, err := e.detailBatch(ctx, repos, in.LocationID, row)
		if err != nil {
			return nil, err
		}
		back := min(remaining, row.ConsumedQuantity)
		row.ConsumedQuantity -= back
		row.Status = entity.DetailStatusFor(row.Quantity, row.ConsumedQuantity)
		if err := repos.Details.UpdateConsumption(ctx, row.ID, row.ConsumedQuantity, row.Status); err != nil {
			return nil, fmt.Errorf("update transfer detail: %w", err)
		}
		if _, seen := perBatch[batch.ID]; !seen {
			order = append(order, batch)
		}
		perBatch[batch.ID] += back
		remaining -= back
	}
	if remaining > 0 {
		e.log.Warn().
			Str("product_id", in.ProductID).
			Str("location_id", in.LocationID).
			Str("batch_id", order[0].ID).
			Int64("untraced", remaining).
			Msg("devolución mayor que el consumo de traslados registrado")
		perBatch[order[0].ID] += remaining
	}

	res := &RestoreResult{Reference: reference}
	for _, batch := range order {
		restored, id, err := e.restoreOnto(ctx, repos, batch, perBatch[batch.ID], reference, in)
		if err != nil {
			return nil, err
		}
		res.Restored = append(res.Restored, restored)
		res.MovementIDs = append(res.MovementIDs, id)
	}
	res.BatchID = res.Restored[0].BatchID
	res.NewQuantity = res.Restored[0].NewQuantity
	return res, nil
}

// detailBatch resuelve el lote destino de un detalle: por ID o, en filas heredadas, por referencia.
func (e *Engine) detailBatch(ctx context.Context, repos TxRepos, locationID string, detail *entity.TransferBatchDetail) (*entity.Batch, error) {
	if detail.DestinationBatchID != nil {
		b, err := repos.Batches.GetForUpdate(ctx, *detail.DestinationBatchID)
		if err != nil {
			return nil, fmt.Errorf("lock batch: %w", err)
		}
		if b == nil {
			return nil, fmt.Errorf("%w: lote destino %s no existe", domain.ErrNoRestorableBatch, *detail.DestinationBatchID)
		}
		return b, nil
	}
	b, err := repos.Batches.FindByReferenceForUpdate(ctx, detail.ProductID, locationID, detail.BatchReference)
	if err != nil {
		return nil, fmt.Errorf("find batch by reference: %w", err)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: lote %s no encontrado en la ubicación", domain.ErrNoRestorableBatch, detail.BatchReference)
	}
	return b, nil
}

type saleTake struct {
	batchID string
	net     int64
}

// restoreExact devuelve a los lotes de la venta, la última porción primero, sin superar lo vendido
// menos lo ya devuelto con esa misma referencia.
func (e *Engine) restoreExact(ctx context.Context, repos TxRepos, in RestoreInput) (*RestoreResult, error) {
	entries, err := repos.Movements.ListByReference(ctx, in.SaleReference)
	if err != nil {
		return nil, fmt.Errorf("list sale movements: %w", err)
	}

	var takes []*saleTake
	index := map[string]*saleTake{}
	var total int64
	for _, m := range entries {
		if m.ProductID != in.ProductID || m.LocationID != in.LocationID || m.BatchID == nil {
			continue
		}
		var signed int64
		switch {
		case m.Origin == entity.OriginSale && m.Direction == entity.DirectionOUT:
			signed = m.Quantity
		case m.Origin == entity.OriginRestoration && m.Direction == entity.DirectionIN:
			signed = -m.Quantity
		default:
			continue
		}
		t, ok := index[*m.BatchID]
		if !ok {
			t = &saleTake{batchID: *m.BatchID}
			index[*m.BatchID] = t
			takes = append(takes, t)
		}
		t.net += signed
		total += signed
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: la venta %s no tiene unidades por devolver", domain.ErrNoRestorableBatch, in.SaleReference)
	}
	if in.Quantity > total {
		return nil, fmt.Errorf("%w: restaurable %d, solicitado %d", domain.ErrNoRestorableBatch, total, in.Quantity)
	}

	res := &RestoreResult{Reference: in.SaleReference, Exact: true}
	remaining := in.Quantity
	for i := len(takes) - 1; i >= 0 && remaining > 0; i-- {
		t := takes[i]
		if t.net <= 0 {
			continue
		}
		qty := min(remaining, t.net)
		batch, err := repos.Batches.GetForUpdate(ctx, t.batchID)
		if err != nil {
			return nil, fmt.Errorf("lock batch: %w", err)
		}
		restored, id, err := e.restoreOnto(ctx, repos, batch, qty, in.SaleReference, in)
		if err != nil {
			return nil, err
		}
		if err := e.releaseDetails(ctx, repos, batch.ID, qty); err != nil {
			return nil, err
		}
		res.Restored = append(res.Restored, restored)
		res.MovementIDs = append(res.MovementIDs, id)
		remaining -= qty
	}
	res.BatchID = res.Restored[0].BatchID
	res.NewQuantity = res.Restored[0].NewQuantity
	return res, nil
}

// releaseDetails revierte consumo en los detalles del lote, el más reciente primero.
func (e *Engine) releaseDetails(ctx context.Context, repos TxRepos, batchID string, quantity int64) error {
	rows, err := repos.Details.ListConsumedByDestinationBatchForUpdate(ctx, batchID)
	if err != nil {
		return fmt.Errorf("lock transfer details: %w", err)
	}
	remaining := quantity
	for _, row := range rows {
		if remaining == 0 {
			break
		}
		back := min(remaining, row.ConsumedQuantity)
		row.ConsumedQuantity -= back
		row.Status = entity.DetailStatusFor(row.Quantity, row.ConsumedQuantity)
		if err := repos.Details.UpdateConsumption(ctx, row.ID, row.ConsumedQuantity, row.Status); err != nil {
			return fmt.Errorf("update transfer detail: %w", err)
		}
		remaining -= back
	}
	return nil
}

func (e *Engine) restoreOnto(ctx context.Context, repos TxRepos, batch *entity.Batch, qty int64, reference string, in RestoreInput) (RestoredBatch, string, error) {
	if batch == nil {
		return RestoredBatch{}, "", domain.ErrNoRestorableBatch
	}
	previous := batch.AvailableQuantity
	newQty, err := repos.Batches.Increment(ctx, batch.ID, qty)
	if err != nil {
		return RestoredBatch{}, "", fmt.Errorf("increment batch: %w", err)
	}
	id, err := e.record(ctx, repos, &entity.StockMovement{
		ProductID:        batch.ProductID,
		LocationID:       batch.LocationID,
		BatchID:          ptr(batch.ID),
		Type:             entity.MovementTypeIN,
		Direction:        entity.DirectionIN,
		Quantity:         qty,
		Reference:        reference,
		Origin:           entity.OriginRestoration,
		Reason:           in.Reason,
		PreviousQuantity: ptr(previous),
		NewQuantity:      ptr(newQty),
		ExpiresAt:        batch.ExpiresAt,
		CreatedBy:        in.Actor,
	})
	if err != nil {
		return RestoredBatch{}, "", err
	}
	return RestoredBatch{BatchID: batch.ID, Quantity: qty, NewQuantity: newQty}, id, nil
}
