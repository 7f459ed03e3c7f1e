package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

var _ repository.TransferDetailRepository = (*TransferDetailRepo)(nil)

const detailColumns = `id, transfer_reference, product_id, source_batch_id, destination_batch_id, batch_reference,
		quantity, consumed_quantity, unit_cost, sale_price, expires_at, source_location_id,
		destination_location_id, status, created_at, updated_at`

// TransferDetailRepo persiste los detalles de traslado por lote. seq conserva el orden de inserción.
type TransferDetailRepo struct {
	q Querier
}

// NewTransferDetailRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferDetailRepository(q Querier) *TransferDetailRepo {
	return &TransferDetailRepo{q: q}
}

// Create inserta un detalle de traslado.
func (r *TransferDetailRepo) Create(ctx context.Context, d *entity.TransferBatchDetail) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	query := `
		INSERT INTO transfer_batch_details (` + detailColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now(), now())
		RETURNING created_at, updated_at`
	err := r.q.QueryRow(ctx, query,
		d.ID, d.TransferReference, d.ProductID, d.SourceBatchID, d.DestinationBatchID, d.BatchReference,
		d.Quantity, d.ConsumedQuantity, d.UnitCost, d.SalePrice, d.ExpiresAt, d.SourceLocationID,
		d.DestinationLocationID, d.Status,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return mapPgError(fmt.Errorf("insert transfer detail: %w", err))
	}
	return nil
}

// ListOpenByDestinationBatchForUpdate bloquea las filas con saldo del lote destino, más antigua primero.
func (r *TransferDetailRepo) ListOpenByDestinationBatchForUpdate(ctx context.Context, destinationBatchID string) ([]*entity.TransferBatchDetail, error) {
	query := `SELECT ` + detailColumns + ` FROM transfer_batch_details
		WHERE destination_batch_id = $1 AND consumed_quantity < quantity
		ORDER BY seq ASC
		FOR UPDATE`
	return r.list(ctx, query, "list open transfer details", destinationBatchID)
}

// ListRestorableForUpdate bloquea las filas con consumo del producto en la ubicación destino, más antigua primero.
func (r *TransferDetailRepo) ListRestorableForUpdate(ctx context.Context, productID, locationID string) ([]*entity.TransferBatchDetail, error) {
	query := `SELECT ` + detailColumns + ` FROM transfer_batch_details
		WHERE product_id = $1 AND destination_location_id = $2 AND consumed_quantity > 0
		ORDER BY seq ASC
		FOR UPDATE`
	return r.list(ctx, query, "list restorable transfer details", productID, locationID)
}

// ListConsumedByDestinationBatchForUpdate bloquea las filas con consumo del lote destino, más reciente primero.
func (r *TransferDetailRepo) ListConsumedByDestinationBatchForUpdate(ctx context.Context, destinationBatchID string) ([]*entity.TransferBatchDetail, error) {
	query := `SELECT ` + detailColumns + ` FROM transfer_batch_details
		WHERE destination_batch_id = $1 AND consumed_quantity > 0
		ORDER BY seq DESC
		FOR UPDATE`
	return r.list(ctx, query, "list consumed transfer details", destinationBatchID)
}

// UpdateConsumption fija la cantidad consumida y el estado. La columna rechaza valores fuera de [0, quantity].
func (r *TransferDetailRepo) UpdateConsumption(ctx context.Context, id string, consumed int64, status string) error {
	query := `
		UPDATE transfer_batch_details
		SET consumed_quantity = $2, status = $3, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, consumed, status)
	if err != nil {
		return mapPgError(fmt.Errorf("update transfer detail: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update transfer detail %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *TransferDetailRepo) list(ctx context.Context, query, op string, args ...any) ([]*entity.TransferBatchDetail, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(fmt.Errorf("%s: %w", op, err))
	}
	defer rows.Close()

	var list []*entity.TransferBatchDetail
	for rows.Next() {
		var d entity.TransferBatchDetail
		if err := rows.Scan(
			&d.ID, &d.TransferReference, &d.ProductID, &d.SourceBatchID, &d.DestinationBatchID, &d.BatchReference,
			&d.Quantity, &d.ConsumedQuantity, &d.UnitCost, &d.SalePrice, &d.ExpiresAt, &d.SourceLocationID,
			&d.DestinationLocationID, &d.Status, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transfer detail: %w", err)
		}
		list = append(list, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(fmt.Errorf("%s: %w", op, err))
	}
	return list, nil
}
