package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del kardex sobre PostgreSQL. La tabla rechaza UPDATE y DELETE.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta una entrada del kardex.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (id, product_id, location_id, batch_id, type, direction, quantity,
			reference, origin, reason, previous_quantity, new_quantity, expires_at, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, m.LocationID, m.BatchID, m.Type, m.Direction, m.Quantity,
		m.Reference, m.Origin, m.Reason, m.PreviousQuantity, m.NewQuantity, m.ExpiresAt, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		return mapPgError(fmt.Errorf("insert stock movement: %w", err))
	}
	return nil
}

// ListByReference lista las entradas de una operación en orden de escritura.
func (r *StockMovementRepo) ListByReference(ctx context.Context, reference string) ([]*entity.StockMovement, error) {
	query := `
		SELECT id, product_id, location_id, batch_id, type, direction, quantity, reference, origin, reason,
			previous_quantity, new_quantity, expires_at, created_by, created_at
		FROM stock_movements
		WHERE reference = $1
		ORDER BY seq ASC`
	rows, err := r.q.Query(ctx, query, reference)
	if err != nil {
		return nil, mapPgError(fmt.Errorf("list stock movements: %w", err))
	}
	defer rows.Close()

	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		if err := rows.Scan(
			&m.ID, &m.ProductID, &m.LocationID, &m.BatchID, &m.Type, &m.Direction, &m.Quantity, &m.Reference,
			&m.Origin, &m.Reason, &m.PreviousQuantity, &m.NewQuantity, &m.ExpiresAt, &m.CreatedBy, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	return list, nil
}
