package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

// StockLevelRepo implementación de StockLevelRepository sobre PostgreSQL (usable con pool o tx).
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador del agregado. Pasar pool o tx (Querier).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

// GetForUpdate bloquea el agregado del producto en la ubicación (SELECT FOR UPDATE).
// Si la fila no existe la crea en cero para que el bloqueo también serialice el primer ingreso.
func (r *StockLevelRepo) GetForUpdate(ctx context.Context, productID, locationID string) (*entity.StockLevel, error) {
	insert := `
		INSERT INTO stock_levels (product_id, location_id, quantity, untracked_quantity, status, updated_at)
		VALUES ($1, $2, 0, 0, $3, now())
		ON CONFLICT (product_id, location_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, productID, locationID, entity.StockStatusOutOfStock); err != nil {
		return nil, mapPgError(fmt.Errorf("ensure stock level: %w", err))
	}

	query := `
		SELECT product_id, location_id, quantity, untracked_quantity, status, updated_at
		FROM stock_levels WHERE product_id = $1 AND location_id = $2
		FOR UPDATE`
	var l entity.StockLevel
	err := r.q.QueryRow(ctx, query, productID, locationID).Scan(
		&l.ProductID, &l.LocationID, &l.Quantity, &l.UntrackedQuantity, &l.Status, &l.UpdatedAt,
	)
	if err != nil {
		return nil, mapPgError(fmt.Errorf("get stock level for update: %w", err))
	}
	return &l, nil
}

// Upsert inserta o actualiza el agregado (por producto y ubicación).
func (r *StockLevelRepo) Upsert(ctx context.Context, level *entity.StockLevel) error {
	query := `
		INSERT INTO stock_levels (product_id, location_id, quantity, untracked_quantity, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (product_id, location_id)
		DO UPDATE SET quantity = EXCLUDED.quantity,
			untracked_quantity = EXCLUDED.untracked_quantity,
			status = EXCLUDED.status,
			updated_at = now()`
	_, err := r.q.Exec(ctx, query,
		level.ProductID, level.LocationID, level.Quantity, level.UntrackedQuantity, level.Status,
	)
	if err != nil {
		return mapPgError(fmt.Errorf("upsert stock level: %w", err))
	}
	return nil
}

// ListKeys pagina los agregados en orden estable, sin bloquear.
func (r *StockLevelRepo) ListKeys(ctx context.Context, limit, offset int) ([]entity.StockLevel, error) {
	query := `
		SELECT product_id, location_id, quantity, untracked_quantity, status, updated_at
		FROM stock_levels
		ORDER BY product_id, location_id
		LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	defer rows.Close()

	var list []entity.StockLevel
	for rows.Next() {
		var l entity.StockLevel
		if err := rows.Scan(&l.ProductID, &l.LocationID, &l.Quantity, &l.UntrackedQuantity, &l.Status, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		list = append(list, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	return list, nil
}
