package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

const batchColumns = `id, reference, product_id, location_id, available_quantity, unit_cost, sale_price,
		expires_at, entered_at, created_at, updated_at`

// Orden FIFO: primero lo que vence antes; sin vencimiento al final.
const fifoOrder = `ORDER BY expires_at ASC NULLS LAST, entered_at ASC, id ASC`

// BatchRepo implementación de BatchRepository sobre PostgreSQL (usable con pool o tx).
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

// Create persiste un lote nuevo. Si no trae ID se genera uno.
func (r *BatchRepo) Create(ctx context.Context, b *entity.Batch) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	query := `
		INSERT INTO batches (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING created_at, updated_at`
	err := r.q.QueryRow(ctx, query,
		b.ID, b.Reference, b.ProductID, b.LocationID, b.AvailableQuantity, b.UnitCost, b.SalePrice,
		b.ExpiresAt, b.EnteredAt,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// GetByID obtiene un lote por ID.
func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.Batch, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1`, "get batch", id)
}

// GetForUpdate obtiene el lote y bloquea la fila (SELECT FOR UPDATE).
func (r *BatchRepo) GetForUpdate(ctx context.Context, id string) (*entity.Batch, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1 FOR UPDATE`, "get batch for update", id)
}

// ListAvailable lista los lotes con stock en orden FIFO, sin bloquear.
func (r *BatchRepo) ListAvailable(ctx context.Context, productID, locationID string) ([]*entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches
		WHERE product_id = $1 AND location_id = $2 AND available_quantity > 0 ` + fifoOrder
	return r.list(ctx, query, "list available batches", productID, locationID)
}

// ListAvailableForUpdate lista y bloquea los lotes con stock. El orden FIFO también fija
// el orden de adquisición de bloqueos.
func (r *BatchRepo) ListAvailableForUpdate(ctx context.Context, productID, locationID string) ([]*entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches
		WHERE product_id = $1 AND location_id = $2 AND available_quantity > 0 ` + fifoOrder + ` FOR UPDATE`
	return r.list(ctx, query, "list available batches for update", productID, locationID)
}

// ListByProductLocation lista todos los lotes, incluidos los agotados.
func (r *BatchRepo) ListByProductLocation(ctx context.Context, productID, locationID string) ([]*entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches
		WHERE product_id = $1 AND location_id = $2 ` + fifoOrder
	return r.list(ctx, query, "list batches", productID, locationID)
}

// FindByReferenceForUpdate busca el lote con el mismo código en la ubicación (para fusionar traslados).
func (r *BatchRepo) FindByReferenceForUpdate(ctx context.Context, productID, locationID, reference string) (*entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches
		WHERE product_id = $1 AND location_id = $2 AND reference = $3
		ORDER BY entered_at ASC, id ASC
		LIMIT 1
		FOR UPDATE`
	return r.getOne(ctx, query, "find batch by reference", productID, locationID, reference)
}

// LatestForProduct devuelve el lote ingresado más recientemente en cualquier ubicación.
func (r *BatchRepo) LatestForProduct(ctx context.Context, productID string) (*entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches
		WHERE product_id = $1
		ORDER BY entered_at DESC, id DESC
		LIMIT 1`
	return r.getOne(ctx, query, "latest batch", productID)
}

// Decrement resta qty de forma condicionada: si otra transacción dejó menos de qty,
// no actualiza nada y devuelve ErrConcurrentModification.
func (r *BatchRepo) Decrement(ctx context.Context, id string, qty int64) (int64, error) {
	query := `
		UPDATE batches
		SET available_quantity = available_quantity - $2, updated_at = now()
		WHERE id = $1 AND available_quantity >= $2
		RETURNING available_quantity`
	var remaining int64
	err := r.q.QueryRow(ctx, query, id, qty).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("decrement batch %s: %w", id, domain.ErrConcurrentModification)
		}
		return 0, mapPgError(fmt.Errorf("decrement batch: %w", err))
	}
	return remaining, nil
}

// Increment suma qty al lote.
func (r *BatchRepo) Increment(ctx context.Context, id string, qty int64) (int64, error) {
	query := `
		UPDATE batches
		SET available_quantity = available_quantity + $2, updated_at = now()
		WHERE id = $1
		RETURNING available_quantity`
	var total int64
	err := r.q.QueryRow(ctx, query, id, qty).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("increment batch %s: %w", id, domain.ErrNotFound)
		}
		return 0, mapPgError(fmt.Errorf("increment batch: %w", err))
	}
	return total, nil
}

// SumAvailable suma la cantidad disponible de todos los lotes del producto en la ubicación.
func (r *BatchRepo) SumAvailable(ctx context.Context, productID, locationID string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(available_quantity), 0)::BIGINT
		FROM batches WHERE product_id = $1 AND location_id = $2`
	var total int64
	if err := r.q.QueryRow(ctx, query, productID, locationID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum available: %w", err)
	}
	return total, nil
}

func (r *BatchRepo) getOne(ctx context.Context, query, op string, args ...any) (*entity.Batch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapPgError(fmt.Errorf("%s: %w", op, err))
	}
	return b, nil
}

func (r *BatchRepo) list(ctx context.Context, query, op string, args ...any) ([]*entity.Batch, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(fmt.Errorf("%s: %w", op, err))
	}
	defer rows.Close()

	var list []*entity.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(fmt.Errorf("%s: %w", op, err))
	}
	return list, nil
}

func scanBatch(row pgx.Row) (*entity.Batch, error) {
	var b entity.Batch
	err := row.Scan(
		&b.ID, &b.Reference, &b.ProductID, &b.LocationID, &b.AvailableQuantity, &b.UnitCost, &b.SalePrice,
		&b.ExpiresAt, &b.EnteredAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
