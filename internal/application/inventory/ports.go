package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

// TxRepos agrupa los repositorios atados a una misma transacción.
type TxRepos struct {
	Batches   repository.BatchRepository
	Movements repository.StockMovementRepository
	Details   repository.TransferDetailRepository
	Levels    repository.StockLevelRepository
	Products  repository.ProductRepository
	Locations repository.LocationRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; si no, Commit. Garantiza atomicidad para el motor de lotes.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}

// IdempotencyGuard evita aplicar dos veces la misma venta.
// Acquire devuelve false si la clave ya estaba tomada.
type IdempotencyGuard interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Recorder recibe métricas de las operaciones del motor.
type Recorder interface {
	ObserveOperation(operation, outcome string, elapsed time.Duration)
	AddUnits(operation string, units int64)
}
