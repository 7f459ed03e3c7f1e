package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/inventory"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

// Nombres de operación usados en logs y métricas.
const (
	OpAllocate  = "allocate"
	OpTransfer  = "transfer"
	OpConsume   = "consume"
	OpAdjust    = "adjust"
	OpRestore   = "restore"
	OpReceive   = "receive"
	OpReconcile = "reconcile"
)

// Config parámetros del motor de lotes.
type Config struct {
	Thresholds     inventory.Thresholds
	LegacyFallback bool // permite vender stock heredado sin lotes
}

// DefaultConfig valores por defecto: umbrales 0/10 y camino degradado habilitado.
func DefaultConfig() Config {
	return Config{Thresholds: inventory.DefaultThresholds, LegacyFallback: true}
}

// Engine es el motor FIFO de lotes. Cada operación corre en una sola transacción
// obtenida de TxRunner y deja lotes, agregado y kardex consistentes entre sí.
type Engine struct {
	txRunner TxRunner
	cfg      Config
	log      *logger.Logger
	validate *validator.Validate
	guard    IdempotencyGuard
	recorder Recorder
	now      func() time.Time
}

// Option configura dependencias opcionales del motor.
type Option func(*Engine)

// WithIdempotencyGuard activa el control de ventas repetidas.
func WithIdempotencyGuard(g IdempotencyGuard) Option {
	return func(e *Engine) { e.guard = g }
}

// WithRecorder conecta las métricas.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine construye el motor.
func NewEngine(txRunner TxRunner, cfg Config, log *logger.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	e := &Engine{
		txRunner: txRunner,
		cfg:      cfg,
		log:      log.Component("engine"),
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) validateInput(in any) error {
	if err := e.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	return nil
}

func (e *Engine) requireProduct(ctx context.Context, repos TxRepos, productID string) error {
	p, err := repos.Products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidProduct
		}
		return err
	}
	if p == nil || !p.Active {
		return domain.ErrInvalidProduct
	}
	return nil
}

func (e *Engine) requireLocation(ctx context.Context, repos TxRepos, locationID string) error {
	l, err := repos.Locations.GetByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidLocation
		}
		return err
	}
	if l == nil || !l.Active {
		return domain.ErrInvalidLocation
	}
	return nil
}

// observe registra duración y resultado; err nil cuenta las unidades movidas.
func (e *Engine) observe(op string, start time.Time, units int64, err error) {
	if err != nil {
		e.log.Debug().Err(err).Str("operation", op).Msg("operación de inventario fallida")
	}
	if e.recorder == nil {
		return
	}
	e.recorder.ObserveOperation(op, Outcome(err), time.Since(start))
	if err == nil && units > 0 {
		e.recorder.AddUnits(op, units)
	}
}

// Outcome clasifica un error para métricas.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrConcurrentModification):
		return "concurrent_modification"
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidProduct),
		errors.Is(err, domain.ErrInvalidLocation):
		return "invalid"
	case errors.Is(err, domain.ErrWouldGoNegative):
		return "would_go_negative"
	case errors.Is(err, domain.ErrNoRestorableBatch):
		return "no_restorable_batch"
	case errors.Is(err, domain.ErrDuplicate):
		return "duplicate"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func newReference(prefix string) string {
	return prefix + "-" + uuid.New().String()
}

func ptr[T any](v T) *T { return &v }
