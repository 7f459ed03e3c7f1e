package inventory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/inventory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(t time.Time) *time.Time { return &t }

func batch(id string, entered string, qty int64) *entity.Batch {
	return &entity.Batch{
		ID:                id,
		Reference:         "LOT-" + id,
		ProductID:         "P",
		LocationID:        "L1",
		AvailableQuantity: qty,
		EnteredAt:         day(entered),
	}
}

func ids(plan []inventory.Slice) []string {
	out := make([]string, 0, len(plan))
	for _, s := range plan {
		out = append(out, s.Batch.ID)
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Allocate
// ──────────────────────────────────────────────────────────────────────────────

func TestAllocate_FIFOPorFechaDeIngreso(t *testing.T) {
	batches := []*entity.Batch{
		batch("b3", "2024-03-01", 5),
		batch("b1", "2024-01-01", 5),
		batch("b2", "2024-02-01", 5),
	}

	plan, err := inventory.Allocate("P", "L1", batches, 8)
	require.NoError(t, err)

	require.Len(t, plan, 2, "no debe tocar el tercer lote")
	assert.Equal(t, []string{"b1", "b2"}, ids(plan))
	assert.Equal(t, int64(5), plan[0].Quantity)
	assert.Equal(t, int64(3), plan[1].Quantity)
	assert.Equal(t, int64(8), inventory.Total(plan))
}

func TestAllocate_VencimientoPrimeroYSinVencimientoAlFinal(t *testing.T) {
	sinVencimiento := batch("a", "2023-01-01", 4)
	tardio := batch("b", "2024-06-01", 4)
	tardio.ExpiresAt = ptr(day("2026-12-31"))
	temprano := batch("c", "2024-07-01", 4)
	temprano.ExpiresAt = ptr(day("2025-01-31"))

	plan, err := inventory.Allocate("P", "L1", []*entity.Batch{sinVencimiento, tardio, temprano}, 12)
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "b", "a"}, ids(plan))
}

func TestAllocate_DesempatePorID(t *testing.T) {
	batches := []*entity.Batch{
		batch("z", "2024-01-01", 1),
		batch("m", "2024-01-01", 1),
		batch("a", "2024-01-01", 1),
	}

	for i := 0; i < 5; i++ {
		plan, err := inventory.Allocate("P", "L1", batches, 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "m", "z"}, ids(plan), "el orden debe ser determinista")
	}
}

func TestAllocate_CantidadCeroDevuelvePlanVacio(t *testing.T) {
	plan, err := inventory.Allocate("P", "L1", []*entity.Batch{batch("b1", "2024-01-01", 5)}, 0)
	require.NoError(t, err)
	assert.Empty(t, plan)
}

func TestAllocate_InsuficienteNoModificaNada(t *testing.T) {
	batches := []*entity.Batch{
		batch("b1", "2024-01-01", 5),
		batch("b2", "2024-02-01", 5),
	}

	plan, err := inventory.Allocate("P", "L1", batches, 11)
	require.Error(t, err)
	assert.Nil(t, plan)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var detail *domain.InsufficientStockError
	require.True(t, errors.As(err, &detail))
	assert.Equal(t, int64(10), detail.Available)
	assert.Equal(t, int64(11), detail.Requested)

	assert.Equal(t, int64(5), batches[0].AvailableQuantity)
	assert.Equal(t, int64(5), batches[1].AvailableQuantity)
}

func TestAllocate_IgnoraLotesVaciosYDeOtraUbicacion(t *testing.T) {
	vacio := batch("b0", "2023-01-01", 0)
	otraUbicacion := batch("bx", "2023-01-01", 50)
	otraUbicacion.LocationID = "L2"
	valido := batch("b1", "2024-01-01", 3)

	plan, err := inventory.Allocate("P", "L1", []*entity.Batch{vacio, otraUbicacion, valido}, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, ids(plan))
}

func TestAllocate_CantidadNegativaEsInvalida(t *testing.T) {
	_, err := inventory.Allocate("P", "L1", nil, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Thresholds
// ──────────────────────────────────────────────────────────────────────────────

func TestThresholds_Classify(t *testing.T) {
	th := inventory.DefaultThresholds
	assert.Equal(t, entity.StockStatusOutOfStock, th.Classify(0))
	assert.Equal(t, entity.StockStatusOutOfStock, th.Classify(-3))
	assert.Equal(t, entity.StockStatusLowStock, th.Classify(1))
	assert.Equal(t, entity.StockStatusLowStock, th.Classify(10))
	assert.Equal(t, entity.StockStatusInStock, th.Classify(11))

	custom := inventory.Thresholds{OutOfStock: 2, LowStock: 20}
	assert.Equal(t, entity.StockStatusOutOfStock, custom.Classify(2))
	assert.Equal(t, entity.StockStatusLowStock, custom.Classify(20))
}
