package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	apphttp "github.com/jhoicas/inventario-lotes/internal/interfaces/http"
	"github.com/jhoicas/inventario-lotes/internal/observability"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// stubEngine responde con las funciones configuradas por cada test.
type stubEngine struct {
	allocate  func(inventory.AllocateInput) (*inventory.AllocationPlan, error)
	transfer  func(inventory.TransferInput) (*inventory.TransferResult, error)
	consume   func(inventory.ConsumeInput) (*inventory.ConsumptionResult, error)
	receive   func(inventory.ReceiveInput) (*inventory.ReceiveResult, error)
	adjust    func(inventory.AdjustInput) (*inventory.AdjustResult, error)
	restore   func(inventory.RestoreInput) (*inventory.RestoreResult, error)
	movements func(string) ([]*entity.StockMovement, error)
}

func (s *stubEngine) Allocate(_ context.Context, in inventory.AllocateInput) (*inventory.AllocationPlan, error) {
	return s.allocate(in)
}

func (s *stubEngine) Transfer(_ context.Context, in inventory.TransferInput) (*inventory.TransferResult, error) {
	return s.transfer(in)
}

func (s *stubEngine) Consume(_ context.Context, in inventory.ConsumeInput) (*inventory.ConsumptionResult, error) {
	return s.consume(in)
}

func (s *stubEngine) Receive(_ context.Context, in inventory.ReceiveInput) (*inventory.ReceiveResult, error) {
	return s.receive(in)
}

func (s *stubEngine) Adjust(_ context.Context, in inventory.AdjustInput) (*inventory.AdjustResult, error) {
	return s.adjust(in)
}

func (s *stubEngine) Restore(_ context.Context, in inventory.RestoreInput) (*inventory.RestoreResult, error) {
	return s.restore(in)
}

func (s *stubEngine) MovementsByReference(_ context.Context, reference string) ([]*entity.StockMovement, error) {
	return s.movements(reference)
}

func buildTestApp(engine apphttp.InventoryEngine, ping func(context.Context) error) *fiber.App {
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Inventory: engine,
		Metrics:   observability.NewMetrics(),
		Ping:      ping,
		AppName:   "inventario-lotes-test",
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decodeError(t *testing.T, raw []byte) dto.ErrorResponse {
	t.Helper()
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_Creado(t *testing.T) {
	var got inventory.TransferInput
	engine := &stubEngine{transfer: func(in inventory.TransferInput) (*inventory.TransferResult, error) {
		got = in
		return &inventory.TransferResult{
			Reference:        "TRF-1",
			ProductID:        in.ProductID,
			SourceLocationID: in.SourceLocationID,
			DestLocationID:   in.DestLocationID,
			Quantity:         in.Quantity,
			Slices: []inventory.TransferSlice{
				{SourceBatchID: "A", DestinationBatchID: "X", BatchReference: "LOT-2024", Quantity: 10},
				{SourceBatchID: "B", DestinationBatchID: "X", BatchReference: "LOT-2024", Quantity: 5, Merged: true},
			},
			MovementIDs: []string{"m1", "m2", "m3", "m4"},
		}, nil
	}}
	app := buildTestApp(engine, nil)

	resp, raw := doJSON(t, app, http.MethodPost, "/api/inventory/transfers",
		`{"product_id":"P","source_location_id":"L1","dest_location_id":"L2","quantity":15,"actor":"ana"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	assert.Equal(t, inventory.TransferInput{ProductID: "P", SourceLocationID: "L1", DestLocationID: "L2", Quantity: 15, Actor: "ana"}, got)

	var out dto.TransferResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "TRF-1", out.Reference)
	require.Len(t, out.Slices, 2)
	assert.True(t, out.Slices[1].Merged)
	assert.Len(t, out.MovementIDs, 4)
}

func TestConsume_StockInsuficienteDevuelveDetalle(t *testing.T) {
	engine := &stubEngine{consume: func(in inventory.ConsumeInput) (*inventory.ConsumptionResult, error) {
		return nil, &domain.InsufficientStockError{ProductID: in.ProductID, LocationID: in.LocationID, Available: 4, Requested: 6}
	}}
	app := buildTestApp(engine, nil)

	resp, raw := doJSON(t, app, http.MethodPost, "/api/inventory/consumptions",
		`{"product_id":"P","location_id":"L2","quantity":6,"sale_reference":"V-1","actor":"caja"}`)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	out := decodeError(t, raw)
	assert.Equal(t, "INSUFFICIENT_STOCK", out.Code)
	assert.EqualValues(t, 4, out.Details["available"])
	assert.EqualValues(t, 6, out.Details["requested"])
}

func TestConsume_Degradado(t *testing.T) {
	engine := &stubEngine{consume: func(in inventory.ConsumeInput) (*inventory.ConsumptionResult, error) {
		return &inventory.ConsumptionResult{SaleReference: in.SaleReference, MovementIDs: []string{"m1"}, Degraded: true}, nil
	}}
	app := buildTestApp(engine, nil)

	resp, raw := doJSON(t, app, http.MethodPost, "/api/inventory/consumptions",
		`{"product_id":"P","location_id":"L2","quantity":1,"sale_reference":"V-2","actor":"caja"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var out dto.ConsumptionResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.True(t, out.Degraded)
	assert.Empty(t, out.Slices)
}

func TestErrores_MapeoDeCodigos(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"concurrencia", fmt.Errorf("decrement batch b1: %w", domain.ErrConcurrentModification), fiber.StatusConflict, "CONCURRENT_MODIFICATION"},
		{"ubicación", domain.ErrInvalidLocation, fiber.StatusNotFound, "INVALID_LOCATION"},
		{"producto", domain.ErrInvalidProduct, fiber.StatusNotFound, "INVALID_PRODUCT"},
		{"sin lote restaurable", domain.ErrNoRestorableBatch, fiber.StatusUnprocessableEntity, "NO_RESTORABLE_BATCH"},
		{"validación", fmt.Errorf("%w: quantity", domain.ErrInvalidInput), fiber.StatusBadRequest, "VALIDATION"},
		{"duplicado", domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
		{"interno", errors.New("conexión rechazada"), fiber.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := &stubEngine{restore: func(inventory.RestoreInput) (*inventory.RestoreResult, error) {
				return nil, tc.err
			}}
			app := buildTestApp(engine, nil)
			resp, raw := doJSON(t, app, http.MethodPost, "/api/inventory/restorations",
				`{"product_id":"P","location_id":"L2","quantity":6,"actor":"caja"}`)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, decodeError(t, raw).Code)
		})
	}
}

func TestAdjust_UsaIDDeLaRuta(t *testing.T) {
	var got inventory.AdjustInput
	engine := &stubEngine{adjust: func(in inventory.AdjustInput) (*inventory.AdjustResult, error) {
		got = in
		return nil, &domain.WouldGoNegativeError{BatchID: in.BatchID, Current: 2, Delta: in.Delta}
	}}
	app := buildTestApp(engine, nil)

	resp, raw := doJSON(t, app, http.MethodPost, "/api/inventory/batches/b-77/adjustments",
		`{"delta":-5,"reason":"merma","actor":"bodega"}`)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "b-77", got.BatchID)
	assert.Equal(t, int64(-5), got.Delta)
	out := decodeError(t, raw)
	assert.Equal(t, "WOULD_GO_NEGATIVE", out.Code)
	assert.EqualValues(t, 2, out.Details["current"])
}

func TestReceive_CuerpoInvalido(t *testing.T) {
	app := buildTestApp(&stubEngine{}, nil)
	resp, raw := doJSON(t, app, http.MethodPost, "/api/inventory/receipts", `{"quantity":`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", decodeError(t, raw).Code)
}

func TestReceive_ParseaCostosYFechas(t *testing.T) {
	var got inventory.ReceiveInput
	engine := &stubEngine{receive: func(in inventory.ReceiveInput) (*inventory.ReceiveResult, error) {
		got = in
		return &inventory.ReceiveResult{BatchID: "b1", Reference: "RCV-1", LotReference: in.Reference, Quantity: in.Quantity, MovementID: "m1"}, nil
	}}
	app := buildTestApp(engine, nil)

	resp, raw := doJSON(t, app, http.MethodPost, "/api/inventory/receipts",
		`{"product_id":"P","location_id":"L1","reference":"LOT-9","quantity":12,"unit_cost":"1250.50","sale_price":"1900","expires_at":"2025-06-30T00:00:00Z","actor":"bodega"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.True(t, got.UnitCost.Equal(decimal.RequireFromString("1250.50")))
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, got.ExpiresAt.Equal(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, got.EnteredAt)

	var body dto.ReceiveResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "RCV-1", body.Reference)
	assert.Equal(t, "LOT-9", body.LotReference)
}

func TestMovements_PorReferencia(t *testing.T) {
	batchID := "X"
	engine := &stubEngine{movements: func(reference string) ([]*entity.StockMovement, error) {
		if reference == "" {
			return nil, domain.ErrInvalidInput
		}
		return []*entity.StockMovement{
			{ID: "m1", ProductID: "P", LocationID: "L2", BatchID: &batchID, Type: entity.MovementTypeOUT,
				Direction: entity.DirectionOUT, Quantity: 6, Reference: reference, Origin: entity.OriginSale, CreatedBy: "caja"},
		}, nil
	}}
	app := buildTestApp(engine, nil)

	resp, raw := doJSON(t, app, http.MethodGet, "/api/inventory/movements?reference=V-001", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out dto.MovementsResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, 1, out.Total)
	assert.Equal(t, "SALE", out.Movements[0].Origin)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/inventory/movements", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHealthYMetrics(t *testing.T) {
	app := buildTestApp(&stubEngine{}, func(context.Context) error { return errors.New("db caída") })

	resp, _ := doJSON(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	resp, raw := doJSON(t, app, http.MethodGet, "/metrics", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `inventario_http_requests_total{code="503",method="GET",route="/health"} 1`)
}

func TestDocs_SoloConSwaggerFile(t *testing.T) {
	app := buildTestApp(&stubEngine{}, nil)
	resp, _ := doJSON(t, app, http.MethodGet, "/docs", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	withDocs := fiber.New()
	apphttp.Router(withDocs, apphttp.RouterDeps{
		Inventory:   &stubEngine{},
		Metrics:     observability.NewMetrics(),
		SwaggerFile: "../../../docs/swagger.json",
	})
	resp, raw := doJSON(t, withDocs, http.MethodGet, "/docs", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "swagger")
}
