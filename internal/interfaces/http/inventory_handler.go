package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// InventoryEngine operaciones del motor de lotes que expone la API.
type InventoryEngine interface {
	Allocate(ctx context.Context, in inventory.AllocateInput) (*inventory.AllocationPlan, error)
	Transfer(ctx context.Context, in inventory.TransferInput) (*inventory.TransferResult, error)
	Consume(ctx context.Context, in inventory.ConsumeInput) (*inventory.ConsumptionResult, error)
	Receive(ctx context.Context, in inventory.ReceiveInput) (*inventory.ReceiveResult, error)
	Adjust(ctx context.Context, in inventory.AdjustInput) (*inventory.AdjustResult, error)
	Restore(ctx context.Context, in inventory.RestoreInput) (*inventory.RestoreResult, error)
	MovementsByReference(ctx context.Context, reference string) ([]*entity.StockMovement, error)
}

// InventoryHandler maneja las peticiones HTTP del motor de lotes.
type InventoryHandler struct {
	engine InventoryEngine
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(engine InventoryEngine) *InventoryHandler {
	return &InventoryHandler{engine: engine}
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// Allocate godoc
// @Summary      Calcular plan FIFO
// @Description  Devuelve las porciones de lote que cubrirían la cantidad. No reserva stock.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AllocateRequest  true  "product_id, location_id, quantity"
// @Success      200   {object}  dto.AllocationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/allocations [post]
func (h *InventoryHandler) Allocate(c *fiber.Ctx) error {
	var in dto.AllocateRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	plan, err := h.engine.Allocate(c.Context(), inventory.AllocateInput{
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		Quantity:   in.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AllocationResponse{
		ProductID:  plan.ProductID,
		LocationID: plan.LocationID,
		Requested:  plan.Requested,
		Slices:     toSliceResponses(plan.Slices),
	})
}

// Transfer godoc
// @Summary      Trasladar entre ubicaciones
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "product_id, source_location_id, dest_location_id, quantity, actor"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.engine.Transfer(c.Context(), inventory.TransferInput{
		ProductID:        in.ProductID,
		SourceLocationID: in.SourceLocationID,
		DestLocationID:   in.DestLocationID,
		Quantity:         in.Quantity,
		Actor:            in.Actor,
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.TransferResponse{
		Reference:        res.Reference,
		ProductID:        res.ProductID,
		SourceLocationID: res.SourceLocationID,
		DestLocationID:   res.DestLocationID,
		Quantity:         res.Quantity,
		Slices:           make([]dto.TransferSliceResponse, 0, len(res.Slices)),
		MovementIDs:      res.MovementIDs,
	}
	for _, s := range res.Slices {
		out.Slices = append(out.Slices, dto.TransferSliceResponse{
			SourceBatchID:      s.SourceBatchID,
			DestinationBatchID: s.DestinationBatchID,
			BatchReference:     s.BatchReference,
			Quantity:           s.Quantity,
			Merged:             s.Merged,
			DetailID:           s.DetailID,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Consume godoc
// @Summary      Registrar venta
// @Description  Descuenta en orden FIFO. Una sale_reference repetida devuelve 409 si la idempotencia está activa.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConsumeRequest  true  "product_id, location_id, quantity, sale_reference, actor"
// @Success      201   {object}  dto.ConsumptionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/consumptions [post]
func (h *InventoryHandler) Consume(c *fiber.Ctx) error {
	var in dto.ConsumeRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.engine.Consume(c.Context(), inventory.ConsumeInput{
		ProductID:     in.ProductID,
		LocationID:    in.LocationID,
		Quantity:      in.Quantity,
		SaleReference: in.SaleReference,
		Actor:         in.Actor,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ConsumptionResponse{
		SaleReference: res.SaleReference,
		Slices:        toSliceResponses(res.Slices),
		MovementIDs:   res.MovementIDs,
		Degraded:      res.Degraded,
	})
}

// Receive godoc
// @Summary      Ingresar lote
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveRequest  true  "Datos del lote"
// @Success      201   {object}  dto.ReceiveResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts [post]
func (h *InventoryHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.engine.Receive(c.Context(), inventory.ReceiveInput{
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		Reference:  in.Reference,
		Quantity:   in.Quantity,
		UnitCost:   in.UnitCost,
		SalePrice:  in.SalePrice,
		ExpiresAt:  in.ExpiresAt,
		EnteredAt:  in.EnteredAt,
		Actor:      in.Actor,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReceiveResponse{
		BatchID:      res.BatchID,
		Reference:    res.Reference,
		LotReference: res.LotReference,
		Quantity:     res.Quantity,
		MovementID:   res.MovementID,
	})
}

// Adjust godoc
// @Summary      Ajustar cantidad de un lote
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID del lote"
// @Param        body  body  dto.AdjustRequest  true  "delta, reason, actor"
// @Success      200   {object}  dto.AdjustResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/batches/{id}/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.engine.Adjust(c.Context(), inventory.AdjustInput{
		BatchID: c.Params("id"),
		Delta:   in.Delta,
		Reason:  in.Reason,
		Actor:   in.Actor,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AdjustResponse{
		BatchID:          res.BatchID,
		Reference:        res.Reference,
		PreviousQuantity: res.PreviousQuantity,
		NewQuantity:      res.NewQuantity,
		MovementID:       res.MovementID,
	})
}

// Restore godoc
// @Summary      Registrar devolución
// @Description  Sin sale_reference usa el detalle de traslado más antiguo con consumo (aproximado).
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RestoreRequest  true  "product_id, location_id, quantity, actor, sale_reference opcional"
// @Success      201   {object}  dto.RestoreResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/restorations [post]
func (h *InventoryHandler) Restore(c *fiber.Ctx) error {
	var in dto.RestoreRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.engine.Restore(c.Context(), inventory.RestoreInput{
		ProductID:     in.ProductID,
		LocationID:    in.LocationID,
		Quantity:      in.Quantity,
		Actor:         in.Actor,
		SaleReference: in.SaleReference,
		Reason:        in.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.RestoreResponse{
		Reference:   res.Reference,
		BatchID:     res.BatchID,
		NewQuantity: res.NewQuantity,
		Exact:       res.Exact,
		Restored:    make([]dto.RestoredBatchResponse, 0, len(res.Restored)),
		MovementIDs: res.MovementIDs,
	}
	for _, r := range res.Restored {
		out.Restored = append(out.Restored, dto.RestoredBatchResponse{
			BatchID:     r.BatchID,
			Quantity:    r.Quantity,
			NewQuantity: r.NewQuantity,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Movements godoc
// @Summary      Kardex de una operación
// @Tags         inventory
// @Produce      json
// @Param        reference  query  string  true  "Referencia de traslado, venta o ajuste"
// @Success      200  {object}  dto.MovementsResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	reference := c.Query("reference")
	list, err := h.engine.MovementsByReference(c.Context(), reference)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.MovementsResponse{
		Reference: reference,
		Total:     len(list),
		Movements: make([]dto.MovementResponse, 0, len(list)),
	}
	for _, m := range list {
		out.Movements = append(out.Movements, dto.MovementResponse{
			ID:               m.ID,
			ProductID:        m.ProductID,
			LocationID:       m.LocationID,
			BatchID:          m.BatchID,
			Type:             m.Type,
			Direction:        m.Direction,
			Quantity:         m.Quantity,
			Reference:        m.Reference,
			Origin:           m.Origin,
			Reason:           m.Reason,
			PreviousQuantity: m.PreviousQuantity,
			NewQuantity:      m.NewQuantity,
			ExpiresAt:        m.ExpiresAt,
			CreatedBy:        m.CreatedBy,
			CreatedAt:        m.CreatedAt,
		})
	}
	return c.JSON(out)
}

func toSliceResponses(slices []inventory.AllocatedSlice) []dto.BatchSliceResponse {
	out := make([]dto.BatchSliceResponse, 0, len(slices))
	for _, s := range slices {
		out = append(out, dto.BatchSliceResponse{
			BatchID:   s.BatchID,
			Reference: s.Reference,
			Quantity:  s.Quantity,
			UnitCost:  s.UnitCost,
			SalePrice: s.SalePrice,
			ExpiresAt: s.ExpiresAt,
		})
	}
	return out
}
