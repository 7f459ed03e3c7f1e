package http

import (
	"context"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/observability"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Inventory InventoryEngine
	Metrics   *observability.Metrics
	// Ping verifica dependencias para /health; nil responde siempre ok.
	Ping    func(ctx context.Context) error
	AppName string
	// SwaggerFile ruta del swagger.json; vacío no monta /docs.
	SwaggerFile string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(deps.Metrics.Middleware())

	// Swagger UI en local: http://localhost:<port>/docs
	if deps.SwaggerFile != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: deps.SwaggerFile,
			Path:     "docs",
			Title:    "Inventario por lotes API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "UNAVAILABLE", Message: err.Error()})
			}
		}
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})
	app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))

	api := app.Group("/api")

	// Motor de lotes
	invGroup := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Inventory)
	invGroup.Post("/allocations", inventoryHandler.Allocate)
	invGroup.Post("/transfers", inventoryHandler.Transfer)
	invGroup.Post("/consumptions", inventoryHandler.Consume)
	invGroup.Post("/receipts", inventoryHandler.Receive)
	invGroup.Post("/restorations", inventoryHandler.Restore)
	invGroup.Post("/batches/:id/adjustments", inventoryHandler.Adjust)
	invGroup.Get("/movements", inventoryHandler.Movements)
}
