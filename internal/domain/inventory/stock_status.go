package inventory

import "github.com/jhoicas/inventario-lotes/internal/domain/entity"

// Thresholds umbrales de clasificación del stock (inclusive).
type Thresholds struct {
	OutOfStock int64 // cantidad <= OutOfStock -> agotado
	LowStock   int64 // cantidad <= LowStock -> stock bajo
}

// DefaultThresholds: <= 0 agotado, <= 10 bajo.
var DefaultThresholds = Thresholds{OutOfStock: 0, LowStock: 10}

// Classify deriva el estado del stock para una cantidad total.
func (t Thresholds) Classify(quantity int64) string {
	switch {
	case quantity <= t.OutOfStock:
		return entity.StockStatusOutOfStock
	case quantity <= t.LowStock:
		return entity.StockStatusLowStock
	default:
		return entity.StockStatusInStock
	}
}
