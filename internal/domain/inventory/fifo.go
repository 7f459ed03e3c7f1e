package inventory

import (
	"sort"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// Slice es una porción de un lote asignada a una solicitud. La última puede ser parcial.
type Slice struct {
	Batch    *entity.Batch
	Quantity int64
}

// FIFOLess ordena lotes: vencimiento ascendente (sin vencimiento al final), luego fecha de
// ingreso ascendente y por último ID para que el orden sea total y repetible.
func FIFOLess(a, b *entity.Batch) bool {
	switch {
	case a.ExpiresAt == nil && b.ExpiresAt != nil:
		return false
	case a.ExpiresAt != nil && b.ExpiresAt == nil:
		return true
	case a.ExpiresAt != nil && b.ExpiresAt != nil && !a.ExpiresAt.Equal(*b.ExpiresAt):
		return a.ExpiresAt.Before(*b.ExpiresAt)
	}
	if !a.EnteredAt.Equal(b.EnteredAt) {
		return a.EnteredAt.Before(b.EnteredAt)
	}
	return a.ID < b.ID
}

// SortFIFO ordena en sitio según FIFOLess.
func SortFIFO(batches []*entity.Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		return FIFOLess(batches[i], batches[j])
	})
}

// Allocate calcula el plan FIFO para requested unidades del producto en la ubicación.
// No modifica los lotes: quien llama aplica el plan. Si la suma disponible no alcanza
// devuelve *domain.InsufficientStockError sin plan parcial.
func Allocate(productID, locationID string, batches []*entity.Batch, requested int64) ([]Slice, error) {
	if requested < 0 {
		return nil, domain.ErrInvalidInput
	}
	if requested == 0 {
		return []Slice{}, nil
	}

	candidates := make([]*entity.Batch, 0, len(batches))
	var available int64
	for _, b := range batches {
		if b.ProductID != productID || b.LocationID != locationID || !b.HasStock() {
			continue
		}
		candidates = append(candidates, b)
		available += b.AvailableQuantity
	}
	if available < requested {
		return nil, &domain.InsufficientStockError{
			ProductID:  productID,
			LocationID: locationID,
			Available:  available,
			Requested:  requested,
		}
	}
	SortFIFO(candidates)

	plan := make([]Slice, 0, len(candidates))
	remaining := requested
	for _, b := range candidates {
		if remaining == 0 {
			break
		}
		take := min(remaining, b.AvailableQuantity)
		plan = append(plan, Slice{Batch: b, Quantity: take})
		remaining -= take
	}
	return plan, nil
}

// Total suma las cantidades del plan.
func Total(plan []Slice) int64 {
	var total int64
	for _, s := range plan {
		total += s.Quantity
	}
	return total
}
