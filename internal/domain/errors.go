package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrConcurrentModification = errors.New("el lote fue modificado por otra transacción")
	ErrInvalidLocation        = errors.New("ubicación inválida")
	ErrInvalidProduct         = errors.New("producto inválido")
	ErrWouldGoNegative        = errors.New("el ajuste dejaría la cantidad en negativo")
	ErrNoRestorableBatch      = errors.New("no hay lote de origen para restaurar")
)

// InsufficientStockError detalla cuánto había disponible frente a lo solicitado.
// errors.Is(err, ErrInsufficientStock) es verdadero.
type InsufficientStockError struct {
	ProductID  string
	LocationID string
	Available  int64
	Requested  int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s en ubicación %s: disponible %d, solicitado %d",
		e.ProductID, e.LocationID, e.Available, e.Requested)
}

// Is permite comparar contra el centinela ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// WouldGoNegativeError detalla un ajuste rechazado.
type WouldGoNegativeError struct {
	BatchID string
	Current int64
	Delta   int64
}

func (e *WouldGoNegativeError) Error() string {
	return fmt.Sprintf("ajuste de %d sobre lote %s (cantidad %d) dejaría %d",
		e.Delta, e.BatchID, e.Current, e.Current+e.Delta)
}

// Is permite comparar contra el centinela ErrWouldGoNegative.
func (e *WouldGoNegativeError) Is(target error) bool {
	return target == ErrWouldGoNegative
}
