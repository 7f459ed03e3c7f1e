package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-lotes/internal/domain"
)

func TestInsufficientStockError_IsSentinel(t *testing.T) {
	err := fmt.Errorf("transfer: %w", &domain.InsufficientStockError{
		ProductID: "P", LocationID: "L1", Available: 4, Requested: 9,
	})

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.NotErrorIs(t, err, domain.ErrWouldGoNegative)

	var detail *domain.InsufficientStockError
	require.True(t, errors.As(err, &detail))
	assert.Equal(t, int64(4), detail.Available)
	assert.Equal(t, int64(9), detail.Requested)
	assert.Contains(t, err.Error(), "disponible 4, solicitado 9")
}

func TestWouldGoNegativeError_IsSentinel(t *testing.T) {
	err := &domain.WouldGoNegativeError{BatchID: "B1", Current: 3, Delta: -5}

	assert.ErrorIs(t, err, domain.ErrWouldGoNegative)
	assert.Contains(t, err.Error(), "dejaría -2")
}
