package inventory

import (
	"context"
	"strings"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// MovementsByReference devuelve las entradas del kardex de una operación en el orden escrito.
func (e *Engine) MovementsByReference(ctx context.Context, reference string) ([]*entity.StockMovement, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, domain.ErrInvalidInput
	}
	var out []*entity.StockMovement
	err := e.txRunner.Run(ctx, func(repos TxRepos) error {
		var err error
		out, err = repos.Movements.ListByReference(ctx, reference)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
