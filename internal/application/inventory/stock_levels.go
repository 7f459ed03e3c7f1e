package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// refreshStockLevels recalcula el agregado de cada ubicación a partir de los lotes.
// Las filas se bloquean ordenadas por ubicación para mantener un orden de locks estable.
func (e *Engine) refreshStockLevels(ctx context.Context, repos TxRepos, productID string, locationIDs ...string) error {
	ids := uniqueSorted(locationIDs)
	for _, locationID := range ids {
		level, err := repos.Levels.GetForUpdate(ctx, productID, locationID)
		if err != nil {
			return fmt.Errorf("lock stock level: %w", err)
		}
		sum, err := repos.Batches.SumAvailable(ctx, productID, locationID)
		if err != nil {
			return fmt.Errorf("sum batches: %w", err)
		}
		level.Quantity = sum + level.UntrackedQuantity
		level.Status = e.cfg.Thresholds.Classify(level.Quantity)
		level.UpdatedAt = e.now()
		if err := repos.Levels.Upsert(ctx, level); err != nil {
			return fmt.Errorf("upsert stock level: %w", err)
		}
	}
	return nil
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// stockLevelDrift diferencia entre lo guardado y lo que indican los lotes.
func stockLevelDrift(stored *entity.StockLevel, batchSum int64) int64 {
	return batchSum + stored.UntrackedQuantity - stored.Quantity
}
