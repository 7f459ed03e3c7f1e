package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// QueueDefault cola única del worker.
const QueueDefault = "default"

// TaskReconcileStockLevels recalcula los agregados de stock desde los lotes.
const TaskReconcileStockLevels = "inventory:reconcile_stock_levels"

// ReconcilePayload metadatos de la ejecución programada.
type ReconcilePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
	Trigger      string    `json:"trigger"` // cron | manual
}

// NewReconcileTask construye la tarea de conciliación.
func NewReconcileTask(at time.Time, trigger string) (*asynq.Task, error) {
	body, err := json.Marshal(ReconcilePayload{ScheduledFor: at, Trigger: trigger})
	if err != nil {
		return nil, fmt.Errorf("marshal reconcile payload: %w", err)
	}
	return asynq.NewTask(TaskReconcileStockLevels, body,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
	), nil
}
