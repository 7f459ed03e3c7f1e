package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

// Reconciler es la parte del motor que usa el job.
type Reconciler interface {
	ReconcileStockLevels(ctx context.Context) (*inventory.ReconcileReport, error)
}

// DriftGauge publica cuántos agregados estaban desviados en la última pasada.
type DriftGauge interface {
	SetDriftedLevels(n int)
}

// ReconcileJob ejecuta la conciliación de agregados desde la cola.
type ReconcileJob struct {
	engine Reconciler
	gauge  DriftGauge
	log    *logger.Logger
}

// NewReconcileJob construye el job. gauge puede ser nil.
func NewReconcileJob(engine Reconciler, gauge DriftGauge, log *logger.Logger) *ReconcileJob {
	if log == nil {
		log = logger.Nop()
	}
	return &ReconcileJob{engine: engine, gauge: gauge, log: log.Component("reconcile")}
}

// Handle procesa una tarea TaskReconcileStockLevels. Un payload ilegible no se reintenta.
func (j *ReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		j.log.Error().Err(err).Str("task", t.Type()).Msg("payload de conciliación inválido")
		return fmt.Errorf("decode reconcile payload: %w", asynq.SkipRetry)
	}

	start := time.Now()
	report, err := j.engine.ReconcileStockLevels(ctx)
	if err != nil {
		j.log.Error().Err(err).Str("trigger", payload.Trigger).Msg("conciliación fallida")
		return fmt.Errorf("reconcile stock levels: %w", err)
	}
	if j.gauge != nil {
		j.gauge.SetDriftedLevels(len(report.Drifted))
	}
	j.log.Info().
		Str("trigger", payload.Trigger).
		Time("scheduled_for", payload.ScheduledFor).
		Int("checked", report.Checked).
		Int("drifted", len(report.Drifted)).
		Dur("elapsed", time.Since(start)).
		Msg("conciliación de stock completada")
	return nil
}
