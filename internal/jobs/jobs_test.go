package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

type stubReconciler struct {
	report *inventory.ReconcileReport
	err    error
	calls  int
}

func (s *stubReconciler) ReconcileStockLevels(context.Context) (*inventory.ReconcileReport, error) {
	s.calls++
	return s.report, s.err
}

type stubGauge struct{ last int }

func (g *stubGauge) SetDriftedLevels(n int) { g.last = n }

// ──────────────────────────────────────────────────────────────────────────────
// Tareas
// ──────────────────────────────────────────────────────────────────────────────

func TestNewReconcileTask(t *testing.T) {
	at := time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC)
	task, err := NewReconcileTask(at, "cron")
	require.NoError(t, err)
	assert.Equal(t, TaskReconcileStockLevels, task.Type())

	var payload ReconcilePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.True(t, payload.ScheduledFor.Equal(at))
	assert.Equal(t, "cron", payload.Trigger)
}

// ──────────────────────────────────────────────────────────────────────────────
// Handler
// ──────────────────────────────────────────────────────────────────────────────

func TestReconcileJob_PublishesDrift(t *testing.T) {
	engine := &stubReconciler{report: &inventory.ReconcileReport{
		Checked: 3,
		Drifted: []inventory.StockLevelDrift{{ProductID: "P", LocationID: "L1", Stored: 1, Expected: 8}},
	}}
	gauge := &stubGauge{last: -1}
	job := NewReconcileJob(engine, gauge, logger.Nop())

	task, err := NewReconcileTask(time.Now(), "manual")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, 1, engine.calls)
	assert.Equal(t, 1, gauge.last)
}

func TestReconcileJob_BadPayloadSkipsRetry(t *testing.T) {
	engine := &stubReconciler{report: &inventory.ReconcileReport{}}
	job := NewReconcileJob(engine, nil, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskReconcileStockLevels, []byte("{no es json")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
	assert.Zero(t, engine.calls)
}

func TestReconcileJob_EngineErrorIsRetried(t *testing.T) {
	engine := &stubReconciler{err: errors.New("db caída")}
	job := NewReconcileJob(engine, nil, nil)

	task, err := NewReconcileTask(time.Now(), "cron")
	require.NoError(t, err)
	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

// ──────────────────────────────────────────────────────────────────────────────
// Worker
// ──────────────────────────────────────────────────────────────────────────────

func TestNewWorker_InvalidCron(t *testing.T) {
	mr := miniredis.RunT(t)
	task, err := NewReconcileTask(time.Now(), "cron")
	require.NoError(t, err)

	_, err = NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: mr.Addr()},
		Cron:      []CronRegistration{{Spec: "no es cron", Task: task}},
	})
	assert.Error(t, err)
}
