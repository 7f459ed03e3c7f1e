package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	appinventory "github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain/inventory"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-lotes/internal/jobs"
	"github.com/jhoicas/inventario-lotes/internal/observability"
	"github.com/jhoicas/inventario-lotes/pkg/config"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

func main() {
	enqueue := flag.Bool("enqueue", false, "encola una conciliación inmediata y termina")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: cfg.App.Name + "-worker"})

	if cfg.Redis.Addr == "" {
		log.Fatal().Msg("REDIS_ADDR es obligatorio para el worker")
	}
	redisOpts := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *enqueue {
		client := jobs.NewClient(redisOpts)
		defer client.Close()
		info, err := client.EnqueueReconcile(ctx, "manual")
		if err != nil {
			log.Fatal().Err(err).Msg("encolar conciliación")
		}
		log.Info().Str("task_id", info.ID).Str("queue", info.Queue).Msg("conciliación encolada")
		return
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	metrics := observability.NewMetrics()
	engine := appinventory.NewEngine(
		postgres.NewTxRunner(pool, cfg.Engine.LockTimeout),
		appinventory.Config{
			Thresholds: inventory.Thresholds{
				LowStock:   cfg.Engine.LowStockThreshold,
				OutOfStock: cfg.Engine.OutOfStockThreshold,
			},
			LegacyFallback: cfg.Engine.LegacyFallback,
		},
		log,
		appinventory.WithRecorder(metrics),
	)

	if cfg.Worker.MetricsAddr != "" {
		metricsSrv := &http.Server{
			Addr:              cfg.Worker.MetricsAddr,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("servidor de métricas finalizado")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	reconcileJob := jobs.NewReconcileJob(engine, metrics, log)
	reconcileTask, err := jobs.NewReconcileTask(time.Now().UTC(), "cron")
	if err != nil {
		log.Fatal().Err(err).Msg("construir tarea de conciliación")
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Concurrency: cfg.Worker.Concurrency,
		Logger:      log,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReconcileStockLevels, Handler: reconcileJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.Worker.ReconcileCron, Task: reconcileTask},
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("iniciar worker")
	}

	log.Info().Str("cron", cfg.Worker.ReconcileCron).Msg("worker de conciliación listo")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker finalizado con error")
		os.Exit(1)
	}
	log.Info().Msg("worker detenido")
}
