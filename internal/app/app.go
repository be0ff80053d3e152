package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"MedTracker/internal/adherence"
	"MedTracker/internal/auth"
	"MedTracker/internal/config"
	"MedTracker/internal/domain"
	"MedTracker/internal/infrastructure/delivery"
	"MedTracker/internal/infrastructure/media"
	"MedTracker/internal/infrastructure/queue"
	"MedTracker/internal/infrastructure/scheduler"
	"MedTracker/internal/infrastructure/storage"
	"MedTracker/internal/infrastructure/vision"
	"MedTracker/internal/logging"
	"MedTracker/internal/usecase"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.Postgres
	queue     *queue.Queue
	scheduler *scheduler.IntervalScheduler

	Jobs       *usecase.Jobs
	Deliverer  *usecase.Deliverer
	Tracker    *usecase.Tracker
	Analyzer   *usecase.Analyzer
	Aggregator *adherence.Aggregator
	Tokens     *auth.Tokens
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	clock := systemClock{}
	taskQueue := queue.New(cfg.Queue.Workers, baseLogger.With("component", "queue"))

	deliverer := usecase.NewDeliverer(usecase.DelivererDeps{
		Notifications: store,
		Queue:         taskQueue,
		Clock:         clock,
		Logger:        baseLogger.With("component", "delivery"),
	})
	deliverer.RegisterSink(domain.DeliveryPush, delivery.NewPushSink(cfg.Delivery.PushGatewayURL, cfg.Delivery.PushAPIKey))
	deliverer.RegisterSink(domain.DeliveryEmail, delivery.NewEmailSink(cfg.Delivery.EmailGatewayURL, cfg.Delivery.EmailAPIKey, cfg.Delivery.EmailSender))

	scan := usecase.NewScan(usecase.ScanDeps{
		Reminders:     store,
		Logs:          store,
		Notifications: store,
		Deliverer:     deliverer,
		Logger:        baseLogger.With("component", "scan"),
	})
	sweep := usecase.NewMissedSweep(usecase.MissedSweepDeps{
		Logs:      store,
		Contacts:  store,
		Deliverer: deliverer,
		Logger:    baseLogger.With("component", "sweep"),
	})
	cleanup := usecase.NewCleanup(store, store, baseLogger.With("component", "cleanup"))

	jobs := usecase.NewJobs(scan, sweep, cleanup, taskQueue, baseLogger.With("component", "jobs"))
	jobs.ScanInterval = cfg.Scheduler.ScanInterval
	jobs.SweepInterval = cfg.Scheduler.SweepInterval
	jobs.CleanupHour = cfg.Scheduler.CleanupHour
	jobs.CleanupMinute = cfg.Scheduler.CleanupMinute

	sched := scheduler.New(cfg.Scheduler.Location(), baseLogger.With("component", "scheduler"))
	jobs.Register(sched)

	files, err := media.NewStore(cfg.Uploads.Dir)
	if err != nil {
		return nil, fmt.Errorf("open upload store: %w", err)
	}
	classifier := vision.NewClient(cfg.Vision)
	analyzer := usecase.NewAnalyzer(files, classifier, store, baseLogger.With("component", "analyzer"))

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		store:      store,
		queue:      taskQueue,
		scheduler:  sched,
		Jobs:       jobs,
		Deliverer:  deliverer,
		Tracker:    usecase.NewTracker(store, store, store, clock),
		Analyzer:   analyzer,
		Aggregator: adherence.NewAggregator(store, store, clock),
		Tokens:     auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
	}, nil
}

// Run starts the task queue and scheduler and blocks until the context is
// cancelled, then shuts both down.
func (a *Application) Run(ctx context.Context) error {
	a.queue.Start(ctx)
	if err := a.scheduler.Start(ctx); err != nil {
		a.queue.Stop()
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("application started")

	<-ctx.Done()
	a.logger.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		a.logger.Error("scheduler stop", "error", err)
	}
	a.queue.Stop()

	if err := a.store.Close(); err != nil {
		a.logger.Error("close storage", "error", err)
	}
	return nil
}
