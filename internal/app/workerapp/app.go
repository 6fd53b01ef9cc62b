package workerapp

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/config"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/jobs/expiry"
	pgrepo "github.com/lovevibesai/Love-Vibes-sub001/internal/repo/postgres"
)

const defaultExpiryInterval = 10 * time.Minute

type Job interface {
	Run(ctx context.Context) error
}

type scheduledJob struct {
	name     string
	interval time.Duration
	job      Job
}

type App struct {
	logger   *zap.Logger
	postgres *pgxpool.Pool
	jobs     []scheduledJob
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres for worker app: %w", err)
	}

	app := NewWithJobs(logger)
	app.postgres = pool
	app.Schedule("subscription_expiry", cfg.Jobs.ExpiryInterval, expiry.New(pgrepo.NewUserRepo(pool), logger.Named("expiry")))
	return app, nil
}

func NewWithJobs(logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{logger: logger}
}

func (a *App) Schedule(name string, interval time.Duration, job Job) {
	if interval <= 0 {
		interval = defaultExpiryInterval
	}
	a.jobs = append(a.jobs, scheduledJob{name: name, interval: interval, job: job})
}

// Run starts every job immediately and then on its interval until ctx is done.
func (a *App) Run(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	for _, sj := range a.jobs {
		_, err := scheduler.NewJob(
			gocron.DurationJob(sj.interval),
			gocron.NewTask(func() { a.runOnce(ctx, sj) }),
			gocron.WithName(sj.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			_ = scheduler.Shutdown()
			return fmt.Errorf("schedule %s: %w", sj.name, err)
		}
	}

	scheduler.Start()
	a.logger.Info("worker app started", zap.Int("jobs", len(a.jobs)))

	<-ctx.Done()

	if err := scheduler.Shutdown(); err != nil {
		a.logger.Warn("scheduler shutdown failed", zap.Error(err))
	}
	a.logger.Info("worker app stopped")
	return nil
}

func (a *App) runOnce(ctx context.Context, sj scheduledJob) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := sj.job.Run(ctx); err != nil {
		a.logger.Error("scheduled job failed", zap.String("job", sj.name), zap.Error(err))
		return
	}
	a.logger.Debug("scheduled job finished", zap.String("job", sj.name), zap.Duration("duration", time.Since(start)))
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
}
