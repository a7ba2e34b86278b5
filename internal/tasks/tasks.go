// internal/tasks/tasks.go
package tasks

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/wheeldeal/wheeldeal-backend/internal/config"
	"github.com/wheeldeal/wheeldeal-backend/internal/services"
)

const (
	TypeVerificationSweep = "verification:sweep"
)

// NewClient returns an asynq client for enqueuing tasks out of band.
func NewClient(cfg *config.Config) *asynq.Client {
	return asynq.NewClient(redisOpt(cfg))
}

// TaskProcessor holds the dependencies task handlers need.
type TaskProcessor struct {
	listingService *services.ListingService
}

func NewTaskProcessor(listingService *services.ListingService) *TaskProcessor {
	return &TaskProcessor{listingService: listingService}
}

// HandleVerificationSweepTask resets every verification whose deadline has
// passed. The sweep is idempotent, so an overlapping or repeated run is
// harmless.
func (p *TaskProcessor) HandleVerificationSweepTask(ctx context.Context, t *asynq.Task) error {
	reset, err := p.listingService.SweepExpiredVerifications()
	if err != nil {
		return fmt.Errorf("verification sweep: %w", err)
	}

	if reset > 0 {
		logrus.WithField("reset", reset).Info("Verification sweep reset expired cars")
	}
	return nil
}

// NewServer configures the asynq worker that consumes sweep tasks.
func NewServer(cfg *config.Config, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logrus.WithError(err).WithField("task", task.Type()).Error("Background task failed")
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeVerificationSweep, processor.HandleVerificationSweepTask)

	return srv, mux
}

// NewScheduler registers the periodic sweep. The interval comes from
// configuration and defaults to hourly.
func NewScheduler(cfg *config.Config) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(redisOpt(cfg), &asynq.SchedulerOpts{
		EnqueueErrorHandler: func(task *asynq.Task, opts []asynq.Option, err error) {
			logrus.WithError(err).WithField("task", task.Type()).Error("Failed to enqueue scheduled task")
		},
	})

	spec := fmt.Sprintf("@every %s", cfg.Marketplace.SweepInterval)
	if _, err := scheduler.Register(spec, asynq.NewTask(TypeVerificationSweep, nil)); err != nil {
		return nil, fmt.Errorf("failed to register verification sweep: %w", err)
	}

	return scheduler, nil
}

func redisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}
