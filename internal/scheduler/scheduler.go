// Package scheduler exposes the two job primitives this core needs —
// run-once-at and run-every — without binding services to a task-queue
// technology. The asynq implementation lives alongside the interface;
// tests substitute a mock.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/ytchou/focus-squad-sub000/internal/tasks"
)

// Scheduler schedules idempotent jobs with at-least-once delivery.
type Scheduler interface {
	// RunAt enqueues a one-shot job to execute at (or as soon after) t.
	RunAt(ctx context.Context, taskType string, payload []byte, t time.Time) error
	// RunEvery registers a recurring job on a cron-style "@every N" spec.
	RunEvery(spec string, taskType string, payload []byte) error
}

// Bounded retry for scheduled jobs. Room-provider jobs are retried a
// handful of times with a fixed delay and then dropped with a log line;
// the session lifecycle never blocks on them.
const (
	jobMaxRetry   = 4
	jobRetryDelay = 15 * time.Second
)

// queueForType routes task types to worker queues.
var queueForType = map[string]string{
	tasks.TypeRoomCreate:  "critical",
	tasks.TypeRoomCleanup: "critical",
	tasks.TypeSeatFill:    "default",
	tasks.TypePhaseSweep:  "default",
	tasks.TypeSeatReap:    "default",
}

// AsynqScheduler implements Scheduler on top of an asynq client (one-shot
// jobs) and an asynq periodic scheduler (recurring jobs).
type AsynqScheduler struct {
	client   *asynq.Client
	periodic *asynq.Scheduler
	log      *logrus.Entry
}

// NewAsynqScheduler creates an AsynqScheduler instance.
func NewAsynqScheduler(redisOpt asynq.RedisClientOpt, logger *logrus.Logger) *AsynqScheduler {
	if logger == nil {
		panic("logger cannot be nil for AsynqScheduler")
	}
	return &AsynqScheduler{
		client: asynq.NewClient(redisOpt),
		periodic: asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
			Location: time.UTC,
		}),
		log: logger.WithField("component", "scheduler"),
	}
}

func (s *AsynqScheduler) options(taskType string) []asynq.Option {
	queue := queueForType[taskType]
	if queue == "" {
		queue = "default"
	}
	return []asynq.Option{
		asynq.Queue(queue),
		asynq.MaxRetry(jobMaxRetry),
		asynq.Retention(24 * time.Hour),
	}
}

// RunAt enqueues a one-shot job.
func (s *AsynqScheduler) RunAt(ctx context.Context, taskType string, payload []byte, t time.Time) error {
	task := asynq.NewTask(taskType, payload)
	opts := append(s.options(taskType), asynq.ProcessAt(t))
	info, err := s.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("scheduler: enqueue %s at %s: %w", taskType, t.Format(time.RFC3339), err)
	}
	s.log.WithFields(logrus.Fields{
		"task_id":    info.ID,
		"task_type":  taskType,
		"queue":      info.Queue,
		"process_at": t.Format(time.RFC3339),
	}).Debug("One-shot job enqueued")
	return nil
}

// RunEvery registers a recurring job with the periodic scheduler.
func (s *AsynqScheduler) RunEvery(spec string, taskType string, payload []byte) error {
	task := asynq.NewTask(taskType, payload)
	entryID, err := s.periodic.Register(spec, task, s.options(taskType)...)
	if err != nil {
		return fmt.Errorf("scheduler: register periodic %s (%s): %w", taskType, spec, err)
	}
	s.log.WithFields(logrus.Fields{
		"task_type": taskType,
		"schedule":  spec,
		"entry_id":  entryID,
	}).Info("Periodic job registered")
	return nil
}

// Start runs the periodic scheduler loop. It should be called in its own
// goroutine after all RunEvery registrations are done.
func (s *AsynqScheduler) Start() {
	s.log.Info("Periodic scheduler starting...")
	if err := s.periodic.Run(); err != nil {
		if !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, asynq.ErrServerClosed) {
			s.log.Errorf("Periodic scheduler stopped with error: %v", err)
		} else {
			s.log.Info("Periodic scheduler stopped.")
		}
	}
}

// Shutdown stops the periodic loop and closes the client.
func (s *AsynqScheduler) Shutdown() {
	s.periodic.Shutdown()
	if err := s.client.Close(); err != nil {
		s.log.Errorf("Error closing scheduler client: %v", err)
	}
}

// RetryDelay is the fixed backoff applied by the worker server to failed
// jobs (see worker.NewWorkerServer).
func RetryDelay(n int, err error, task *asynq.Task) time.Duration {
	return jobRetryDelay
}
