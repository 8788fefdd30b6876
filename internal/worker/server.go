package worker

import (
	"context"
	"errors"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/ytchou/focus-squad-sub000/internal/scheduler"
	"github.com/ytchou/focus-squad-sub000/internal/service"
	"github.com/ytchou/focus-squad-sub000/internal/tasks"
)

// WorkerServer wraps the asynq worker that executes the scheduled jobs:
// room creation/cleanup, synthetic seat filling, seat reaping, and the
// periodic phase sweep. Retries are bounded with a fixed delay; a job
// that exhausts them is logged and dropped — the session lifecycle never
// blocks on a job.
type WorkerServer struct {
	server *asynq.Server
	log    *logrus.Entry
	rooms  *service.RoomService
	filler *service.SeatFillerService
	phases *service.PhaseService
	match  *service.MatchService
}

// NewWorkerServer creates a WorkerServer instance.
func NewWorkerServer(
	redisOpt asynq.RedisClientOpt,
	rooms *service.RoomService,
	filler *service.SeatFillerService,
	phases *service.PhaseService,
	match *service.MatchService,
	logger *logrus.Logger,
) *WorkerServer {
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			RetryDelayFunc: scheduler.RetryDelay,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				taskID := ""
				if rw := task.ResultWriter(); rw != nil {
					taskID = rw.TaskID()
				}
				retryCount, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				entry := logEntry.WithFields(logrus.Fields{
					"task_id":   taskID,
					"task_type": task.Type(),
					"retries":   retryCount,
					"max_retry": maxRetry,
				})
				if retryCount >= maxRetry {
					entry.Errorf("Task failed permanently, giving up: %v", err)
				} else {
					entry.Warnf("Task failed, will retry: %v", err)
				}
			}),
		},
	)

	return &WorkerServer{
		server: server,
		log:    logEntry,
		rooms:  rooms,
		filler: filler,
		phases: phases,
		match:  match,
	}
}

// Start runs the worker loop. It should be called in its own goroutine.
func (ws *WorkerServer) Start() {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeRoomCreate, ws.handleRoomCreate)
	mux.HandleFunc(tasks.TypeRoomCleanup, ws.handleRoomCleanup)
	mux.HandleFunc(tasks.TypeSeatFill, ws.handleSeatFill)
	mux.HandleFunc(tasks.TypeSeatReap, ws.handleSeatReap)
	mux.HandleFunc(tasks.TypePhaseSweep, ws.handlePhaseSweep)

	ws.log.Info("Worker server starting...")
	if err := ws.server.Run(mux); err != nil {
		if !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, asynq.ErrServerClosed) {
			ws.log.Fatalf("Could not run worker server: %v", err)
		} else {
			ws.log.Info("Worker server stopped.")
		}
	}
}

// Shutdown stops the worker gracefully.
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}
