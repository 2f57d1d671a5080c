package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aiverse-labs/content-hook/app/cfg"
	"github.com/aiverse-labs/content-hook/app/content"
	"github.com/aiverse-labs/content-hook/app/database"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)
var _ content.PublishScheduler = (*Scheduler)(nil)

// staleThreshold is how long a non-terminal record must sit untouched
// before the sweep loop considers it orphaned and re-enqueues it.
const staleThreshold = 5 * time.Minute

type Scheduler struct {
	contentRepo      database.ContentRepository
	notificationRepo database.NotificationRepository
	broadcaster      content.Broadcaster
	moderationDelay  time.Duration
	publishDelay     time.Duration
	sweepInterval    time.Duration
	workerCount      int
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface
	inFlight         map[string]struct{}
	inFlightMu       sync.Mutex
}

func NewScheduler(contentRepo database.ContentRepository,
	notificationRepo database.NotificationRepository,
	broadcaster content.Broadcaster) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		contentRepo:      contentRepo,
		notificationRepo: notificationRepo,
		broadcaster:      broadcaster,
		moderationDelay:  time.Duration(cfg.ModerationDelay) * time.Second,
		publishDelay:     time.Duration(cfg.PublishDelay) * time.Second,
		sweepInterval:    time.Duration(cfg.SweepInterval) * time.Second,
		workerCount:      cfg.WorkerCount,
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, 300),
		inFlight:         make(map[string]struct{}),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		s.enqueueResumeTasks(time.Now().UTC())

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueResumeTasks(time.Now().UTC().Add(-staleThreshold))
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueuePublishTask schedules the phase progression for an ingested
// record. A record with a task already in flight is skipped; phase
// progression is never re-entered for the same uuid.
func (s *Scheduler) EnqueuePublishTask(contentUUID string, eventType string) error {
	if !s.markInFlight(contentUUID) {
		slog.Debug("Publish task already in flight, skipping", "uuid", contentUUID)
		return nil
	}

	task := NewPublishContentTask(contentUUID, eventType, s.contentRepo,
		s.notificationRepo, s.broadcaster, s.moderationDelay, s.publishDelay)

	if err := s.EnqueueTask(task); err != nil {
		s.releaseInFlight(contentUUID)
		return err
	}

	return nil
}

// enqueueResumeTasks re-enqueues records that never reached the terminal
// phase. At startup the cutoff is now (everything non-terminal qualifies);
// on ticks it is backed off by staleThreshold so in-flight records are
// left alone.
func (s *Scheduler) enqueueResumeTasks(before time.Time) {
	stuck, err := s.contentRepo.GetStuck(before)
	if err != nil {
		slog.Warn("Failed to query stuck content records", "error", err)
		return
	}
	if len(stuck) == 0 {
		return
	}

	slog.Info("Resuming unfinished content records", "count", len(stuck))

	for _, item := range stuck {
		if err := s.EnqueuePublishTask(item.UUID, item.EventType); err != nil {
			slog.Warn("Failed to enqueue resume task", "uuid", item.UUID, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err == nil {
		s.releaseInFlight(task.GetContentUUID())
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		// Best-effort contract: the record stays at its last committed
		// phase and the failure is only observable in the logs.
		slog.Error("Task abandoned", "type", string(task.GetType()), "id", task.GetID(), "uuid", task.GetContentUUID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		s.releaseInFlight(task.GetContentUUID())
		return
	}

	task.IncrementRetryCount()
	retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
	if retryDelay > 30*time.Second {
		retryDelay = 30 * time.Second
	}

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "uuid", task.GetContentUUID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		time.Sleep(retryDelay)
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			s.releaseInFlight(task.GetContentUUID())
			return
		default:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
				s.releaseInFlight(task.GetContentUUID())
			}
		}
	}()
}

func (s *Scheduler) markInFlight(contentUUID string) bool {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()

	if _, exists := s.inFlight[contentUUID]; exists {
		return false
	}
	s.inFlight[contentUUID] = struct{}{}
	return true
}

func (s *Scheduler) releaseInFlight(contentUUID string) {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	delete(s.inFlight, contentUUID)
}
