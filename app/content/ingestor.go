package content

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aiverse-labs/content-hook/app/database"
)

// Broadcaster pushes events to connected real-time clients. Delivery is
// fire-and-forget; implementations must never fail the caller.
type Broadcaster interface {
	BroadcastEvent(event string, data interface{})
}

// PublishScheduler accepts detached phase-progression work for an
// ingested record. Implemented by tasks.Scheduler.
type PublishScheduler interface {
	EnqueuePublishTask(contentUUID string, eventType string) error
}

// Ingestor persists validated envelopes and kicks off their detached
// phase progression.
type Ingestor struct {
	contentRepo database.ContentRepository
	scheduler   PublishScheduler
	broadcaster Broadcaster
}

func NewIngestor(contentRepo database.ContentRepository, scheduler PublishScheduler, broadcaster Broadcaster) *Ingestor {
	return &Ingestor{
		contentRepo: contentRepo,
		scheduler:   scheduler,
		broadcaster: broadcaster,
	}
}

// Ingest stores the envelope once per UUID. Retried deliveries of the
// same UUID return the already-ingested record without re-running the
// phase sequence. The returned bool reports whether a record was created.
func (i *Ingestor) Ingest(env *Envelope) (*database.ContentItem, bool, error) {
	existing, err := i.contentRepo.GetByUUID(env.UUID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check for existing content: %w", err)
	}
	if existing != nil {
		slog.Debug("Duplicate ingestion request", "uuid", env.UUID, "status", existing.Status)
		return existing, false, nil
	}

	now := time.Now().UTC()
	item := &database.ContentItem{
		ID:             uuid.New().String(),
		UUID:           env.UUID,
		EventType:      env.EventType,
		AuthorID:       env.AuthorID,
		ParentID:       env.ParentIDValue(),
		EventTimestamp: env.Timestamp,
		Payload:        env.PayloadMap(),
		Hashtags:       env.HashtagList(),
		Mentions:       env.MentionList(),
		Status:         PhaseIngested,
		Phases:         []string{PhaseIngested},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := i.contentRepo.InsertIfAbsent(item)
	if err != nil {
		return nil, false, fmt.Errorf("failed to persist content: %w", err)
	}
	if !created {
		// Lost the race against a concurrent identical request; the
		// unique index on uuid makes this the idempotent-hit case.
		existing, err := i.contentRepo.GetByUUID(env.UUID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load concurrently ingested content: %w", err)
		}
		if existing == nil {
			return nil, false, fmt.Errorf("content %s vanished after duplicate insert", env.UUID)
		}
		return existing, false, nil
	}

	if i.broadcaster != nil {
		i.broadcaster.BroadcastEvent(BroadcastContentUpdate, map[string]interface{}{
			"phase": PhaseIngested,
			"item":  item,
		})
	}

	if err := i.scheduler.EnqueuePublishTask(item.UUID, item.EventType); err != nil {
		// The record is persisted; the sweep loop will pick it up.
		slog.Warn("Failed to enqueue publish task", "uuid", item.UUID, "error", err)
	}

	slog.Info("Content ingested", "uuid", item.UUID, "event_type", item.EventType, "author", item.AuthorID)

	return item, true, nil
}
