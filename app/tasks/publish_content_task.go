package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aiverse-labs/content-hook/app/content"
	"github.com/aiverse-labs/content-hook/app/database"
)

// PublishContentTask walks one ingested record through the moderation and
// publish phases. The delays stand in for calls to external moderation
// and publish services. Progression is best-effort: an error leaves the
// record at its last committed phase, nothing is rolled back and nothing
// reaches the original webhook caller.
type PublishContentTask struct {
	Task
	EventType        string
	contentRepo      database.ContentRepository
	notificationRepo database.NotificationRepository
	broadcaster      content.Broadcaster
	moderationDelay  time.Duration
	publishDelay     time.Duration
}

func NewPublishContentTask(contentUUID string, eventType string,
	contentRepo database.ContentRepository,
	notificationRepo database.NotificationRepository,
	broadcaster content.Broadcaster,
	moderationDelay, publishDelay time.Duration) *PublishContentTask {
	task := NewTask(TaskTypePublishContent, contentUUID)
	// Phase progression is deliberately not retried; a failed transition
	// is only recovered by the sweep loop.
	task.MaxRetries = 0

	return &PublishContentTask{
		Task:             task,
		EventType:        eventType,
		contentRepo:      contentRepo,
		notificationRepo: notificationRepo,
		broadcaster:      broadcaster,
		moderationDelay:  moderationDelay,
		publishDelay:     publishDelay,
	}
}

func (t *PublishContentTask) Execute(ctx context.Context) error {
	item, err := t.contentRepo.GetByUUID(t.ContentUUID)
	if err != nil {
		return fmt.Errorf("failed to load content: %w", err)
	}
	if item == nil {
		return fmt.Errorf("content %s not found", t.ContentUUID)
	}

	// Resumed records skip phases they already committed.
	if item.Status == content.PhaseIngested {
		item, err = t.advance(ctx, content.PhaseModerationComplete, t.moderationDelay)
		if err != nil {
			return err
		}
	}

	if item.Status == content.PhaseModerationComplete {
		item, err = t.advance(ctx, content.PhasePublishComplete, t.publishDelay)
		if err != nil {
			return err
		}
	}

	if t.EventType == content.EventLikeCreated {
		if err := t.createLikeNotification(item); err != nil {
			return fmt.Errorf("failed to create like notification: %w", err)
		}
	}

	slog.Info("Task completed",
		"type", "PublishContent",
		"uuid", t.ContentUUID,
		"duration", t.GetDuration(),
		"status", item.Status,
		"phases", len(item.Phases))

	return nil
}

// advance waits out the simulated latency, commits the transition and
// broadcasts the freshly re-read record.
func (t *PublishContentTask) advance(ctx context.Context, phase string, delay time.Duration) (*database.ContentItem, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(delay):
	}

	if err := t.contentRepo.AdvancePhase(t.ContentUUID, phase, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to advance to %s: %w", phase, err)
	}

	item, err := t.contentRepo.GetByUUID(t.ContentUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read content after %s: %w", phase, err)
	}
	if item == nil {
		return nil, fmt.Errorf("content %s vanished after %s", t.ContentUUID, phase)
	}

	if t.broadcaster != nil {
		t.broadcaster.BroadcastEvent(content.BroadcastContentUpdate, map[string]interface{}{
			"phase": phase,
			"item":  item,
		})
	}

	return item, nil
}

// createLikeNotification persists and broadcasts the notification for a
// completed like event. The recipient is the liked post's author: when
// the post was ingested through this pipeline its record carries the
// author id, otherwise the envelope's author is the best reference we
// have. The payload's postId is never used as the recipient directly.
func (t *PublishContentTask) createLikeNotification(item *database.ContentItem) error {
	postID, _ := item.Payload["postId"].(string)
	likerID, _ := item.Payload["userId"].(string)
	likerName, _ := item.Payload["likerName"].(string)

	if postID == "" {
		return fmt.Errorf("like payload for %s is missing postId", item.UUID)
	}

	recipient := item.AuthorID
	if post, err := t.contentRepo.GetByUUID(postID); err != nil {
		slog.Warn("Failed to resolve liked post author", "post_id", postID, "error", err)
	} else if post != nil {
		recipient = post.AuthorID
	}

	name := likerName
	if name == "" {
		name = "Someone"
	}

	notification := &database.Notification{
		ID:      uuid.New().String(),
		UserID:  recipient,
		Type:    "like",
		Message: fmt.Sprintf("%s liked your post", name),
		Data: map[string]interface{}{
			"postId":    postID,
			"likerId":   likerID,
			"likerName": likerName,
		},
		Read:      false,
		CreatedAt: time.Now().UTC(),
	}

	if err := t.notificationRepo.Insert(notification); err != nil {
		return err
	}

	if t.broadcaster != nil {
		t.broadcaster.BroadcastEvent(content.BroadcastNotification, notification)
	}

	slog.Info("Like notification created", "uuid", item.UUID, "recipient", recipient, "post_id", postID)

	return nil
}
