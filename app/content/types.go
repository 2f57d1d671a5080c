package content

import (
	"encoding/json"
)

// Event types accepted on the webhook, mirroring the main application's
// content event taxonomy.
const (
	EventPostCreated    = "post_created"
	EventImageCreated   = "image_created"
	EventReelCreated    = "reel_created"
	EventCommentCreated = "comment_created"
	EventLikeCreated    = "like_created"
)

// Processing phases, in canonical order. Every record walks this sequence
// front to back; no phase is ever skipped or revisited.
const (
	PhaseIngested           = "ingested"
	PhaseModerationComplete = "moderation_complete"
	PhasePublishComplete    = "publish_complete"
)

var PhaseSequence = []string{PhaseIngested, PhaseModerationComplete, PhasePublishComplete}

var validEventTypes = map[string]bool{
	EventPostCreated:    true,
	EventImageCreated:   true,
	EventReelCreated:    true,
	EventCommentCreated: true,
	EventLikeCreated:    true,
}

// Broadcast event names consumed by connected websocket clients
const (
	BroadcastContentUpdate = "content_update"
	BroadcastNotification  = "notification"
)

// Envelope is the inbound webhook payload describing one content event.
// Shape-checked fields stay raw so validation can report per-field errors
// instead of failing the whole decode.
type Envelope struct {
	UUID      string          `json:"uuid"`
	Timestamp string          `json:"timestamp"`
	EventType string          `json:"eventType"`
	AuthorID  string          `json:"authorId"`
	Payload   json.RawMessage `json:"payload"`
	Hashtags  json.RawMessage `json:"hashtags"`
	Mentions  json.RawMessage `json:"mentions"`
	ParentID  json.RawMessage `json:"parentId"`
}

// PayloadMap decodes the payload object. Only meaningful after Validate.
func (e *Envelope) PayloadMap() map[string]interface{} {
	var payload map[string]interface{}
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return map[string]interface{}{}
	}
	return payload
}

// HashtagList decodes the optional hashtags sequence, defaulting to empty
func (e *Envelope) HashtagList() []string {
	return decodeStringList(e.Hashtags)
}

// MentionList decodes the optional mentions sequence, defaulting to empty
func (e *Envelope) MentionList() []string {
	return decodeStringList(e.Mentions)
}

// ParentIDValue decodes the optional parent reference, defaulting to ""
func (e *Envelope) ParentIDValue() string {
	if len(e.ParentID) == 0 {
		return ""
	}
	var parentID string
	if err := json.Unmarshal(e.ParentID, &parentID); err != nil {
		return ""
	}
	return parentID
}

func decodeStringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return []string{}
	}
	return values
}

func isJSONNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
