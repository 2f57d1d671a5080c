package database

import (
	"time"
)

type ContentItem struct {
	ID             string                 `json:"id"` // Database UUID
	UUID           string                 `json:"uuid"` // Client-supplied idempotency key
	EventType      string                 `json:"eventType"`
	AuthorID       string                 `json:"authorId"`
	ParentID       string                 `json:"parentId,omitempty"`
	EventTimestamp string                 `json:"timestamp"` // Client-supplied, "YYYY-MM-DD HH-MM-SS", kept verbatim
	Payload        map[string]interface{} `json:"payload"`
	Hashtags       []string               `json:"hashtags"`
	Mentions       []string               `json:"mentions"`
	Status         string                 `json:"status"`
	Phases         []string               `json:"phases"` // Append-only audit trail; Status always equals the last entry
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
	ModeratedAt    *time.Time             `json:"moderatedAt,omitempty"`
	PublishedAt    *time.Time             `json:"publishedAt,omitempty"`
}

type Notification struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"userId"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"createdAt"`
}
