package database

import (
	"time"
)

type ContentRepository interface {
	GetByUUID(uuid string) (*ContentItem, error)
	GetRecent(limit int) ([]ContentItem, error)
	GetStuck(before time.Time) ([]ContentItem, error)
	GetCount() (int, error)
	GetStatusCounts() (map[string]int, error)

	// InsertIfAbsent atomically inserts the item keyed by its UUID.
	// Returns false when a record with the same UUID already exists;
	// a concurrent duplicate insert folds into that case.
	InsertIfAbsent(item *ContentItem) (bool, error)

	// AdvancePhase sets status, records the phase timestamp and appends
	// the phase to the audit trail in a single atomic update.
	AdvancePhase(uuid string, phase string, at time.Time) error
}

type NotificationRepository interface {
	Insert(notification *Notification) error
	GetRecent(limit int) ([]Notification, error)
	GetCount() (int, error)
}
