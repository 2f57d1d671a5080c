package database

import (
	"encoding/json"
	"fmt"
)

var _ NotificationRepository = (*NotificationItemRepository)(nil)

// NotificationItemRepository handles database operations for notifications
type NotificationItemRepository struct {
	db *DB
}

func NewNotificationItemRepository(db *DB) *NotificationItemRepository {
	return &NotificationItemRepository{db: db}
}

// Insert stores a notification. Notifications are write-once from this
// service; marking them read belongs to the main application.
func (r *NotificationItemRepository) Insert(notification *Notification) error {
	data, err := json.Marshal(notification.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal notification data: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO notifications (id, user_id, type, message, data, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, notification.ID, notification.UserID, notification.Type, notification.Message,
		string(data), notification.Read, notification.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}

// GetRecent returns the most recent notifications, newest first
func (r *NotificationItemRepository) GetRecent(limit int) ([]Notification, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, type, message, data, read, created_at
		FROM notifications
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent notifications: %w", err)
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		var data string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &data, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &n.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notification data: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}

	return notifications, nil
}

// GetCount returns the total number of notifications
func (r *NotificationItemRepository) GetCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM notifications").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get notification count: %w", err)
	}
	return count, nil
}
