package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

var _ ContentRepository = (*ContentItemRepository)(nil)

// ContentItemRepository handles database operations for ingested content
type ContentItemRepository struct {
	db *DB
}

func NewContentItemRepository(db *DB) *ContentItemRepository {
	return &ContentItemRepository{db: db}
}

const contentItemColumns = `id, uuid, event_type, author_id, COALESCE(parent_id, ''),
	event_timestamp, payload, hashtags, mentions, status, phases,
	created_at, updated_at, moderated_at, published_at`

// InsertIfAbsent inserts the item, relying on the unique index on uuid to
// reject concurrent duplicates. A unique constraint violation is the
// idempotent-hit case, not an error.
func (r *ContentItemRepository) InsertIfAbsent(item *ContentItem) (bool, error) {
	payload, err := json.Marshal(item.Payload)
	if err != nil {
		return false, fmt.Errorf("failed to marshal payload: %w", err)
	}
	hashtags, err := json.Marshal(emptyIfNil(item.Hashtags))
	if err != nil {
		return false, fmt.Errorf("failed to marshal hashtags: %w", err)
	}
	mentions, err := json.Marshal(emptyIfNil(item.Mentions))
	if err != nil {
		return false, fmt.Errorf("failed to marshal mentions: %w", err)
	}
	phases, err := json.Marshal(item.Phases)
	if err != nil {
		return false, fmt.Errorf("failed to marshal phases: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO content_items (
			id, uuid, event_type, author_id, parent_id, event_timestamp,
			payload, hashtags, mentions, status, phases, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.UUID, item.EventType, item.AuthorID, nullIfEmpty(item.ParentID),
		item.EventTimestamp, string(payload), string(hashtags), string(mentions),
		item.Status, string(phases), item.CreatedAt, item.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert content item: %w", err)
	}

	return true, nil
}

// AdvancePhase atomically updates status, the phase timestamp and the
// phases audit trail. The status guard keeps a phase from being appended
// twice.
func (r *ContentItemRepository) AdvancePhase(uuid string, phase string, at time.Time) error {
	var tsColumn string
	switch phase {
	case "moderation_complete":
		tsColumn = "moderated_at"
	case "publish_complete":
		tsColumn = "published_at"
	default:
		return fmt.Errorf("unknown phase: %s", phase)
	}

	result, err := r.db.Exec(fmt.Sprintf(`
		UPDATE content_items
		SET status = ?, %s = ?, updated_at = ?,
		    phases = json_insert(phases, '$[#]', ?)
		WHERE uuid = ? AND status != ?
	`, tsColumn), phase, at, at, phase, uuid, phase)
	if err != nil {
		return fmt.Errorf("failed to advance phase: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("content item %s not found or already at phase %s", uuid, phase)
	}

	return nil
}

// GetByUUID returns the item with the given client-supplied UUID, or nil
func (r *ContentItemRepository) GetByUUID(uuid string) (*ContentItem, error) {
	row := r.db.QueryRow(`
		SELECT `+contentItemColumns+`
		FROM content_items
		WHERE uuid = ?
	`, uuid)

	item, err := scanContentItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content item: %w", err)
	}

	return item, nil
}

// GetRecent returns the most recently ingested items, newest first
func (r *ContentItemRepository) GetRecent(limit int) ([]ContentItem, error) {
	rows, err := r.db.Query(`
		SELECT `+contentItemColumns+`
		FROM content_items
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent content items: %w", err)
	}
	defer rows.Close()

	return collectContentItems(rows)
}

// GetStuck returns items that never reached the terminal phase and have
// not been touched since the given cutoff. Used by the sweep loop to
// resume records orphaned by a restart.
func (r *ContentItemRepository) GetStuck(before time.Time) ([]ContentItem, error) {
	rows, err := r.db.Query(`
		SELECT `+contentItemColumns+`
		FROM content_items
		WHERE status != 'publish_complete' AND updated_at < ?
		ORDER BY created_at
	`, before)
	if err != nil {
		return nil, fmt.Errorf("failed to get stuck content items: %w", err)
	}
	defer rows.Close()

	return collectContentItems(rows)
}

// GetCount returns the total number of ingested items
func (r *ContentItemRepository) GetCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM content_items").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get content item count: %w", err)
	}
	return count, nil
}

// GetStatusCounts returns the number of items per phase status
func (r *ContentItemRepository) GetStatusCounts() (map[string]int, error) {
	rows, err := r.db.Query("SELECT status, COUNT(*) FROM content_items GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to get status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count row: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status count rows: %w", err)
	}

	return counts, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContentItem(row rowScanner) (*ContentItem, error) {
	var item ContentItem
	var payload, hashtags, mentions, phases string
	var moderatedAt, publishedAt sql.NullTime

	err := row.Scan(
		&item.ID, &item.UUID, &item.EventType, &item.AuthorID, &item.ParentID,
		&item.EventTimestamp, &payload, &hashtags, &mentions, &item.Status,
		&phases, &item.CreatedAt, &item.UpdatedAt, &moderatedAt, &publishedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(payload), &item.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if err := json.Unmarshal([]byte(hashtags), &item.Hashtags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hashtags: %w", err)
	}
	if err := json.Unmarshal([]byte(mentions), &item.Mentions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mentions: %w", err)
	}
	if err := json.Unmarshal([]byte(phases), &item.Phases); err != nil {
		return nil, fmt.Errorf("failed to unmarshal phases: %w", err)
	}

	if moderatedAt.Valid {
		item.ModeratedAt = &moderatedAt.Time
	}
	if publishedAt.Valid {
		item.PublishedAt = &publishedAt.Time
	}

	return &item, nil
}

func collectContentItems(rows *sql.Rows) ([]ContentItem, error) {
	var items []ContentItem
	for rows.Next() {
		item, err := scanContentItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content item row: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content item rows: %w", err)
	}

	return items, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlitelib.SQLITE_CONSTRAINT_UNIQUE || code == sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
