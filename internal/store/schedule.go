package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/harwick/chime/internal/model"
)

// ScheduleStore reads calendar entries. Notification specs are stored as a
// JSON column and sanitized here, at the ingestion boundary, so everything
// downstream sees the strict typed form.
type ScheduleStore struct {
	db *sql.DB
}

func NewScheduleStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

// Create inserts a schedule item (subscribe surface and test fixtures).
func (s *ScheduleStore) Create(ctx context.Context, item model.ScheduleItem) (int64, error) {
	raw, err := json.Marshal(item.Notifications)
	if err != nil {
		return 0, fmt.Errorf("marshal notifications: %w", err)
	}
	var localTime any
	if item.LocalTime != "" {
		localTime = item.LocalTime
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO schedules (subscriber_id, local_date, local_time, all_day, title, memo, notifications, is_task, completed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.SubscriberID, item.LocalDate, localTime, boolToInt(item.AllDay),
		item.Title, item.Memo, string(raw), boolToInt(item.IsTask), boolToInt(item.Completed),
	)
	if err != nil {
		return 0, fmt.Errorf("create schedule: %w", err)
	}
	return res.LastInsertId()
}

// ListBetween returns all schedule items with local_date in [from, to],
// inclusive, across all subscribers. Date strings compare lexicographically.
func (s *ScheduleStore) ListBetween(ctx context.Context, from, to string) ([]model.ScheduleItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subscriber_id, local_date, local_time, all_day, title, memo, notifications, is_task, completed
		 FROM schedules WHERE local_date >= ? AND local_date <= ? ORDER BY id`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var items []model.ScheduleItem
	for rows.Next() {
		var item model.ScheduleItem
		var localTime, memo sql.NullString
		var allDay, isTask, completed int
		var rawNotifs string
		if err := rows.Scan(&item.ID, &item.SubscriberID, &item.LocalDate, &localTime, &allDay,
			&item.Title, &memo, &rawNotifs, &isTask, &completed); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		item.LocalTime = localTime.String
		item.Memo = memo.String
		item.AllDay = allDay != 0
		item.IsTask = isTask != 0
		item.Completed = completed != 0

		var specs []model.NotificationSpec
		if err := json.Unmarshal([]byte(rawNotifs), &specs); err != nil {
			// A corrupt notifications blob silences this item only.
			specs = nil
		}
		item.Notifications = model.SanitizeNotifications(specs, item.AllDay)

		items = append(items, item)
	}
	return items, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
