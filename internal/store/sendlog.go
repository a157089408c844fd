package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// QuestMarkerID is the reserved marker id under which quest reminders claim
// ledger rows. Real markers are AUTOINCREMENT and start at 1.
const QuestMarkerID int64 = 0

// SendLogStore is the dedup ledger. A claim is an INSERT OR IGNORE against
// one of two partial unique indexes; whoever actually inserts the row wins
// the occurrence and must deliver, everyone else skips. This is the only
// mutual exclusion in the system; it holds across concurrent ticks because
// the uniqueness is enforced by the database, not by process state. Ledger
// rows are never updated or deleted.
type SendLogStore struct {
	db *sql.DB
}

func NewSendLogStore(db *sql.DB) *SendLogStore {
	return &SendLogStore{db: db}
}

// ClaimEvent claims an event-reminder occurrence, keyed by subscriber,
// endpoint, schedule, notification index, and fire time. Returns true iff
// this call inserted the row.
func (s *SendLogStore) ClaimEvent(ctx context.Context, subscriberID int64, endpoint string, scheduleID int64, notificationIndex int, fireAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO push_send_log (subscriber_id, endpoint, schedule_id, notification_index, fire_at_ms)
		 VALUES (?, ?, ?, ?, ?)`,
		subscriberID, endpoint, scheduleID, notificationIndex, fireAt.UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("claim event occurrence: %w", err)
	}
	return claimed(res)
}

// ClaimLoop claims a loop-marker occurrence (or, with QuestMarkerID, the
// daily quest reminder), keyed by subscriber, endpoint, marker, and fire
// time. Returns true iff this call inserted the row.
func (s *SendLogStore) ClaimLoop(ctx context.Context, subscriberID int64, endpoint string, markerID int64, fireAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO push_send_log (subscriber_id, endpoint, loop_marker_id, fire_at_ms)
		 VALUES (?, ?, ?, ?)`,
		subscriberID, endpoint, markerID, fireAt.UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("claim loop occurrence: %w", err)
	}
	return claimed(res)
}

func claimed(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim rows affected: %w", err)
	}
	return n == 1, nil
}
