package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/harwick/chime/internal/model"
)

// LoopStore reads loop timeline state and markers. The stored status string
// ("idle" / "running" / "paused:<ms>") is parsed into the variant type here;
// nothing downstream ever sees the encoded form.
type LoopStore struct {
	db *sql.DB
}

func NewLoopStore(db *sql.DB) *LoopStore {
	return &LoopStore{db: db}
}

// SetState upserts a subscriber's loop state.
func (s *LoopStore) SetState(ctx context.Context, state model.LoopState) error {
	var startMs any
	if state.HasStart {
		startMs = state.StartAt.UnixMilli()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO loop_timeline_state (subscriber_id, duration_minutes, start_at_ms, status)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(subscriber_id) DO UPDATE SET
		   duration_minutes = excluded.duration_minutes,
		   start_at_ms = excluded.start_at_ms,
		   status = excluded.status,
		   updated_at = CURRENT_TIMESTAMP`,
		state.SubscriberID, state.DurationMinutes, startMs, state.Status.Encode(),
	)
	if err != nil {
		return fmt.Errorf("set loop state: %w", err)
	}
	return nil
}

// StatesFor returns loop states keyed by subscriber id, restricted to the
// given subscriber set.
func (s *LoopStore) StatesFor(ctx context.Context, subscriberIDs []int64) (map[int64]model.LoopState, error) {
	states := make(map[int64]model.LoopState)
	if len(subscriberIDs) == 0 {
		return states, nil
	}

	query := `SELECT subscriber_id, duration_minutes, start_at_ms, status
	          FROM loop_timeline_state WHERE subscriber_id IN (` + placeholders(len(subscriberIDs)) + `)`
	rows, err := s.db.QueryContext(ctx, query, int64Args(subscriberIDs)...)
	if err != nil {
		return nil, fmt.Errorf("list loop states: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var state model.LoopState
		var startMs sql.NullInt64
		var status string
		if err := rows.Scan(&state.SubscriberID, &state.DurationMinutes, &startMs, &status); err != nil {
			return nil, fmt.Errorf("scan loop state: %w", err)
		}
		state.Status = model.ParseLoopStatus(status)
		if startMs.Valid {
			state.StartAt = time.UnixMilli(startMs.Int64).UTC()
			state.HasStart = true
		}
		// A running row without a start instant is malformed; treat as idle.
		if state.Status.Kind == model.LoopRunning && !state.HasStart {
			state.Status = model.LoopStatus{}
		}
		states[state.SubscriberID] = state
	}
	return states, rows.Err()
}

// CreateMarker inserts a loop marker and returns its id.
func (s *LoopStore) CreateMarker(ctx context.Context, m model.LoopMarker) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO loop_timeline_markers (subscriber_id, text, message, offset_minutes)
		 VALUES (?, ?, ?, ?)`,
		m.SubscriberID, m.Text, m.Message, m.OffsetMinutes,
	)
	if err != nil {
		return 0, fmt.Errorf("create loop marker: %w", err)
	}
	return res.LastInsertId()
}

// MarkersFor returns loop markers grouped by subscriber id, restricted to
// the given subscriber set.
func (s *LoopStore) MarkersFor(ctx context.Context, subscriberIDs []int64) (map[int64][]model.LoopMarker, error) {
	markers := make(map[int64][]model.LoopMarker)
	if len(subscriberIDs) == 0 {
		return markers, nil
	}

	query := `SELECT id, subscriber_id, text, message, offset_minutes
	          FROM loop_timeline_markers WHERE subscriber_id IN (` + placeholders(len(subscriberIDs)) + `) ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, int64Args(subscriberIDs)...)
	if err != nil {
		return nil, fmt.Errorf("list loop markers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m model.LoopMarker
		var message sql.NullString
		if err := rows.Scan(&m.ID, &m.SubscriberID, &m.Text, &message, &m.OffsetMinutes); err != nil {
			return nil, fmt.Errorf("scan loop marker: %w", err)
		}
		m.Message = message.String
		markers[m.SubscriberID] = append(markers[m.SubscriberID], m)
	}
	return markers, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
