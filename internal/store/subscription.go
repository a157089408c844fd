package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/harwick/chime/internal/model"
)

// SubscriptionStore reads and prunes push subscriptions. The dispatch
// engine never creates or hard-deletes rows; Create exists for the
// subscribe surface and for test fixtures.
type SubscriptionStore struct {
	db *sql.DB
}

func NewSubscriptionStore(db *sql.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

const subscriptionColumns = `id, subscriber_id, endpoint, p256dh_key, auth_key, utc_offset_minutes, active, created_at`

// Create upserts a subscription by endpoint, reactivating it if needed.
func (s *SubscriptionStore) Create(ctx context.Context, subscriberID int64, endpoint, p256dh, auth string, utcOffsetMinutes int) (*model.Subscription, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO push_subscriptions (subscriber_id, endpoint, p256dh_key, auth_key, utc_offset_minutes, active)
		 VALUES (?, ?, ?, ?, ?, 1)
		 ON CONFLICT(endpoint) DO UPDATE SET
		   subscriber_id = excluded.subscriber_id,
		   p256dh_key = excluded.p256dh_key,
		   auth_key = excluded.auth_key,
		   utc_offset_minutes = excluded.utc_offset_minutes,
		   active = 1`,
		subscriberID, endpoint, p256dh, auth, utcOffsetMinutes,
	)
	if err != nil {
		return nil, fmt.Errorf("create push subscription: %w", err)
	}
	return s.getByEndpoint(ctx, endpoint)
}

func (s *SubscriptionStore) getByEndpoint(ctx context.Context, endpoint string) (*model.Subscription, error) {
	var sub model.Subscription
	var active int
	err := s.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM push_subscriptions WHERE endpoint = ?`, endpoint,
	).Scan(&sub.ID, &sub.SubscriberID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.UTCOffsetMinutes, &active, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription by endpoint: %w", err)
	}
	sub.Active = active != 0
	return &sub, nil
}

// ListActive returns every active subscription, the tick's outer working set.
func (s *SubscriptionStore) ListActive(ctx context.Context) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM push_subscriptions WHERE active = 1 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list active push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		var sub model.Subscription
		var active int
		if err := rows.Scan(&sub.ID, &sub.SubscriberID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.UTCOffsetMinutes, &active, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		sub.Active = active != 0
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Deactivate marks a subscription inactive after the push service reported
// its endpoint gone. The row is kept; only this engine's working set shrinks.
func (s *SubscriptionStore) Deactivate(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE push_subscriptions SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate push subscription: %w", err)
	}
	return nil
}
