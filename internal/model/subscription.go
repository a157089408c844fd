package model

import "time"

// Subscription is one push endpoint for one subscriber. A subscriber may
// hold several (multi-device). Subscriptions are deactivated, never deleted,
// when the push service reports the endpoint permanently gone.
type Subscription struct {
	ID               int64     `json:"id"`
	SubscriberID     int64     `json:"subscriber_id"`
	Endpoint         string    `json:"endpoint"`
	P256dhKey        string    `json:"p256dh_key"`
	AuthKey          string    `json:"auth_key"`
	UTCOffsetMinutes int       `json:"utc_offset_minutes"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
}
