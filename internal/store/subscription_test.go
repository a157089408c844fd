package store

import (
	"context"
	"testing"
)

func TestCreateAndListActive(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	subs := NewSubscriptionStore(db)

	created, err := subs.Create(ctx, 7, "https://push.example.com/a", "p256dh-a", "auth-a", 540)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Error("expected non-zero id")
	}
	if !created.Active {
		t.Error("expected new subscription active")
	}
	if created.UTCOffsetMinutes != 540 {
		t.Errorf("offset = %d, want 540", created.UTCOffsetMinutes)
	}

	active, err := subs.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("len = %d, want 1", len(active))
	}
}

func TestCreateUpsertReactivates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	subs := NewSubscriptionStore(db)

	first, _ := subs.Create(ctx, 7, "https://push.example.com/a", "k1", "a1", 0)
	if err := subs.Deactivate(ctx, first.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	// Re-subscribing the same endpoint updates keys and reactivates.
	second, err := subs.Create(ctx, 7, "https://push.example.com/a", "k2", "a2", -60)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same id on upsert, got %d != %d", second.ID, first.ID)
	}
	if second.P256dhKey != "k2" {
		t.Errorf("p256dh = %q, want k2", second.P256dhKey)
	}
	if !second.Active {
		t.Error("expected upsert to reactivate")
	}
}

func TestDeactivateExcludesFromActiveSet(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	subs := NewSubscriptionStore(db)

	a, _ := subs.Create(ctx, 1, "https://push.example.com/a", "k", "a", 0)
	subs.Create(ctx, 2, "https://push.example.com/b", "k", "a", 0)

	if err := subs.Deactivate(ctx, a.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	active, err := subs.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("len = %d, want 1", len(active))
	}
	if active[0].SubscriberID != 2 {
		t.Errorf("remaining subscriber = %d, want 2", active[0].SubscriberID)
	}

	// The row still exists, only inactive.
	got, err := subs.getByEndpoint(ctx, "https://push.example.com/a")
	if err != nil {
		t.Fatalf("get by endpoint: %v", err)
	}
	if got == nil {
		t.Fatal("deactivated subscription was deleted")
	}
	if got.Active {
		t.Error("expected inactive")
	}
}
