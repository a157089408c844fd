package store

import (
	"context"
	"testing"
	"time"
)

func TestClaimEventIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	ledger := NewSendLogStore(db)

	fireAt := time.Date(2025, 7, 21, 13, 45, 0, 0, time.UTC)

	won, err := ledger.ClaimEvent(ctx, 7, "https://push.example.com/a", 42, 0, fireAt)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if !won {
		t.Fatal("first claim should win")
	}

	won, err = ledger.ClaimEvent(ctx, 7, "https://push.example.com/a", 42, 0, fireAt)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if won {
		t.Error("second identical claim should lose")
	}
}

func TestClaimEventDistinctKeys(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	ledger := NewSendLogStore(db)

	fireAt := time.Date(2025, 7, 21, 13, 45, 0, 0, time.UTC)

	base, _ := ledger.ClaimEvent(ctx, 7, "https://push.example.com/a", 42, 0, fireAt)
	if !base {
		t.Fatal("base claim should win")
	}

	// Every varied dimension is a fresh occurrence.
	variants := []struct {
		name         string
		subscriberID int64
		endpoint     string
		scheduleID   int64
		index        int
		fireAt       time.Time
	}{
		{"other_subscriber", 8, "https://push.example.com/a", 42, 0, fireAt},
		{"other_endpoint", 7, "https://push.example.com/b", 42, 0, fireAt},
		{"other_schedule", 7, "https://push.example.com/a", 43, 0, fireAt},
		{"other_index", 7, "https://push.example.com/a", 42, 1, fireAt},
		{"other_fire_time", 7, "https://push.example.com/a", 42, 0, fireAt.Add(time.Minute)},
	}
	for _, v := range variants {
		won, err := ledger.ClaimEvent(ctx, v.subscriberID, v.endpoint, v.scheduleID, v.index, v.fireAt)
		if err != nil {
			t.Fatalf("%s: %v", v.name, err)
		}
		if !won {
			t.Errorf("%s: expected fresh key to win", v.name)
		}
	}
}

func TestClaimLoopIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	ledger := NewSendLogStore(db)

	fireAt := time.Date(2025, 7, 21, 10, 5, 0, 0, time.UTC)

	won, err := ledger.ClaimLoop(ctx, 7, "https://push.example.com/a", 3, fireAt)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if !won {
		t.Fatal("first claim should win")
	}

	won, _ = ledger.ClaimLoop(ctx, 7, "https://push.example.com/a", 3, fireAt)
	if won {
		t.Error("second identical claim should lose")
	}

	// Next cycle's occurrence of the same marker is a fresh key.
	won, _ = ledger.ClaimLoop(ctx, 7, "https://push.example.com/a", 3, fireAt.Add(time.Hour))
	if !won {
		t.Error("next cycle should win")
	}
}

func TestQuestClaimSharesLoopKeySpace(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	ledger := NewSendLogStore(db)

	fireAt := time.Date(2025, 7, 21, 11, 30, 0, 0, time.UTC)

	won, err := ledger.ClaimLoop(ctx, 7, "https://push.example.com/a", QuestMarkerID, fireAt)
	if err != nil {
		t.Fatalf("quest claim: %v", err)
	}
	if !won {
		t.Fatal("quest claim should win")
	}

	// The sentinel does not collide with a real marker at the same instant.
	won, _ = ledger.ClaimLoop(ctx, 7, "https://push.example.com/a", 1, fireAt)
	if !won {
		t.Error("real marker should win despite quest claim at same instant")
	}

	won, _ = ledger.ClaimLoop(ctx, 7, "https://push.example.com/a", QuestMarkerID, fireAt)
	if won {
		t.Error("second quest claim should lose")
	}
}

func TestEventAndLoopKeysIndependent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	ledger := NewSendLogStore(db)

	fireAt := time.Date(2025, 7, 21, 12, 0, 0, 0, time.UTC)

	if won, _ := ledger.ClaimEvent(ctx, 7, "https://push.example.com/a", 1, 0, fireAt); !won {
		t.Fatal("event claim should win")
	}
	if won, _ := ledger.ClaimLoop(ctx, 7, "https://push.example.com/a", 1, fireAt); !won {
		t.Error("loop claim should win; key shapes must not collide")
	}
}
