package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LoopStatusKind enumerates the loop timeline states.
type LoopStatusKind int

const (
	LoopIdle LoopStatusKind = iota
	LoopRunning
	LoopPaused
)

// LoopStatus is the explicit variant form of the stored status string.
// The store encodes it as "idle", "running", or "paused:<elapsedMs>";
// ElapsedMs is meaningful only for LoopPaused.
type LoopStatus struct {
	Kind      LoopStatusKind
	ElapsedMs int64
}

// ParseLoopStatus decodes a stored status string. Unrecognized or malformed
// values decode as idle, which keeps a corrupt row from aborting a tick.
func ParseLoopStatus(s string) LoopStatus {
	switch {
	case s == "running":
		return LoopStatus{Kind: LoopRunning}
	case strings.HasPrefix(s, "paused:"):
		ms, err := strconv.ParseInt(strings.TrimPrefix(s, "paused:"), 10, 64)
		if err != nil || ms < 0 {
			return LoopStatus{}
		}
		return LoopStatus{Kind: LoopPaused, ElapsedMs: ms}
	default:
		return LoopStatus{}
	}
}

// Encode returns the storage form of the status.
func (ls LoopStatus) Encode() string {
	switch ls.Kind {
	case LoopRunning:
		return "running"
	case LoopPaused:
		return fmt.Sprintf("paused:%d", ls.ElapsedMs)
	default:
		return "idle"
	}
}

// LoopState is a subscriber's repeating cycle clock. StartAt is set while
// running; markers fire at fixed offsets within each cycle.
type LoopState struct {
	SubscriberID    int64
	DurationMinutes int
	StartAt         time.Time
	HasStart        bool
	Status          LoopStatus
}

// Duration returns the cycle length.
func (s LoopState) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// Start begins the cycle clock from now. No-op unless idle.
func (s *LoopState) Start(now time.Time) {
	if s.Status.Kind != LoopIdle {
		return
	}
	s.Status = LoopStatus{Kind: LoopRunning}
	s.StartAt = now
	s.HasStart = true
}

// Pause captures the elapsed time and stops the clock. No-op unless running.
func (s *LoopState) Pause(now time.Time) {
	if s.Status.Kind != LoopRunning || !s.HasStart {
		return
	}
	elapsed := now.Sub(s.StartAt).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	s.Status = LoopStatus{Kind: LoopPaused, ElapsedMs: elapsed}
	s.HasStart = false
}

// Resume restarts the clock preserving the captured elapsed time, by
// back-dating StartAt. No-op unless paused.
func (s *LoopState) Resume(now time.Time) {
	if s.Status.Kind != LoopPaused {
		return
	}
	s.StartAt = now.Add(-time.Duration(s.Status.ElapsedMs) * time.Millisecond)
	s.HasStart = true
	s.Status = LoopStatus{Kind: LoopRunning}
}

// Reset clears the clock back to idle from any state.
func (s *LoopState) Reset() {
	s.Status = LoopStatus{}
	s.HasStart = false
	s.StartAt = time.Time{}
}

// LoopMarker is a named point within one loop cycle.
type LoopMarker struct {
	ID            int64  `json:"id"`
	SubscriberID  int64  `json:"subscriber_id"`
	Text          string `json:"text"`
	Message       string `json:"message,omitempty"`
	OffsetMinutes int    `json:"offset_minutes"`
}
