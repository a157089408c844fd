// Package dispatch is the tick orchestrator: once per trigger it loads the
// working set, computes every due notification occurrence, claims each one
// in the dedup ledger, and delivers the claims it wins. Each tick is
// stateless and independent; the ledger's unique insert is the only mutual
// exclusion, which makes overlapping ticks (scheduled + manual) safe.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/harwick/chime/internal/firetime"
	"github.com/harwick/chime/internal/metrics"
	"github.com/harwick/chime/internal/model"
	"github.com/harwick/chime/internal/push"
	"github.com/harwick/chime/internal/store"
)

// Sender delivers one push notification. *push.Service implements it.
type Sender interface {
	Send(ctx context.Context, sub *model.Subscription, payload push.Payload, urgency push.Urgency) error
}

// Config carries the tick tuning knobs.
type Config struct {
	Window        firetime.Window
	LookaheadDays int
	BaseURL       string
}

// Engine wires the stores, the ledger, and the push sender into one tick
// pass. It holds no per-tick state.
type Engine struct {
	subs      *store.SubscriptionStore
	schedules *store.ScheduleStore
	loops     *store.LoopStore
	quests    *store.QuestStore
	ledger    *store.SendLogStore
	sender    Sender
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
}

func New(subs *store.SubscriptionStore, schedules *store.ScheduleStore, loops *store.LoopStore, quests *store.QuestStore, ledger *store.SendLogStore, sender Sender, cfg Config, logger *slog.Logger) *Engine {
	return &Engine{
		subs:      subs,
		schedules: schedules,
		loops:     loops,
		quests:    quests,
		ledger:    ledger,
		sender:    sender,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Tick runs one full dispatch pass. A snapshot load failure aborts the tick
// and is returned; per-occurrence failures are logged and absorbed so one
// subscriber's bad row or dead endpoint never blocks the rest.
func (e *Engine) Tick(ctx context.Context) error {
	start := time.Now()
	now := e.now().UTC()

	snap, err := e.loadSnapshot(ctx, now)
	if err != nil {
		metrics.TicksTotal.WithLabelValues(metrics.ResultError).Inc()
		return fmt.Errorf("load snapshot: %w", err)
	}

	plans := evaluate(snap, now, e.cfg.Window, e.cfg.BaseURL)
	for _, plan := range plans {
		e.deliverPlan(ctx, plan)
	}

	metrics.TicksTotal.WithLabelValues(metrics.ResultOK).Inc()
	metrics.TickDuration.Observe(time.Since(start).Seconds())
	e.logger.Debug("tick complete",
		"subscriptions", len(snap.Subscriptions),
		"duration", time.Since(start))
	return nil
}

// deliverPlan claims and sends one subscription's due occurrences. Event
// reminders go first; winning any event claim suppresses this tick's loop
// notifications for the subscription, whatever the delivery outcome. Quest
// reminders are daily and rare enough that they ignore the flag.
func (e *Engine) deliverPlan(ctx context.Context, plan duePlan) {
	suppressed := false

	for _, occ := range plan.Events {
		won, err := e.ledger.ClaimEvent(ctx, plan.Sub.SubscriberID, plan.Sub.Endpoint, occ.ScheduleID, occ.NotificationIndex, occ.FireAt)
		if err != nil {
			e.logger.Warn("event claim failed", "subscription", plan.Sub.ID, "schedule", occ.ScheduleID, "error", err)
			continue
		}
		if !won {
			metrics.ClaimConflictsTotal.WithLabelValues(metrics.SourceEvent).Inc()
			continue
		}
		suppressed = true
		e.send(ctx, plan.Sub, occ, metrics.SourceEvent)
	}

	if suppressed {
		if n := len(plan.Loops); n > 0 {
			metrics.LoopSuppressedTotal.Add(float64(n))
			e.logger.Debug("loop notifications suppressed by event reminder", "subscription", plan.Sub.ID, "count", n)
		}
	} else {
		for _, occ := range plan.Loops {
			won, err := e.ledger.ClaimLoop(ctx, plan.Sub.SubscriberID, plan.Sub.Endpoint, occ.MarkerID, occ.FireAt)
			if err != nil {
				e.logger.Warn("loop claim failed", "subscription", plan.Sub.ID, "marker", occ.MarkerID, "error", err)
				continue
			}
			if !won {
				metrics.ClaimConflictsTotal.WithLabelValues(metrics.SourceLoop).Inc()
				continue
			}
			e.send(ctx, plan.Sub, occ, metrics.SourceLoop)
		}
	}

	if occ := plan.Quest; occ != nil {
		won, err := e.ledger.ClaimLoop(ctx, plan.Sub.SubscriberID, plan.Sub.Endpoint, store.QuestMarkerID, occ.FireAt)
		if err != nil {
			e.logger.Warn("quest claim failed", "subscription", plan.Sub.ID, "error", err)
			return
		}
		if !won {
			metrics.ClaimConflictsTotal.WithLabelValues(metrics.SourceQuest).Inc()
			return
		}
		e.send(ctx, plan.Sub, *occ, metrics.SourceQuest)
	}
}

// send delivers a claimed occurrence. The claim is already committed, so a
// delivery failure here means this occurrence is gone for good; that is the
// accepted trade-off, duplicates being worse than a lost reminder. A gone
// endpoint deactivates the subscription for all future ticks.
func (e *Engine) send(ctx context.Context, sub model.Subscription, occ Occurrence, source string) {
	start := time.Now()
	err := e.sender.Send(ctx, &sub, occ.Payload, occ.Urgency)
	metrics.PushSendDuration.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, push.ErrExpired):
		if derr := e.subs.Deactivate(ctx, sub.ID); derr != nil {
			e.logger.Error("deactivate gone subscription", "subscription", sub.ID, "error", derr)
			return
		}
		metrics.SubscriptionsDeactivatedTotal.Inc()
		e.logger.Info("subscription endpoint gone, deactivated", "subscription", sub.ID)
	case err != nil:
		metrics.DeliveryErrorsTotal.WithLabelValues(source).Inc()
		e.logger.Warn("push delivery failed", "subscription", sub.ID, "source", source, "error", err)
	default:
		metrics.NotificationsSentTotal.WithLabelValues(source).Inc()
	}
}
