package dispatch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harwick/chime/internal/localtime"
	"github.com/harwick/chime/internal/metrics"
	"github.com/harwick/chime/internal/model"
)

// QuestDayKey identifies one subscriber's local day; quest tasks are loaded
// per key because subscribers sit at different UTC offsets.
type QuestDayKey struct {
	SubscriberID int64
	LocalDate    string
}

// Snapshot is the whole working set for one tick, loaded once up front.
// Nothing in it is shared with or survives into another tick.
type Snapshot struct {
	Subscriptions []model.Subscription
	Schedules     map[int64][]model.ScheduleItem
	LoopStates    map[int64]model.LoopState
	LoopMarkers   map[int64][]model.LoopMarker
	QuestSettings map[int64]model.QuestReminderSetting
	QuestTasks    map[QuestDayKey][]model.DailyQuestTask
}

const dateLayout = "2006-01-02"

// loadSnapshot fetches the tick working set. The schedule window is padded
// two days on both sides so one global query tolerates any subscriber
// offset; loop and quest reads are restricted to the active subscriber set.
// The batchable reads run concurrently; quest tasks depend on each
// subscriber's local today and are fetched after.
func (e *Engine) loadSnapshot(ctx context.Context, now time.Time) (*Snapshot, error) {
	start := time.Now()

	subs, err := e.subs.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	snap := &Snapshot{
		Subscriptions: subs,
		Schedules:     make(map[int64][]model.ScheduleItem),
		QuestTasks:    make(map[QuestDayKey][]model.DailyQuestTask),
	}

	ids := subscriberIDs(subs)
	today := now.UTC()
	from := today.AddDate(0, 0, -2).Format(dateLayout)
	to := today.AddDate(0, 0, e.cfg.LookaheadDays+2).Format(dateLayout)

	var items []model.ScheduleItem
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = e.schedules.ListBetween(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		snap.LoopStates, err = e.loops.StatesFor(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		snap.LoopMarkers, err = e.loops.MarkersFor(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		snap.QuestSettings, err = e.quests.SettingsFor(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load tick state: %w", err)
	}

	for _, item := range items {
		snap.Schedules[item.SubscriberID] = append(snap.Schedules[item.SubscriberID], item)
	}

	for _, sub := range subs {
		setting, ok := snap.QuestSettings[sub.SubscriberID]
		if !ok || !setting.Enabled {
			continue
		}
		key := QuestDayKey{
			SubscriberID: sub.SubscriberID,
			LocalDate:    localtime.DateString(now, sub.UTCOffsetMinutes),
		}
		if _, done := snap.QuestTasks[key]; done {
			continue
		}
		tasks, err := e.quests.TasksOn(ctx, key.SubscriberID, key.LocalDate)
		if err != nil {
			return nil, fmt.Errorf("load quest tasks: %w", err)
		}
		snap.QuestTasks[key] = tasks
	}

	metrics.SnapshotLoadDuration.Observe(time.Since(start).Seconds())
	return snap, nil
}

func subscriberIDs(subs []model.Subscription) []int64 {
	seen := make(map[int64]bool, len(subs))
	ids := make([]int64, 0, len(subs))
	for _, sub := range subs {
		if seen[sub.SubscriberID] {
			continue
		}
		seen[sub.SubscriberID] = true
		ids = append(ids, sub.SubscriberID)
	}
	return ids
}
