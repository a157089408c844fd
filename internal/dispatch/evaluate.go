package dispatch

import (
	"fmt"
	"time"

	"github.com/harwick/chime/internal/firetime"
	"github.com/harwick/chime/internal/model"
	"github.com/harwick/chime/internal/push"
)

// Occurrence is one due notification instance, fully described: the ledger
// key fields, the fire instant, and the payload to deliver if the claim is
// won.
type Occurrence struct {
	ScheduleID        int64
	NotificationIndex int
	MarkerID          int64
	FireAt            time.Time
	Payload           push.Payload
	Urgency           push.Urgency
}

// duePlan is everything due for one subscription this tick, with sources
// kept separate so the delivery pass can apply the priority policy: a won
// event claim suppresses the loop list, quest stands alone.
type duePlan struct {
	Sub    model.Subscription
	Events []Occurrence
	Loops  []Occurrence
	Quest  *Occurrence
}

// evaluate computes what is due right now for every subscription in the
// snapshot. It is pure: no claims, no sends, no clock reads.
func evaluate(snap *Snapshot, now time.Time, win firetime.Window, baseURL string) []duePlan {
	plans := make([]duePlan, 0, len(snap.Subscriptions))

	for _, sub := range snap.Subscriptions {
		plan := duePlan{Sub: sub}

		for _, item := range snap.Schedules[sub.SubscriberID] {
			for idx, spec := range item.Notifications {
				fireAt, ok := firetime.EventFireAt(item, spec, sub.UTCOffsetMinutes)
				if !ok || !win.Contains(fireAt, now) {
					continue
				}
				plan.Events = append(plan.Events, Occurrence{
					ScheduleID:        item.ID,
					NotificationIndex: idx,
					FireAt:            fireAt,
					Payload:           eventPayload(item, spec, baseURL),
					Urgency:           push.UrgencyHigh,
				})
			}
		}

		state, hasState := snap.LoopStates[sub.SubscriberID]
		if hasState {
			for _, marker := range snap.LoopMarkers[sub.SubscriberID] {
				for _, fireAt := range firetime.LoopCandidates(state, marker, now) {
					if !win.Contains(fireAt, now) {
						continue
					}
					plan.Loops = append(plan.Loops, Occurrence{
						MarkerID: marker.ID,
						FireAt:   fireAt,
						Payload:  loopPayload(marker, baseURL),
						Urgency:  push.UrgencyLow,
					})
				}
			}
		}

		plan.Quest = questOccurrence(snap, sub, now, win, baseURL)
		plans = append(plans, plan)
	}

	return plans
}

func questOccurrence(snap *Snapshot, sub model.Subscription, now time.Time, win firetime.Window, baseURL string) *Occurrence {
	setting, ok := snap.QuestSettings[sub.SubscriberID]
	if !ok || !setting.Enabled {
		return nil
	}

	fireAt, today := firetime.QuestFireAt(now, sub.UTCOffsetMinutes, setting.ReminderTimeMinutes)
	if !win.Contains(fireAt, now) {
		return nil
	}

	// An empty task list never notifies: there is nothing to be reminded of.
	tasks := snap.QuestTasks[QuestDayKey{SubscriberID: sub.SubscriberID, LocalDate: today}]
	if len(tasks) == 0 {
		return nil
	}
	remaining := 0
	for _, task := range tasks {
		if !task.Completed {
			remaining++
		}
	}
	if remaining == 0 {
		return nil
	}

	body := fmt.Sprintf("%d quests left today", remaining)
	if remaining == 1 {
		body = "1 quest left today"
	}
	return &Occurrence{
		MarkerID: 0, // quest sentinel, see store.QuestMarkerID
		FireAt:   fireAt,
		Payload: push.Payload{
			Title: "Daily quests",
			Body:  body,
			URL:   baseURL + "/#date=" + today,
			Tag:   "quest-" + today,
		},
		Urgency: push.UrgencyNormal,
	}
}

func eventPayload(item model.ScheduleItem, spec model.NotificationSpec, baseURL string) push.Payload {
	body := leadText(spec)
	if item.Memo != "" {
		body = body + " - " + item.Memo
	}
	return push.Payload{
		Title: item.Title,
		Body:  body,
		URL:   baseURL + "/#date=" + item.LocalDate,
		Tag:   fmt.Sprintf("schedule-%d", item.ID),
	}
}

func loopPayload(marker model.LoopMarker, baseURL string) push.Payload {
	body := marker.Message
	if body == "" {
		body = "Loop marker reached"
	}
	return push.Payload{
		Title: marker.Text,
		Body:  body,
		URL:   baseURL,
		Tag:   fmt.Sprintf("loop-%d", marker.ID),
	}
}

func leadText(spec model.NotificationSpec) string {
	if spec.Value == 0 {
		return "Starting now"
	}
	unit := string(spec.Unit)
	if spec.Value == 1 {
		unit = unit[:len(unit)-1]
	}
	return fmt.Sprintf("In %d %s", spec.Value, unit)
}
