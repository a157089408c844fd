// Package firetime computes the UTC instants at which notification
// occurrences should fire, and decides whether a fire time is due against
// the current tick. Everything here is pure.
package firetime

import (
	"time"

	"github.com/harwick/chime/internal/localtime"
	"github.com/harwick/chime/internal/model"
)

// AllDayHour is the fixed local display hour for all-day items; their
// reminders are anchored to 09:00 local.
const AllDayHour = 9

// Window is the acceptance interval around "now". A fire time diff of
// [-Late, +Early] counts as due. Late absorbs a tick that ran behind
// schedule; Early must stay small or a future minute's notification gets
// pulled forward by up to a whole tick period.
type Window struct {
	Late  time.Duration
	Early time.Duration
}

// Contains reports whether fireAt is due at now.
func (w Window) Contains(fireAt, now time.Time) bool {
	diff := fireAt.Sub(now)
	return diff >= -w.Late && diff <= w.Early
}

// EventFireAt computes the UTC fire instant for one notification spec of a
// schedule item, for a subscriber at the given UTC offset. ok is false when
// no fire time exists: unparseable date, or a timed item with no time.
func EventFireAt(item model.ScheduleItem, spec model.NotificationSpec, offsetMinutes int) (fireAt time.Time, ok bool) {
	midnight, err := localtime.MidnightUTC(item.LocalDate, offsetMinutes)
	if err != nil {
		return time.Time{}, false
	}

	var base time.Time
	if item.AllDay {
		base = midnight.Add(AllDayHour * time.Hour)
	} else {
		if item.LocalTime == "" {
			return time.Time{}, false
		}
		h, m, err := localtime.ParseClock(item.LocalTime)
		if err != nil {
			return time.Time{}, false
		}
		base = midnight.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
	}

	return base.Add(-lead(spec)), true
}

func lead(spec model.NotificationSpec) time.Duration {
	switch spec.Unit {
	case model.UnitHours:
		return time.Duration(spec.Value) * time.Hour
	case model.UnitDays:
		return time.Duration(spec.Value) * 24 * time.Hour
	default:
		return time.Duration(spec.Value) * time.Minute
	}
}

// LoopCandidates returns the candidate fire instants for a marker within
// the current and next cycle. Two candidates are needed because the due
// window can straddle a cycle boundary; under normal tick cadence at most
// one lands inside the window. Returns nil unless the loop is running and
// has started.
func LoopCandidates(state model.LoopState, marker model.LoopMarker, now time.Time) []time.Time {
	if state.Status.Kind != model.LoopRunning || !state.HasStart {
		return nil
	}
	if state.DurationMinutes <= 0 || now.Before(state.StartAt) {
		return nil
	}

	offset := marker.OffsetMinutes
	if offset < 0 {
		offset = 0
	}
	if offset > state.DurationMinutes {
		offset = state.DurationMinutes
	}

	dur := state.Duration()
	cycle := now.Sub(state.StartAt) / dur
	markerOffset := time.Duration(offset) * time.Minute

	return []time.Time{
		state.StartAt.Add(cycle*dur + markerOffset),
		state.StartAt.Add((cycle+1)*dur + markerOffset),
	}
}

// QuestFireAt computes today's quest reminder instant for a subscriber at
// the given offset: local midnight of the local "today" plus the configured
// minutes-of-day, seconds zeroed.
func QuestFireAt(now time.Time, offsetMinutes, reminderMinutesOfDay int) (time.Time, string) {
	today := localtime.DateString(now, offsetMinutes)
	midnight, err := localtime.MidnightUTC(today, offsetMinutes)
	if err != nil {
		// DateString always emits a parseable date.
		return time.Time{}, today
	}
	h := reminderMinutesOfDay / 60
	m := reminderMinutesOfDay % 60
	return midnight.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), today
}
