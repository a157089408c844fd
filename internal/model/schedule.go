package model

// NotifyUnit is the lead-time unit of a notification spec.
type NotifyUnit string

const (
	UnitMinutes NotifyUnit = "minutes"
	UnitHours   NotifyUnit = "hours"
	UnitDays    NotifyUnit = "days"
)

// MaxNotifications caps the notification specs per schedule item.
const MaxNotifications = 3

// NotificationSpec is one reminder lead time for a schedule item.
// Value 0 with UnitMinutes is the canonical "at start time" spec.
type NotificationSpec struct {
	Value int        `json:"value"`
	Unit  NotifyUnit `json:"unit"`
}

// ScheduleItem is one calendar entry. LocalDate is "YYYY-MM-DD" and
// LocalTime is "HH:MM" in the subscriber's local clock; LocalTime is empty
// for all-day items.
type ScheduleItem struct {
	ID            int64              `json:"id"`
	SubscriberID  int64              `json:"subscriber_id"`
	LocalDate     string             `json:"local_date"`
	LocalTime     string             `json:"local_time,omitempty"`
	AllDay        bool               `json:"all_day"`
	Title         string             `json:"title"`
	Memo          string             `json:"memo,omitempty"`
	Notifications []NotificationSpec `json:"notifications"`
	IsTask        bool               `json:"is_task"`
	Completed     bool               `json:"completed"`
}

// SanitizeNotifications validates a raw notification list into the strict
// internal form: unknown units and negative values are dropped, the list is
// capped at MaxNotifications, and for all-day items minute/hour units are
// coerced to days (sub-day lead times have no meaning without a start time).
// Sanitization is deterministic, so list positions are stable dedup keys
// across ticks.
func SanitizeNotifications(specs []NotificationSpec, allDay bool) []NotificationSpec {
	out := make([]NotificationSpec, 0, len(specs))
	for _, s := range specs {
		if s.Value < 0 {
			continue
		}
		switch s.Unit {
		case UnitMinutes, UnitHours, UnitDays:
		default:
			continue
		}
		if allDay && s.Unit != UnitDays {
			s.Unit = UnitDays
		}
		out = append(out, s)
		if len(out) == MaxNotifications {
			break
		}
	}
	return out
}
