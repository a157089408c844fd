package model

// QuestReminderSetting is a subscriber's opt-in daily quest reminder.
// ReminderTimeMinutes is minutes past local midnight.
type QuestReminderSetting struct {
	SubscriberID        int64 `json:"subscriber_id"`
	Enabled             bool  `json:"enabled"`
	ReminderTimeMinutes int   `json:"reminder_time_minutes"`
}

// DailyQuestTask is one quest entry for a local date. The dispatcher only
// counts these; an empty day never notifies.
type DailyQuestTask struct {
	ID           int64  `json:"id"`
	SubscriberID int64  `json:"subscriber_id"`
	LocalDate    string `json:"local_date"`
	Title        string `json:"title"`
	Completed    bool   `json:"completed"`
}
