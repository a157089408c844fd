package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/harwick/chime/internal/model"
)

// QuestStore reads quest reminder settings and daily quest tasks.
type QuestStore struct {
	db *sql.DB
}

func NewQuestStore(db *sql.DB) *QuestStore {
	return &QuestStore{db: db}
}

// SetSetting upserts a subscriber's quest reminder setting.
func (s *QuestStore) SetSetting(ctx context.Context, setting model.QuestReminderSetting) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quest_reminder_settings (subscriber_id, enabled, reminder_time_minutes)
		 VALUES (?, ?, ?)
		 ON CONFLICT(subscriber_id) DO UPDATE SET
		   enabled = excluded.enabled,
		   reminder_time_minutes = excluded.reminder_time_minutes`,
		setting.SubscriberID, boolToInt(setting.Enabled), setting.ReminderTimeMinutes,
	)
	if err != nil {
		return fmt.Errorf("set quest reminder setting: %w", err)
	}
	return nil
}

// SettingsFor returns enabled-or-not reminder settings keyed by subscriber
// id, restricted to the given subscriber set.
func (s *QuestStore) SettingsFor(ctx context.Context, subscriberIDs []int64) (map[int64]model.QuestReminderSetting, error) {
	settings := make(map[int64]model.QuestReminderSetting)
	if len(subscriberIDs) == 0 {
		return settings, nil
	}

	query := `SELECT subscriber_id, enabled, reminder_time_minutes
	          FROM quest_reminder_settings WHERE subscriber_id IN (` + placeholders(len(subscriberIDs)) + `)`
	rows, err := s.db.QueryContext(ctx, query, int64Args(subscriberIDs)...)
	if err != nil {
		return nil, fmt.Errorf("list quest reminder settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var setting model.QuestReminderSetting
		var enabled int
		if err := rows.Scan(&setting.SubscriberID, &enabled, &setting.ReminderTimeMinutes); err != nil {
			return nil, fmt.Errorf("scan quest reminder setting: %w", err)
		}
		setting.Enabled = enabled != 0
		settings[setting.SubscriberID] = setting
	}
	return settings, rows.Err()
}

// CreateTask inserts a daily quest task (test fixtures and task surface).
func (s *QuestStore) CreateTask(ctx context.Context, task model.DailyQuestTask) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_quest_tasks (subscriber_id, local_date, title, completed)
		 VALUES (?, ?, ?, ?)`,
		task.SubscriberID, task.LocalDate, task.Title, boolToInt(task.Completed),
	)
	if err != nil {
		return 0, fmt.Errorf("create daily quest task: %w", err)
	}
	return res.LastInsertId()
}

// TasksOn returns a subscriber's quest tasks for one local date.
func (s *QuestStore) TasksOn(ctx context.Context, subscriberID int64, localDate string) ([]model.DailyQuestTask, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subscriber_id, local_date, title, completed
		 FROM daily_quest_tasks WHERE subscriber_id = ? AND local_date = ? ORDER BY id`,
		subscriberID, localDate,
	)
	if err != nil {
		return nil, fmt.Errorf("list daily quest tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.DailyQuestTask
	for rows.Next() {
		var task model.DailyQuestTask
		var completed int
		if err := rows.Scan(&task.ID, &task.SubscriberID, &task.LocalDate, &task.Title, &completed); err != nil {
			return nil, fmt.Errorf("scan daily quest task: %w", err)
		}
		task.Completed = completed != 0
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
