package models

// NotificationSettings controls the reminder scheduler.
type NotificationSettings struct {
	Enabled           bool   `json:"enabled"`
	DailyReminderTime string `json:"daily_reminder_time" validate:"required,hhmm"`
	StreakReminder    bool   `json:"streak_reminder"`
}

// DefaultNotificationSettings is used when nothing valid is stored.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Enabled:           false,
		DailyReminderTime: "09:00",
		StreakReminder:    true,
	}
}

// NotificationState tracks the last date each reminder kind fired.
type NotificationState struct {
	LastShown map[string]string `json:"last_shown"`
}

// Notification is a reminder ready for delivery.
type Notification struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Date  string `json:"date"`
}
