package types

// Reminder trigger types.
const (
	TriggerTaskDueSoon = "task_due_soon"
	TriggerTaskOverdue = "task_overdue"
)

// Reminder channels.
const (
	ChannelDiscord = "discord"
	ChannelSlack   = "slack"
)

// ReminderConfig is the JSON payload stored on a reminder rule.
type ReminderConfig struct {
	WebhookURL      string `json:"webhook_url"`
	IntervalSeconds int    `json:"interval_seconds,omitempty"` // sweep interval, default 900
	LeadTimeHours   int    `json:"lead_time_hours,omitempty"`  // due-soon window, default 24
}

const (
	DefaultReminderIntervalSeconds = 900
	DefaultReminderLeadTimeHours   = 24
)
