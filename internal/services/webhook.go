package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/types"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorRed    = 16711680 // #FF0000 - task overdue
	ColorOrange = 16753920 // #FFA500 - task due soon

	Username = "Taskhive Reminders"
)

// SendTaskReminder posts a due-soon or overdue notice for a task to the
// configured Discord or Slack webhook.
func SendTaskReminder(channel, webhookURL, trigger string, board models.Board, task models.Task) error {
	switch channel {
	case types.ChannelDiscord:
		if err := sendDiscordTaskReminder(webhookURL, trigger, board, task); err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	case types.ChannelSlack:
		if err := sendSlackTaskReminder(webhookURL, trigger, board, task); err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	default:
		return fmt.Errorf("unsupported channel: %s", channel)
	}

	return nil
}

func dueDateLabel(task models.Task) string {
	if task.DueDate == nil {
		return "Unknown"
	}
	return task.DueDate.Format("2006-01-02")
}

func sendDiscordTaskReminder(webhookURL, trigger string, board models.Board, task models.Task) error {
	title := "⏰ **TASK DUE SOON**"
	description := fmt.Sprintf("**%s** is approaching its due date.", task.Title)
	color := ColorOrange

	if trigger == types.TriggerTaskOverdue {
		title = "🚨 **TASK OVERDUE**"
		description = fmt.Sprintf("**%s** is past its due date.", task.Title)
		color = ColorRed
	}

	payload := DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       title,
				Description: description,
				Color:       color,
				Fields: []DiscordWebhookField{
					{Name: "📝 Task", Value: task.Title, Inline: true},
					{Name: "📊 Status", Value: task.Status, Inline: true},
					{Name: "⚠️ Priority", Value: task.Priority, Inline: true},
					{Name: "📅 Due Date", Value: dueDateLabel(task), Inline: true},
				},
				Footer: &DiscordFooter{
					Text: fmt.Sprintf("Board: %s | Taskhive", board.Title),
				},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}

	return sendDiscordWebhook(webhookURL, payload)
}

func sendSlackTaskReminder(webhookURL, trigger string, board models.Board, task models.Task) error {
	text := ":alarm_clock: *TASK DUE SOON*"
	attachmentColor := "warning"
	attachmentTitle := fmt.Sprintf("Task '%s' is approaching its due date", task.Title)

	if trigger == types.TriggerTaskOverdue {
		text = ":rotating_light: *TASK OVERDUE*"
		attachmentColor = "danger"
		attachmentTitle = fmt.Sprintf("Task '%s' is past its due date", task.Title)
	}

	payload := SlackWebhookRequest{
		Username:  Username,
		IconEmoji: ":alarm_clock:",
		Text:      text,
		Attachments: []SlackAttachment{
			{
				Color: attachmentColor,
				Title: attachmentTitle,
				Text:  task.Description,
				Fields: []SlackField{
					{Title: "Task", Value: task.Title, Short: true},
					{Title: "Status", Value: task.Status, Short: true},
					{Title: "Priority", Value: task.Priority, Short: true},
					{Title: "Due Date", Value: dueDateLabel(task), Short: true},
				},
				Footer:    fmt.Sprintf("Board: %s", board.Title),
				Timestamp: time.Now().Unix(),
			},
		},
	}

	return sendSlackWebhook(webhookURL, payload)
}

func sendDiscordWebhook(webhookURL string, payload DiscordWebhookRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Discord payload: %w", err)
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send Discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Discord webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func sendSlackWebhook(webhookURL string, payload SlackWebhookRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send Slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Slack webhook returned status %d", resp.StatusCode)
	}

	return nil
}
