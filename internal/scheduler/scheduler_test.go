package scheduler

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/types"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(
		&models.User{},
		&models.Board{},
		&models.Task{},
		&models.ReminderRule{},
		&models.Notification{},
	))

	return gdb
}

func seedBoard(t *testing.T, gdb *gorm.DB) models.Board {
	t.Helper()

	owner := models.User{Username: "owner", Email: "owner@example.com", PasswordHash: "x"}
	require.NoError(t, gdb.Create(&owner).Error)

	board := models.Board{Title: "Sprint", OwnerID: owner.ID}
	require.NoError(t, gdb.Create(&board).Error)

	return board
}

func seedDueTask(t *testing.T, gdb *gorm.DB, board models.Board, title, status string, due time.Time) models.Task {
	t.Helper()

	task := models.Task{
		BoardID:  board.ID,
		Title:    title,
		Status:   status,
		Priority: "medium",
		DueDate:  &due,
	}

	require.NoError(t, gdb.Create(&task).Error)
	return task
}

func TestParseConfigDefaults(t *testing.T) {
	rule := models.ReminderRule{}

	cfg := parseConfig(rule)
	assert.Equal(t, types.DefaultReminderIntervalSeconds, cfg.IntervalSeconds)
	assert.Equal(t, types.DefaultReminderLeadTimeHours, cfg.LeadTimeHours)
	assert.Empty(t, cfg.WebhookURL)
}

func TestParseConfigOverrides(t *testing.T) {
	rule := models.ReminderRule{
		Config: datatypes.JSON(`{"webhook_url":"https://hooks.example.com/x","interval_seconds":60,"lead_time_hours":4}`),
	}

	cfg := parseConfig(rule)
	assert.Equal(t, "https://hooks.example.com/x", cfg.WebhookURL)
	assert.Equal(t, 60, cfg.IntervalSeconds)
	assert.Equal(t, 4, cfg.LeadTimeHours)
}

func TestParseConfigInvalidJSONFallsBackToDefaults(t *testing.T) {
	rule := models.ReminderRule{Config: datatypes.JSON(`not json`)}

	cfg := parseConfig(rule)
	assert.Equal(t, types.DefaultReminderIntervalSeconds, cfg.IntervalSeconds)
	assert.Equal(t, types.DefaultReminderLeadTimeHours, cfg.LeadTimeHours)
}

func TestDueSoonWindow(t *testing.T) {
	gdb := newTestDB(t)
	board := seedBoard(t, gdb)

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	inWindow := seedDueTask(t, gdb, board, "due soon", types.StatusTodo, now.Add(6*time.Hour))
	seedDueTask(t, gdb, board, "too far", types.StatusTodo, now.Add(48*time.Hour))
	seedDueTask(t, gdb, board, "already past", types.StatusTodo, now.Add(-time.Hour))
	seedDueTask(t, gdb, board, "finished", types.StatusDone, now.Add(6*time.Hour))

	rule := models.ReminderRule{BoardID: board.ID, TriggerType: types.TriggerTaskDueSoon}
	cfg := types.ReminderConfig{LeadTimeHours: 24}

	tasks, err := dueTasks(gdb, rule, cfg, now)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, inWindow.ID, tasks[0].ID)
}

func TestOverdueWindow(t *testing.T) {
	gdb := newTestDB(t)
	board := seedBoard(t, gdb)

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	overdue := seedDueTask(t, gdb, board, "late", types.StatusInProgress, now.Add(-2*time.Hour))
	seedDueTask(t, gdb, board, "still ahead", types.StatusTodo, now.Add(2*time.Hour))
	seedDueTask(t, gdb, board, "late but done", types.StatusDone, now.Add(-2*time.Hour))

	noDue := models.Task{BoardID: board.ID, Title: "no due date", Status: types.StatusTodo, Priority: "medium"}
	require.NoError(t, gdb.Create(&noDue).Error)

	rule := models.ReminderRule{BoardID: board.ID, TriggerType: types.TriggerTaskOverdue}

	tasks, err := dueTasks(gdb, rule, types.ReminderConfig{}, now)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, overdue.ID, tasks[0].ID)
}

func TestDueTasksScopedToRuleBoard(t *testing.T) {
	gdb := newTestDB(t)
	board := seedBoard(t, gdb)

	otherBoard := models.Board{Title: "Other", OwnerID: board.OwnerID}
	require.NoError(t, gdb.Create(&otherBoard).Error)

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	seedDueTask(t, gdb, board, "mine", types.StatusTodo, now.Add(-time.Hour))
	seedDueTask(t, gdb, otherBoard, "not mine", types.StatusTodo, now.Add(-time.Hour))

	rule := models.ReminderRule{BoardID: board.ID, TriggerType: types.TriggerTaskOverdue}

	tasks, err := dueTasks(gdb, rule, types.ReminderConfig{}, now)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "mine", tasks[0].Title)
}

func TestDueTasksUnknownTriggerMatchesNothing(t *testing.T) {
	gdb := newTestDB(t)
	board := seedBoard(t, gdb)

	now := time.Now()
	seedDueTask(t, gdb, board, "whatever", types.StatusTodo, now.Add(-time.Hour))

	rule := models.ReminderRule{BoardID: board.ID, TriggerType: "task_created"}

	tasks, err := dueTasks(gdb, rule, types.ReminderConfig{}, now)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestAlreadyNotified(t *testing.T) {
	gdb := newTestDB(t)
	board := seedBoard(t, gdb)

	now := time.Now()
	task := seedDueTask(t, gdb, board, "late", types.StatusTodo, now.Add(-time.Hour))

	rule := models.ReminderRule{BoardID: board.ID, TriggerType: types.TriggerTaskOverdue, Channel: types.ChannelSlack}
	require.NoError(t, gdb.Create(&rule).Error)

	notified, err := alreadyNotified(gdb, rule.ID, task.ID)
	require.NoError(t, err)
	assert.False(t, notified)

	sentAt := time.Now()
	require.NoError(t, gdb.Create(&models.Notification{
		RuleID:  rule.ID,
		TaskID:  task.ID,
		Channel: rule.Channel,
		Status:  "sent",
		SentAt:  &sentAt,
	}).Error)

	notified, err = alreadyNotified(gdb, rule.ID, task.ID)
	require.NoError(t, err)
	assert.True(t, notified)
}

func TestFailedNotificationDoesNotSuppressRetry(t *testing.T) {
	gdb := newTestDB(t)
	board := seedBoard(t, gdb)

	now := time.Now()
	task := seedDueTask(t, gdb, board, "late", types.StatusTodo, now.Add(-time.Hour))

	rule := models.ReminderRule{BoardID: board.ID, TriggerType: types.TriggerTaskOverdue, Channel: types.ChannelDiscord}
	require.NoError(t, gdb.Create(&rule).Error)

	require.NoError(t, gdb.Create(&models.Notification{
		RuleID:  rule.ID,
		TaskID:  task.ID,
		Channel: rule.Channel,
		Status:  "failed",
		Message: "webhook unreachable",
	}).Error)

	notified, err := alreadyNotified(gdb, rule.ID, task.ID)
	require.NoError(t, err)
	assert.False(t, notified)
}
