package scheduler

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/taskhive-dev/taskhive/db"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/services"
	"github.com/taskhive-dev/taskhive/internal/types"
	"gorm.io/gorm"
)

type Scheduler struct {
	rules  map[uint]*ReminderJob // rule ID -> job
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

type ReminderJob struct {
	rule   models.ReminderRule
	ticker *time.Ticker
	cancel context.CancelFunc
}

// NewScheduler initializes a new Scheduler instance
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		rules:  make(map[uint]*ReminderJob),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start loads all active reminder rules and begins scheduling
func (s *Scheduler) Start() error {
	log.Println("Starting reminder scheduler...")

	var rulesList []models.ReminderRule
	if err := db.DB.Where("is_active = ?", true).Find(&rulesList).Error; err != nil {
		return err
	}

	for _, rule := range rulesList {
		s.AddRule(rule)
	}

	log.Printf("Reminder scheduler started with %d rules", len(rulesList))
	return nil
}

// Stop gracefully shuts down all reminder jobs
func (s *Scheduler) Stop() {
	log.Println("Stopping reminder scheduler...")
	s.cancel() // Cancel main context

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.rules {
		job.ticker.Stop()
		job.cancel()
	}

	s.rules = make(map[uint]*ReminderJob)
	log.Println("Reminder scheduler stopped")
}

// AddRule starts sweeping for a specific reminder rule
func (s *Scheduler) AddRule(rule models.ReminderRule) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Stop existing job if it exists
	if existingJob, exists := s.rules[rule.ID]; exists {
		existingJob.ticker.Stop()
		existingJob.cancel()
	}

	cfg := parseConfig(rule)

	jobCtx, jobCancel := context.WithCancel(s.ctx)
	ticker := time.NewTicker(time.Duration(cfg.IntervalSeconds) * time.Second)

	job := &ReminderJob{
		rule:   rule,
		ticker: ticker,
		cancel: jobCancel,
	}

	s.rules[rule.ID] = job

	// Start the sweep goroutine with an immediate first pass
	go func() {
		ruleCopy := rule
		s.executeSweep(ruleCopy)
		s.runRule(jobCtx, job)
	}()

	log.Printf("Added reminder rule %d (%s) with immediate sweep", rule.ID, rule.TriggerType)
}

// RemoveRule stops sweeping for a specific rule
func (s *Scheduler) RemoveRule(ruleID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, exists := s.rules[ruleID]; exists {
		job.ticker.Stop()
		job.cancel()
		delete(s.rules, ruleID)
		log.Printf("Removed reminder rule %d", ruleID)
	}
}

// RemoveRulesForBoard stops every rule that belongs to the board
func (s *Scheduler) RemoveRulesForBoard(boardID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, job := range s.rules {
		if job.rule.BoardID == boardID {
			job.ticker.Stop()
			job.cancel()
			delete(s.rules, id)
			log.Printf("Removed reminder rule %d for board %d", id, boardID)
		}
	}
}

// runRule executes the periodic sweeps
func (s *Scheduler) runRule(ctx context.Context, job *ReminderJob) {
	defer job.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-job.ticker.C:
			// Get a safe copy of the rule data under read lock
			s.mu.RLock()
			ruleCopy := job.rule
			s.mu.RUnlock()

			s.executeSweep(ruleCopy)
		}
	}
}

// parseConfig decodes the rule config, filling in defaults.
func parseConfig(rule models.ReminderRule) types.ReminderConfig {
	var cfg types.ReminderConfig

	if len(rule.Config) > 0 {
		if err := json.Unmarshal(rule.Config, &cfg); err != nil {
			log.Printf("Invalid config for reminder rule %d: %v", rule.ID, err)
		}
	}

	if cfg.IntervalSeconds <= 0 {
		cfg.IntervalSeconds = types.DefaultReminderIntervalSeconds
	}

	if cfg.LeadTimeHours <= 0 {
		cfg.LeadTimeHours = types.DefaultReminderLeadTimeHours
	}

	return cfg
}

// dueTasks selects the rule's board tasks matching its trigger window at the
// given instant. Done tasks and tasks without a due date never match.
func dueTasks(gdb *gorm.DB, rule models.ReminderRule, cfg types.ReminderConfig, now time.Time) ([]models.Task, error) {
	query := gdb.
		Where("board_id = ?", rule.BoardID).
		Where("status != ?", types.StatusDone).
		Where("due_date IS NOT NULL")

	switch rule.TriggerType {
	case types.TriggerTaskDueSoon:
		window := now.Add(time.Duration(cfg.LeadTimeHours) * time.Hour)
		query = query.Where("due_date > ? AND due_date <= ?", now, window)
	case types.TriggerTaskOverdue:
		query = query.Where("due_date <= ?", now)
	default:
		return nil, nil
	}

	var tasks []models.Task

	if err := query.Order("due_date").Find(&tasks).Error; err != nil {
		return nil, err
	}

	return tasks, nil
}

// alreadyNotified reports whether the rule has already produced a sent
// notification for the task, so sweeps stay idempotent.
func alreadyNotified(gdb *gorm.DB, ruleID, taskID uint) (bool, error) {
	var count int64

	err := gdb.Model(&models.Notification{}).
		Where("rule_id = ? AND task_id = ? AND status = ?", ruleID, taskID, "sent").
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// executeSweep performs one reminder pass for the rule
func (s *Scheduler) executeSweep(rule models.ReminderRule) {
	cfg := parseConfig(rule)

	if cfg.WebhookURL == "" {
		log.Printf("Reminder rule %d has no webhook URL, skipping", rule.ID)
		return
	}

	var board models.Board

	if err := db.DB.Where("id = ?", rule.BoardID).First(&board).Error; err != nil {
		log.Printf("Failed to load board for reminder rule %d: %v", rule.ID, err)
		return
	}

	tasks, err := dueTasks(db.DB, rule, cfg, time.Now())

	if err != nil {
		log.Printf("Failed to select tasks for reminder rule %d: %v", rule.ID, err)
		return
	}

	for _, task := range tasks {
		notified, err := alreadyNotified(db.DB, rule.ID, task.ID)

		if err != nil {
			log.Printf("Failed to check notifications for rule %d: %v", rule.ID, err)
			continue
		}

		if notified {
			continue
		}

		sendErr := services.SendTaskReminder(rule.Channel, cfg.WebhookURL, rule.TriggerType, board, task)

		s.storeNotification(rule, task, sendErr)

		if sendErr != nil {
			log.Printf("Reminder for task %d failed: %v", task.ID, sendErr)
		} else {
			log.Printf("Reminder sent for task %d on board %d", task.ID, board.ID)
		}
	}
}

// storeNotification saves the delivery outcome to the database
func (s *Scheduler) storeNotification(rule models.ReminderRule, task models.Task, err error) {
	status := "sent"
	message := ""

	if err != nil {
		status = "failed"
		message = err.Error()
	}

	now := time.Now()

	notification := models.Notification{
		RuleID:  rule.ID,
		TaskID:  task.ID,
		Channel: rule.Channel,
		Status:  status,
		Message: message,
		SentAt:  &now,
	}

	if dbErr := db.DB.Create(&notification).Error; dbErr != nil {
		log.Printf("Failed to store notification for rule %d: %v", rule.ID, dbErr)
	}
}

// GetStatus returns current scheduler status
func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"active_rules": len(s.rules),
		"running":      s.ctx.Err() == nil,
	}
}

// Global scheduler instance
var globalScheduler *Scheduler

// Initialize creates and starts the global scheduler
func Initialize() error {
	globalScheduler = NewScheduler()
	return globalScheduler.Start()
}

// Shutdown stops the global scheduler
func Shutdown() {
	if globalScheduler != nil {
		globalScheduler.Stop()
	}
}

// AddRule adds a reminder rule to the global scheduler
func AddRule(rule models.ReminderRule) {
	if globalScheduler != nil {
		globalScheduler.AddRule(rule)
	}
}

// RemoveRule removes a reminder rule from the global scheduler
func RemoveRule(ruleID uint) {
	if globalScheduler != nil {
		globalScheduler.RemoveRule(ruleID)
	}
}

// RemoveRulesForBoard removes every rule for a board from the global scheduler
func RemoveRulesForBoard(boardID uint) {
	if globalScheduler != nil {
		globalScheduler.RemoveRulesForBoard(boardID)
	}
}
