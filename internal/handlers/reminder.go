package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/db"
	"github.com/taskhive-dev/taskhive/internal/authz"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/scheduler"
	"github.com/taskhive-dev/taskhive/internal/types"
	"github.com/taskhive-dev/taskhive/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateReminderRequest struct {
	TriggerType string               `json:"trigger_type" binding:"required,oneof=task_due_soon task_overdue"`
	Channel     string               `json:"channel" binding:"required,oneof=discord slack"`
	IsActive    *bool                `json:"is_active"`
	Config      types.ReminderConfig `json:"config" binding:"required"`
}

type ReminderResponse struct {
	ID          uint                 `json:"id"`
	BoardID     uint                 `json:"board_id"`
	TriggerType string               `json:"trigger_type"`
	Channel     string               `json:"channel"`
	IsActive    bool                 `json:"is_active"`
	Config      types.ReminderConfig `json:"config"`
}

func newReminderResponse(rule models.ReminderRule) ReminderResponse {
	var config types.ReminderConfig

	if len(rule.Config) > 0 {
		if err := json.Unmarshal(rule.Config, &config); err != nil {
			log.Printf("Invalid reminder config for rule %d: %v", rule.ID, err)
		}
	}

	return ReminderResponse{
		ID:          rule.ID,
		BoardID:     rule.BoardID,
		TriggerType: rule.TriggerType,
		Channel:     rule.Channel,
		IsActive:    rule.IsActive,
		Config:      config,
	}
}

func ListReminders(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	board, err := findBoard(ctx.Param("board_id"))

	if err != nil {
		log.Printf("Failed to fetch board: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}

	if result := authz.CanViewReminders(actor, board); !result.Allowed() {
		writeDecision(ctx, result)
		return
	}

	var rules []models.ReminderRule

	if err := db.DB.Where("board_id = ?", board.ID).Order("id").Find(&rules).Error; err != nil {
		log.Printf("Failed to list reminder rules: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reminder rules"})
		return
	}

	response := make([]ReminderResponse, 0, len(rules))

	for _, rule := range rules {
		response = append(response, newReminderResponse(rule))
	}

	ctx.JSON(http.StatusOK, response)
}

func CreateReminder(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	board, err := findBoard(ctx.Param("board_id"))

	if err != nil {
		log.Printf("Failed to fetch board: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}

	if result := authz.CanManageReminders(actor, board); !result.Allowed() {
		writeDecision(ctx, result)
		return
	}

	var body CreateReminderRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if body.Config.WebhookURL == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"config": "webhook_url is required."}})
		return
	}

	configJSON, err := json.Marshal(body.Config)

	if err != nil {
		log.Printf("Failed to marshal reminder config: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	isActive := true
	if body.IsActive != nil {
		isActive = *body.IsActive
	}

	rule := models.ReminderRule{
		BoardID:     board.ID,
		TriggerType: body.TriggerType,
		Channel:     body.Channel,
		IsActive:    isActive,
		Config:      datatypes.JSON(configJSON),
	}

	if err := db.DB.Create(&rule).Error; err != nil {
		log.Printf("Failed to create reminder rule: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reminder rule"})
		return
	}

	if rule.IsActive {
		scheduler.AddRule(rule)
	}

	ctx.JSON(http.StatusCreated, newReminderResponse(rule))
}

func DeleteReminder(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	board, err := findBoard(ctx.Param("board_id"))

	if err != nil {
		log.Printf("Failed to fetch board: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}

	if result := authz.CanManageReminders(actor, board); !result.Allowed() {
		writeDecision(ctx, result)
		return
	}

	var rule models.ReminderRule

	err = db.DB.Where("id = ? AND board_id = ?", ctx.Param("rule_id"), board.ID).First(&rule).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Reminder rule does not exist."})
			return
		}
		log.Printf("Failed to fetch reminder rule: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reminder rule"})
		return
	}

	if err := db.DB.Delete(&rule).Error; err != nil {
		log.Printf("Failed to delete reminder rule: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete reminder rule"})
		return
	}

	scheduler.RemoveRule(rule.ID)

	ctx.Status(http.StatusNoContent)
}
