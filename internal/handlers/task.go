package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/db"
	"github.com/taskhive-dev/taskhive/internal/authz"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/types"
	"github.com/taskhive-dev/taskhive/internal/utils"
	"gorm.io/gorm"
)

const dueDateLayout = "2006-01-02"

// optionalID distinguishes an omitted id field from an explicit null, so a
// nullable reference like the assignee can be cleared with {"assignee_id": null}.
type optionalID struct {
	set   bool
	value *uint
}

func (o *optionalID) UnmarshalJSON(data []byte) error {
	o.set = true

	if string(data) == "null" {
		o.value = nil
		return nil
	}

	return json.Unmarshal(data, &o.value)
}

type CreateTaskRequest struct {
	Board       uint    `json:"board" binding:"required"`
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Status      string  `json:"status" binding:"omitempty,oneof=todo in_progress review done"`
	Priority    string  `json:"priority" binding:"omitempty,oneof=low medium high"`
	AssigneeID  *uint   `json:"assignee_id"`
	ReviewerID  *uint   `json:"reviewer_id"`
	DueDate     *string `json:"due_date"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status" binding:"omitempty,oneof=todo in_progress review done"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=low medium high"`
	AssigneeID  optionalID `json:"assignee_id"`
	ReviewerID  optionalID `json:"reviewer_id"`
	DueDate     *string    `json:"due_date"`
}

type TaskResponse struct {
	ID          uint                `json:"id"`
	Board       uint                `json:"board"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      string              `json:"status"`
	Priority    string              `json:"priority"`
	Assignee    *types.UserResponse `json:"assignee"`
	Reviewer    *types.UserResponse `json:"reviewer"`
	DueDate     *string             `json:"due_date"`
	CreatedBy   *uint               `json:"created_by"`
}

func newTaskResponse(task models.Task) TaskResponse {
	response := TaskResponse{
		ID:          task.ID,
		Board:       task.BoardID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		CreatedBy:   task.CreatedByID,
	}

	if task.AssigneeID != nil && task.Assignee != nil {
		response.Assignee = &types.UserResponse{
			ID:       task.Assignee.ID,
			Fullname: task.Assignee.Username,
			Email:    task.Assignee.Email,
		}
	}

	if task.ReviewerID != nil && task.Reviewer != nil {
		response.Reviewer = &types.UserResponse{
			ID:       task.Reviewer.ID,
			Fullname: task.Reviewer.Username,
			Email:    task.Reviewer.Email,
		}
	}

	if task.DueDate != nil {
		due := task.DueDate.Format(dueDateLayout)
		response.DueDate = &due
	}

	return response
}

// findTask loads a task with its board memberships and user references. A
// nil task with a nil error means the id did not resolve.
func findTask(taskID string) (*models.Task, error) {
	var task models.Task

	err := db.DB.
		Preload("Board.Memberships").
		Preload("Assignee").
		Preload("Reviewer").
		Where("id = ?", taskID).
		First(&task).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &task, nil
}

func parseDueDate(raw *string) (*time.Time, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}

	parsed, err := time.Parse(dueDateLayout, *raw)

	if err != nil {
		return nil, false
	}

	return &parsed, true
}

func userExists(id uint) (bool, error) {
	var count int64

	if err := db.DB.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

// ListTasks is the unscoped listing, reserved for superusers. The denial is
// explicit so a regular actor never mistakes it for an empty board.
func ListTasks(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if result := authz.CanListAllTasks(actor); !result.Allowed() {
		writeDecision(ctx, result)
		return
	}

	var tasks []models.Task

	if err := db.DB.Preload("Assignee").Preload("Reviewer").Order("id").Find(&tasks).Error; err != nil {
		log.Printf("Failed to list tasks: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := make([]TaskResponse, 0, len(tasks))

	for _, task := range tasks {
		response = append(response, newTaskResponse(task))
	}

	ctx.JSON(http.StatusOK, response)
}

func CreateTask(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateTaskRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// Existence before permission: an unknown board id is a 404, not a 403.
	board, err := findBoard(strconv.FormatUint(uint64(body.Board), 10))

	if err != nil {
		log.Printf("Failed to fetch board: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if result := authz.CanCreateTask(actor, board); !result.Allowed() {
		writeDecision(ctx, result)
		return
	}

	fieldErrors := make(map[string]string)

	for field, id := range map[string]*uint{"assignee_id": body.AssigneeID, "reviewer_id": body.ReviewerID} {
		if id == nil {
			continue
		}

		exists, err := userExists(*id)

		if err != nil {
			log.Printf("Failed to check user %d: %v", *id, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if !exists {
			fieldErrors[field] = "User does not exist."
		}
	}

	dueDate, ok := parseDueDate(body.DueDate)

	if !ok {
		fieldErrors["due_date"] = "Date must be in YYYY-MM-DD format."
	}

	if len(fieldErrors) > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"errors": fieldErrors})
		return
	}

	status := body.Status
	if status == "" {
		status = types.StatusTodo
	}

	priority := body.Priority
	if priority == "" {
		priority = types.PriorityMedium
	}

	createdBy := actor.ID

	task := models.Task{
		BoardID:     board.ID,
		Title:       body.Title,
		Description: body.Description,
		Status:      status,
		Priority:    priority,
		AssigneeID:  body.AssigneeID,
		ReviewerID:  body.ReviewerID,
		DueDate:     dueDate,
		CreatedByID: &createdBy,
	}

	if err := db.DB.Create(&task).Error; err != nil {
		log.Printf("Failed to create task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	if task.AssigneeID != nil {
		var assignee models.User

		if err := db.DB.Where("id = ?", *task.AssigneeID).First(&assignee).Error; err == nil {
			task.Assignee = &assignee
		}
	}

	if task.ReviewerID != nil {
		var reviewer models.User

		if err := db.DB.Where("id = ?", *task.ReviewerID).First(&reviewer).Error; err == nil {
			task.Reviewer = &reviewer
		}
	}

	BroadcastRefresh(strconv.FormatUint(uint64(board.ID), 10))

	ctx.JSON(http.StatusCreated, newTaskResponse(task))
}

// AssignedTasks lists the tasks where the actor is the assignee.
func AssignedTasks(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	listTasksWhere(ctx, "assignee_id = ?", actor.ID)
}

// ReviewingTasks lists the tasks where the actor is the reviewer.
func ReviewingTasks(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	listTasksWhere(ctx, "reviewer_id = ?", actor.ID)
}

func listTasksWhere(ctx *gin.Context, condition string, args ...interface{}) {
	var tasks []models.Task

	err := db.DB.Preload("Assignee").Preload("Reviewer").
		Where(condition, args...).
		Order("id").
		Find(&tasks).Error

	if err != nil {
		log.Printf("Failed to list tasks: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := make([]TaskResponse, 0, len(tasks))

	for _, task := range tasks {
		response = append(response, newTaskResponse(task))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetTask(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	task, err := findTask(ctx.Param("task_id"))

	if err != nil {
		log.Printf("Failed to fetch task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	if result := authz.CanViewTask(actor, task); !result.Allowed() {
		writeDecision(ctx, result)
		return
	}

	ctx.JSON(http.StatusOK, newTaskResponse(*task))
}

// UpdateTask mutates everything except the owning board; a task is never
// reassigned to another board.
func UpdateTask(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	task, err := findTask(ctx.Param("task_id"))

	if err != nil {
		log.Printf("Failed to fetch task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	if result := authz.CanUpdateTask(actor, task); !result.Allowed() {
		writeDecision(ctx, result)
		return
	}

	var body UpdateTaskRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	fieldErrors := make(map[string]string)
	updates := make(map[string]interface{})

	if body.Title != nil {
		updates["title"] = *body.Title
	}

	if body.Description != nil {
		updates["description"] = *body.Description
	}

	if body.Status != nil {
		updates["status"] = *body.Status
	}

	if body.Priority != nil {
		updates["priority"] = *body.Priority
	}

	for field, id := range map[string]optionalID{"assignee_id": body.AssigneeID, "reviewer_id": body.ReviewerID} {
		if !id.set {
			continue
		}

		// An explicit null clears the reference.
		if id.value == nil {
			updates[field] = nil
			continue
		}

		exists, err := userExists(*id.value)

		if err != nil {
			log.Printf("Failed to check user %d: %v", *id.value, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if !exists {
			fieldErrors[field] = "User does not exist."
			continue
		}

		updates[field] = *id.value
	}

	if body.DueDate != nil {
		dueDate, ok := parseDueDate(body.DueDate)

		if !ok {
			fieldErrors["due_date"] = "Date must be in YYYY-MM-DD format."
		} else {
			updates["due_date"] = dueDate
		}
	}

	if len(fieldErrors) > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"errors": fieldErrors})
		return
	}

	if len(updates) > 0 {
		if err := db.DB.Model(task).Updates(updates).Error; err != nil {
			log.Printf("Failed to update task: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
			return
		}
	}

	updated, err := findTask(ctx.Param("task_id"))

	if err != nil || updated == nil {
		log.Printf("Failed to reload task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	BroadcastRefresh(strconv.FormatUint(uint64(updated.BoardID), 10))

	ctx.JSON(http.StatusOK, newTaskResponse(*updated))
}

// DeleteTask removes the task and its comments atomically.
func DeleteTask(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	task, err := findTask(ctx.Param("task_id"))

	if err != nil {
		log.Printf("Failed to fetch task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	if result := authz.CanDeleteTask(actor, task); !result.Allowed() {
		writeDecision(ctx, result)
		return
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		return tx.Delete(task).Error
	})

	if err != nil {
		log.Printf("Failed to delete task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	BroadcastRefresh(strconv.FormatUint(uint64(task.BoardID), 10))

	ctx.Status(http.StatusNoContent)
}
