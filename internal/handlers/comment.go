package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/db"
	"github.com/taskhive-dev/taskhive/internal/authz"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/utils"
	"gorm.io/gorm"
)

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

type CommentResponse struct {
	ID        uint      `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func newCommentResponse(comment models.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		Author:    comment.Author,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
}

// findComment loads a comment scoped to its task so a valid comment id under
// the wrong task still resolves to nothing.
func findComment(taskID uint, commentID string) (*models.Comment, error) {
	var comment models.Comment

	err := db.DB.Where("id = ? AND task_id = ?", commentID, taskID).First(&comment).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &comment, nil
}

func ListComments(ctx *gin.Context) {
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

	if result := authz.CanAccessComments(actor, task); !result.Allowed() {
		writeDecision(ctx, result)
		return
	}

	var comments []models.Comment

	if err := db.DB.Where("task_id = ?", task.ID).Order("created_at").Find(&comments).Error; err != nil {
		log.Printf("Failed to list comments: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comments"})
		return
	}

	response := make([]CommentResponse, 0, len(comments))

	for _, comment := range comments {
		response = append(response, newCommentResponse(comment))
	}

	ctx.JSON(http.StatusOK, response)
}

// CreateComment stores the actor's current username as the author. It is a
// snapshot: renaming the account later leaves existing comments untouched.
func CreateComment(ctx *gin.Context) {
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

	if result := authz.CanAccessComments(actor, task); !result.Allowed() {
		writeDecision(ctx, result)
		return
	}

	var body CreateCommentRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	comment := models.Comment{
		TaskID:  task.ID,
		Author:  actor.Username,
		Content: body.Content,
	}

	if err := db.DB.Create(&comment).Error; err != nil {
		log.Printf("Failed to create comment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	BroadcastRefresh(strconv.FormatUint(uint64(task.BoardID), 10))

	ctx.JSON(http.StatusCreated, newCommentResponse(comment))
}

func GetComment(ctx *gin.Context) {
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

	if result := authz.CanAccessComments(actor, task); !result.Allowed() {
		writeDecision(ctx, result)
		return
	}

	comment, err := findComment(task.ID, ctx.Param("comment_id"))

	if err != nil {
		log.Printf("Failed to fetch comment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comment"})
		return
	}

	if comment == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Comment does not exist."})
		return
	}

	ctx.JSON(http.StatusOK, newCommentResponse(*comment))
}

// UpdateComment edits the content only; author and creation time never
// change.
func UpdateComment(ctx *gin.Context) {
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

	if result := authz.CanAccessComments(actor, task); !result.Allowed() {
		writeDecision(ctx, result)
		return
	}

	comment, err := findComment(task.ID, ctx.Param("comment_id"))

	if err != nil {
		log.Printf("Failed to fetch comment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comment"})
		return
	}

	if comment == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Comment does not exist."})
		return
	}

	var body UpdateCommentRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := db.DB.Model(comment).Update("content", body.Content).Error; err != nil {
		log.Printf("Failed to update comment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update comment"})
		return
	}

	BroadcastRefresh(strconv.FormatUint(uint64(task.BoardID), 10))

	ctx.JSON(http.StatusOK, newCommentResponse(*comment))
}

func DeleteComment(ctx *gin.Context) {
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

	var comment *models.Comment

	if task != nil {
		comment, err = findComment(task.ID, ctx.Param("comment_id"))

		if err != nil {
			log.Printf("Failed to fetch comment: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comment"})
			return
		}
	}

	if result := authz.CanDeleteComment(actor, comment, task); !result.Allowed() {
		writeDecision(ctx, result)
		return
	}

	if err := db.DB.Delete(comment).Error; err != nil {
		log.Printf("Failed to delete comment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	BroadcastRefresh(strconv.FormatUint(uint64(task.BoardID), 10))

	ctx.Status(http.StatusNoContent)
}
