package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/db"
	"github.com/taskhive-dev/taskhive/internal/authz"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/projector"
	"github.com/taskhive-dev/taskhive/internal/scheduler"
	"github.com/taskhive-dev/taskhive/internal/types"
	"github.com/taskhive-dev/taskhive/internal/utils"
	"gorm.io/gorm"
)

type CreateBoardRequest struct {
	Title   string `json:"title" binding:"required"`
	Members []uint `json:"members"`
}

type UpdateBoardRequest struct {
	Title   *string `json:"title"`
	Members *[]uint `json:"members"`
}

type BoardDetailResponse struct {
	ID      uint                 `json:"id"`
	Title   string               `json:"title"`
	OwnerID uint                 `json:"owner_id"`
	Members []types.UserResponse `json:"members"`
	Tasks   []TaskResponse       `json:"tasks"`
}

// findBoard loads a board with its membership rows. A nil board with a nil
// error means the id did not resolve.
func findBoard(boardID string) (*models.Board, error) {
	var board models.Board

	err := db.DB.Preload("Memberships").Where("id = ?", boardID).First(&board).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &board, nil
}

// dedupeMemberIDs drops duplicates and unions in the owner, preserving the
// owner-is-always-a-member invariant.
func dedupeMemberIDs(ids []uint, ownerID uint) []uint {
	seen := map[uint]bool{ownerID: true}
	result := []uint{ownerID}

	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			result = append(result, id)
		}
	}

	return result
}

// validateMemberIDs verifies every referenced user exists.
func validateMemberIDs(tx *gorm.DB, ids []uint) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}

	var count int64

	if err := tx.Model(&models.User{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return false, err
	}

	return count == int64(len(ids)), nil
}

func CreateBoard(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateBoardRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	memberIDs := dedupeMemberIDs(body.Members, actor.ID)

	valid, err := validateMemberIDs(db.DB, memberIDs)

	if err != nil {
		log.Printf("Database error when validating members: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !valid {
		ctx.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"members": "One or more member ids do not exist."}})
		return
	}

	board := models.Board{
		Title:   body.Title,
		OwnerID: actor.ID,
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&board).Error; err != nil {
			return err
		}

		for _, memberID := range memberIDs {
			membership := models.BoardMembership{
				UserID:  memberID,
				BoardID: board.ID,
			}

			if err := tx.Create(&membership).Error; err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		log.Printf("Failed to create board: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create board"})
		return
	}

	ctx.JSON(http.StatusCreated, projector.BoardSummary{
		ID:          board.ID,
		Title:       board.Title,
		OwnerID:     board.OwnerID,
		MemberCount: int64(len(memberIDs)),
	})
}

// ListBoards returns the projector summaries for every board the actor may
// see.
func ListBoards(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	summaries, err := projector.Summaries(db.DB, actor)

	if err != nil {
		log.Printf("Failed to list boards: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve boards"})
		return
	}

	ctx.JSON(http.StatusOK, summaries)
}

func GetBoard(ctx *gin.Context) {
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

	if result := authz.CanViewBoard(actor, board); !result.Allowed() {
		writeDecision(ctx, result)
		return
	}

	var memberships []models.BoardMembership

	if err := db.DB.Preload("User").Where("board_id = ?", board.ID).Find(&memberships).Error; err != nil {
		log.Printf("Failed to fetch board members: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}

	var tasks []models.Task

	if err := db.DB.Preload("Assignee").Preload("Reviewer").Where("board_id = ?", board.ID).Order("id").Find(&tasks).Error; err != nil {
		log.Printf("Failed to fetch board tasks: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}

	members := make([]types.UserResponse, 0, len(memberships))

	for _, membership := range memberships {
		members = append(members, types.UserResponse{
			ID:       membership.User.ID,
			Fullname: membership.User.Username,
			Email:    membership.User.Email,
		})
	}

	taskResponses := make([]TaskResponse, 0, len(tasks))

	for _, task := range tasks {
		taskResponses = append(taskResponses, newTaskResponse(task))
	}

	ctx.JSON(http.StatusOK, BoardDetailResponse{
		ID:      board.ID,
		Title:   board.Title,
		OwnerID: board.OwnerID,
		Members: members,
		Tasks:   taskResponses,
	})
}

func UpdateBoard(ctx *gin.Context) {
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

	if result := authz.CanUpdateBoard(actor, board); !result.Allowed() {
		writeDecision(ctx, result)
		return
	}

	var body UpdateBoardRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if body.Title != nil {
			if err := tx.Model(board).Update("title", *body.Title).Error; err != nil {
				return err
			}
		}

		if body.Members != nil {
			// Owner is unioned back in regardless of the submitted set.
			memberIDs := dedupeMemberIDs(*body.Members, board.OwnerID)

			valid, err := validateMemberIDs(tx, memberIDs)

			if err != nil {
				return err
			}

			if !valid {
				return errInvalidMembers
			}

			if err := tx.Where("board_id = ? AND user_id NOT IN ?", board.ID, memberIDs).
				Delete(&models.BoardMembership{}).Error; err != nil {
				return err
			}

			var existing []models.BoardMembership

			if err := tx.Where("board_id = ?", board.ID).Find(&existing).Error; err != nil {
				return err
			}

			present := make(map[uint]bool, len(existing))

			for _, membership := range existing {
				present[membership.UserID] = true
			}

			for _, memberID := range memberIDs {
				if present[memberID] {
					continue
				}

				membership := models.BoardMembership{
					UserID:  memberID,
					BoardID: board.ID,
				}

				if err := tx.Create(&membership).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})

	if errors.Is(err, errInvalidMembers) {
		ctx.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"members": "One or more member ids do not exist."}})
		return
	}

	if err != nil {
		log.Printf("Failed to update board: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update board"})
		return
	}

	BroadcastRefresh(strconv.FormatUint(uint64(board.ID), 10))

	updated, err := findBoard(ctx.Param("board_id"))

	if err != nil || updated == nil {
		log.Printf("Failed to reload board: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}

	var memberships []models.BoardMembership

	if err := db.DB.Preload("User").Where("board_id = ?", updated.ID).Find(&memberships).Error; err != nil {
		log.Printf("Failed to fetch board members: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}

	members := make([]types.UserResponse, 0, len(memberships))

	for _, membership := range memberships {
		members = append(members, types.UserResponse{
			ID:       membership.User.ID,
			Fullname: membership.User.Username,
			Email:    membership.User.Email,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":           updated.ID,
		"title":        updated.Title,
		"owner_id":     updated.OwnerID,
		"members_data": members,
	})
}

var errInvalidMembers = errors.New("invalid member ids")

// DeleteBoard removes the board and everything scoped to it in one
// transaction. Soft deletes do not trigger the FK cascades, so comments,
// tasks, memberships and reminder rules are deleted explicitly.
func DeleteBoard(ctx *gin.Context) {
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

	if result := authz.CanDeleteBoard(actor, board); !result.Allowed() {
		writeDecision(ctx, result)
		return
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		var taskIDs []uint

		if err := tx.Model(&models.Task{}).Where("board_id = ?", board.ID).Pluck("id", &taskIDs).Error; err != nil {
			return err
		}

		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("board_id = ?", board.ID).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		if err := tx.Where("board_id = ?", board.ID).Delete(&models.BoardMembership{}).Error; err != nil {
			return err
		}

		if err := tx.Where("board_id = ?", board.ID).Delete(&models.ReminderRule{}).Error; err != nil {
			return err
		}

		return tx.Delete(board).Error
	})

	if err != nil {
		log.Printf("Failed to delete board: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete board"})
		return
	}

	scheduler.RemoveRulesForBoard(board.ID)

	ctx.Status(http.StatusNoContent)
}
