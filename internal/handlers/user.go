package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/db"
	"github.com/taskhive-dev/taskhive/internal/authz"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/types"
	"github.com/taskhive-dev/taskhive/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UpdateUserRequest struct {
	Fullname        string `json:"fullname"`
	Email           string `json:"email" binding:"omitempty,email"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"omitempty,min=8"`
}

// ListUsers returns every user for superusers and only the actor's own
// profile for everyone else.
func ListUsers(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var users []models.User

	query := db.DB.Order("id")

	if !actor.IsSuperuser {
		query = query.Where("id = ?", actor.ID)
	}

	if err := query.Find(&users).Error; err != nil {
		log.Printf("Failed to list users: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := make([]types.UserResponse, 0, len(users))

	for _, user := range users {
		response = append(response, types.UserResponse{
			ID:       user.ID,
			Fullname: user.Username,
			Email:    user.Email,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

func findUserByParam(ctx *gin.Context) (*models.User, error) {
	var user models.User

	err := db.DB.Where("id = ?", ctx.Param("user_id")).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func GetUser(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	user, err := findUserByParam(ctx)

	if err != nil {
		log.Printf("Failed to fetch user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if result := authz.CanViewProfile(actor, user); !result.Allowed() {
		writeDecision(ctx, result)
		return
	}

	ctx.JSON(http.StatusOK, types.UserResponse{
		ID:       user.ID,
		Fullname: user.Username,
		Email:    user.Email,
	})
}

func UpdateUser(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	user, err := findUserByParam(ctx)

	if err != nil {
		log.Printf("Failed to fetch user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if result := authz.CanUpdateProfile(actor, user); !result.Allowed() {
		writeDecision(ctx, result)
		return
	}

	var body UpdateUserRequest

	if err := ctx.BindJSON(&body); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := make(map[string]interface{})
	fieldErrors := make(map[string]string)

	if body.Fullname != "" {
		newUsername := strings.TrimSpace(body.Fullname)

		taken, err := usernameTaken(newUsername, user.ID)

		if err != nil {
			log.Printf("Database error when checking username: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if taken {
			fieldErrors["fullname"] = "Username is already taken."
		} else {
			updates["username"] = newUsername
		}
	}

	if body.Email != "" {
		newEmail := strings.ToLower(strings.TrimSpace(body.Email))

		taken, err := emailTaken(newEmail, user.ID)

		if err != nil {
			log.Printf("Database error when checking email: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if taken {
			fieldErrors["email"] = "Email is already registered."
		} else {
			updates["email"] = newEmail
		}
	}

	if body.NewPassword != "" {
		if body.CurrentPassword == "" {
			fieldErrors["current_password"] = "Current password is required to change password."
		} else if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.CurrentPassword)) != nil {
			fieldErrors["current_password"] = "Current password is incorrect."
		} else {
			passwordHash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)

			if err != nil {
				log.Printf("Failed to hash new password: %v", err)
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}

			updates["password_hash"] = string(passwordHash)
		}
	}

	if len(fieldErrors) > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"errors": fieldErrors})
		return
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := db.DB.Model(user).Updates(updates).Error; err != nil {
		log.Printf("Failed to update user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, types.UserResponse{
		ID:       user.ID,
		Fullname: user.Username,
		Email:    user.Email,
	})
}

// DeleteUser always refuses: account removal is not exposed through this
// interface, not even to superusers.
func DeleteUser(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	user, err := findUserByParam(ctx)

	if err != nil {
		log.Printf("Failed to fetch user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	writeDecision(ctx, authz.CanDeleteProfile(actor, user))
}
