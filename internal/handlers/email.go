package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/db"
	"github.com/taskhive-dev/taskhive/internal/models"
	"gorm.io/gorm"
)

// CheckEmail looks up a user by email so clients can resolve an address to a
// member id before adding it to a board.
func CheckEmail(ctx *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(ctx.Query("email")))

	if email == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email parameter is required."})
		return
	}

	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format."})
		return
	}

	var user models.User

	if err := db.DB.Where("LOWER(email) = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found."})
			return
		}
		log.Printf("Database error when checking email: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"email":    user.Email,
		"fullname": user.Username,
	})
}
