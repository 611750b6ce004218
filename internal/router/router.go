package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/internal/handlers"
	"github.com/taskhive-dev/taskhive/internal/middleware"
	"github.com/taskhive-dev/taskhive/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/email-check", handlers.CheckEmail)
		api.GET("/ws/:board_id", middleware.AuthMiddleware(), handlers.WebSocket)

		auth := api.Group("/auth")
		{
			auth.POST("/registration", handlers.RegisterUser)
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/logout", handlers.LogoutUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		users := api.Group("/users", middleware.AuthMiddleware())
		{
			users.GET("", handlers.ListUsers)
			users.GET("/:user_id", handlers.GetUser)
			users.PATCH("/:user_id", handlers.UpdateUser)
			users.DELETE("/:user_id", handlers.DeleteUser)
		}

		boards := api.Group("/boards", middleware.AuthMiddleware())
		{
			boards.POST("", handlers.CreateBoard)
			boards.GET("", handlers.ListBoards)
			boards.GET("/:board_id", handlers.GetBoard)
			boards.PATCH("/:board_id", handlers.UpdateBoard)
			boards.DELETE("/:board_id", handlers.DeleteBoard)

			// Reminder rule endpoints
			boards.GET("/:board_id/reminders", handlers.ListReminders)
			boards.POST("/:board_id/reminders", handlers.CreateReminder)
			boards.DELETE("/:board_id/reminders/:rule_id", handlers.DeleteReminder)
		}

		tasks := api.Group("/tasks", middleware.AuthMiddleware())
		{
			tasks.GET("", handlers.ListTasks)
			tasks.POST("", handlers.CreateTask)
			tasks.GET("/assigned-to-me", handlers.AssignedTasks)
			tasks.GET("/reviewing", handlers.ReviewingTasks)
			tasks.GET("/:task_id", handlers.GetTask)
			tasks.PATCH("/:task_id", handlers.UpdateTask)
			tasks.DELETE("/:task_id", handlers.DeleteTask)

			// Comment endpoints
			tasks.GET("/:task_id/comments", handlers.ListComments)
			tasks.POST("/:task_id/comments", handlers.CreateComment)
			tasks.GET("/:task_id/comments/:comment_id", handlers.GetComment)
			tasks.PATCH("/:task_id/comments/:comment_id", handlers.UpdateComment)
			tasks.DELETE("/:task_id/comments/:comment_id", handlers.DeleteComment)
		}
	}

	return r
}
