package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/taskhive-dev/taskhive/db"
	"github.com/taskhive-dev/taskhive/internal/auth"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/router"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServer(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	require.NoError(t, auth.InitJWTSecret())

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(
		&models.User{},
		&models.Board{},
		&models.BoardMembership{},
		&models.Task{},
		&models.Comment{},
		&models.ReminderRule{},
		&models.Notification{},
	))

	db.DB = gdb

	return router.NewRouter()
}

func seedUser(t *testing.T, username string, superuser bool) (models.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		IsSuperuser:  superuser,
	}

	require.NoError(t, db.DB.Create(&user).Error)

	token, err := auth.GenerateJWT(user.ID, user.Email)
	require.NoError(t, err)

	return user, token
}

func seedBoard(t *testing.T, title string, owner models.User, members ...models.User) models.Board {
	t.Helper()

	board := models.Board{Title: title, OwnerID: owner.ID}
	require.NoError(t, db.DB.Create(&board).Error)

	for _, user := range append([]models.User{owner}, members...) {
		membership := models.BoardMembership{UserID: user.ID, BoardID: board.ID}
		require.NoError(t, db.DB.Create(&membership).Error)
	}

	return board
}

func seedTask(t *testing.T, board models.Board, title string, createdBy *models.User) models.Task {
	t.Helper()

	task := models.Task{
		BoardID:  board.ID,
		Title:    title,
		Status:   "todo",
		Priority: "medium",
	}

	if createdBy != nil {
		task.CreatedByID = &createdBy.ID
	}

	require.NoError(t, db.DB.Create(&task).Error)
	return task
}

func seedComment(t *testing.T, task models.Task, author, content string) models.Comment {
	t.Helper()

	comment := models.Comment{TaskID: task.ID, Author: author, Content: content}
	require.NoError(t, db.DB.Create(&comment).Error)
	return comment
}

func doRequest(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)

	return recorder
}

func userPath(user models.User) string {
	return fmt.Sprintf("/api/users/%d", user.ID)
}

func boardPath(board models.Board) string {
	return fmt.Sprintf("/api/boards/%d", board.ID)
}

func taskPath(task models.Task) string {
	return fmt.Sprintf("/api/tasks/%d", task.ID)
}

func commentPath(task models.Task, comment models.Comment) string {
	return fmt.Sprintf("/api/tasks/%d/comments/%d", task.ID, comment.ID)
}

func decodeJSON(t *testing.T, recorder *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), out))
}

func mustStatus(t *testing.T, recorder *httptest.ResponseRecorder, want int) {
	t.Helper()

	if recorder.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, recorder.Code, recorder.Body.String())
	}
}
