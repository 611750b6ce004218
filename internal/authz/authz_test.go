package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taskhive-dev/taskhive/internal/models"
	"gorm.io/gorm"
)

var (
	owner     = Actor{ID: 1, Username: "owner"}
	member    = Actor{ID: 2, Username: "member"}
	outsider  = Actor{ID: 3, Username: "outsider"}
	superuser = Actor{ID: 4, Username: "admin", IsSuperuser: true}
)

func testBoard() *models.Board {
	return &models.Board{
		Model:   gorm.Model{ID: 10},
		Title:   "Sprint",
		OwnerID: owner.ID,
		Memberships: []models.BoardMembership{
			{UserID: owner.ID, BoardID: 10},
			{UserID: member.ID, BoardID: 10},
		},
	}
}

func testTask(createdBy uint) *models.Task {
	task := &models.Task{
		Model:   gorm.Model{ID: 20},
		BoardID: 10,
		Title:   "Write tests",
		Board:   *testBoard(),
	}

	if createdBy != 0 {
		task.CreatedByID = &createdBy
	}

	return task
}

func TestBoardReadUpdateMatrix(t *testing.T) {
	board := testBoard()

	tests := []struct {
		name  string
		actor Actor
		want  Decision
	}{
		{"owner can view", owner, Allow},
		{"member can view", member, Allow},
		{"superuser can view", superuser, Allow},
		{"outsider denied", outsider, Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanViewBoard(tt.actor, board).Decision)
			assert.Equal(t, tt.want, CanUpdateBoard(tt.actor, board).Decision)
		})
	}
}

func TestBoardDeleteIsOwnerOnly(t *testing.T) {
	board := testBoard()

	assert.Equal(t, Allow, CanDeleteBoard(owner, board).Decision)
	assert.Equal(t, Allow, CanDeleteBoard(superuser, board).Decision)
	assert.Equal(t, Deny, CanDeleteBoard(member, board).Decision)
	assert.Equal(t, Deny, CanDeleteBoard(outsider, board).Decision)
}

func TestMissingBoardIsNotFoundNotDeny(t *testing.T) {
	for _, result := range []Result{
		CanViewBoard(owner, nil),
		CanUpdateBoard(owner, nil),
		CanDeleteBoard(owner, nil),
		CanCreateTask(owner, nil),
	} {
		assert.Equal(t, NotFound, result.Decision)
		assert.NotEmpty(t, result.Reason)
	}
}

func TestListAllTasksIsSuperuserOnly(t *testing.T) {
	assert.Equal(t, Allow, CanListAllTasks(superuser).Decision)

	result := CanListAllTasks(owner)
	assert.Equal(t, Deny, result.Decision)
	assert.Equal(t, "Only Admins can list all tasks.", result.Reason)
}

func TestCreateTaskRequiresMembership(t *testing.T) {
	board := testBoard()

	assert.Equal(t, Allow, CanCreateTask(owner, board).Decision)
	assert.Equal(t, Allow, CanCreateTask(member, board).Decision)
	assert.Equal(t, Allow, CanCreateTask(superuser, board).Decision)
	assert.Equal(t, Deny, CanCreateTask(outsider, board).Decision)
}

func TestTaskReadUpdateForMembers(t *testing.T) {
	task := testTask(member.ID)

	for _, actor := range []Actor{owner, member, superuser} {
		assert.Equal(t, Allow, CanViewTask(actor, task).Decision)
		assert.Equal(t, Allow, CanUpdateTask(actor, task).Decision)
	}

	assert.Equal(t, Deny, CanViewTask(outsider, task).Decision)
	assert.Equal(t, Deny, CanUpdateTask(outsider, task).Decision)
}

func TestTaskDeleteMatrix(t *testing.T) {
	task := testTask(member.ID)

	// Creator and board owner may delete.
	assert.Equal(t, Allow, CanDeleteTask(member, task).Decision)
	assert.Equal(t, Allow, CanDeleteTask(owner, task).Decision)
	assert.Equal(t, Allow, CanDeleteTask(superuser, task).Decision)

	// A member who is neither creator nor owner can update but not delete.
	other := Actor{ID: 5, Username: "other"}
	task.Board.Memberships = append(task.Board.Memberships, models.BoardMembership{UserID: other.ID, BoardID: 10})
	assert.Equal(t, Allow, CanUpdateTask(other, task).Decision)
	assert.Equal(t, Deny, CanDeleteTask(other, task).Decision)
}

func TestTaskDeleteWithClearedCreator(t *testing.T) {
	task := testTask(0)

	assert.Equal(t, Allow, CanDeleteTask(owner, task).Decision)
	assert.Equal(t, Deny, CanDeleteTask(member, task).Decision)
}

func TestMissingTaskIsNotFound(t *testing.T) {
	for _, result := range []Result{
		CanViewTask(owner, nil),
		CanUpdateTask(owner, nil),
		CanDeleteTask(owner, nil),
		CanAccessComments(owner, nil),
		CanDeleteComment(owner, nil, nil),
	} {
		assert.Equal(t, NotFound, result.Decision)
	}
}

func TestCommentAccessForMembers(t *testing.T) {
	task := testTask(owner.ID)

	assert.Equal(t, Allow, CanAccessComments(owner, task).Decision)
	assert.Equal(t, Allow, CanAccessComments(member, task).Decision)
	assert.Equal(t, Allow, CanAccessComments(superuser, task).Decision)
	assert.Equal(t, Deny, CanAccessComments(outsider, task).Decision)
}

func TestCommentDeleteMatrix(t *testing.T) {
	task := testTask(owner.ID)
	comment := &models.Comment{TaskID: task.ID, Author: "member", Content: "looks good"}

	// Author matches by username snapshot.
	assert.Equal(t, Allow, CanDeleteComment(member, comment, task).Decision)
	assert.Equal(t, Allow, CanDeleteComment(owner, comment, task).Decision)
	assert.Equal(t, Allow, CanDeleteComment(superuser, comment, task).Decision)

	// A fellow member who is neither author nor owner is denied.
	other := Actor{ID: 5, Username: "other"}
	task.Board.Memberships = append(task.Board.Memberships, models.BoardMembership{UserID: other.ID, BoardID: 10})
	assert.Equal(t, Deny, CanDeleteComment(other, comment, task).Decision)
}

func TestMissingCommentIsNotFound(t *testing.T) {
	task := testTask(owner.ID)

	result := CanDeleteComment(owner, nil, task)
	assert.Equal(t, NotFound, result.Decision)
}

func TestProfileAccess(t *testing.T) {
	user := &models.User{Model: gorm.Model{ID: member.ID}, Username: "member"}

	assert.Equal(t, Allow, CanViewProfile(member, user).Decision)
	assert.Equal(t, Allow, CanUpdateProfile(member, user).Decision)
	assert.Equal(t, Allow, CanViewProfile(superuser, user).Decision)
	assert.Equal(t, Deny, CanViewProfile(outsider, user).Decision)
	assert.Equal(t, Deny, CanUpdateProfile(outsider, user).Decision)
}

func TestProfileDeleteAlwaysDenied(t *testing.T) {
	user := &models.User{Model: gorm.Model{ID: member.ID}, Username: "member"}

	assert.Equal(t, Deny, CanDeleteProfile(member, user).Decision)
	assert.Equal(t, Deny, CanDeleteProfile(superuser, user).Decision)

	assert.Equal(t, NotFound, CanDeleteProfile(superuser, nil).Decision)
}

func TestReminderRuleAccess(t *testing.T) {
	board := testBoard()

	assert.Equal(t, Allow, CanManageReminders(owner, board).Decision)
	assert.Equal(t, Allow, CanManageReminders(superuser, board).Decision)
	assert.Equal(t, Deny, CanManageReminders(member, board).Decision)

	assert.Equal(t, Allow, CanViewReminders(member, board).Decision)
	assert.Equal(t, Deny, CanViewReminders(outsider, board).Decision)
}
