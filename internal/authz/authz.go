// Package authz holds every access decision for boards, tasks, comments and
// user profiles in one place. Decisions are pure: callers load the resources,
// pass the acting user explicitly and get back a three-valued result, so the
// difference between "denied" and "does not exist" survives all the way to
// the response status.
package authz

import (
	"github.com/taskhive-dev/taskhive/internal/models"
)

// Actor is the resolved identity a request acts as.
type Actor struct {
	ID          uint
	Username    string
	Email       string
	IsSuperuser bool
}

type Decision int

const (
	Allow Decision = iota
	Deny
	NotFound
)

// Result carries a decision plus the reason surfaced to the caller on Deny
// or NotFound.
type Result struct {
	Decision Decision
	Reason   string
}

func (r Result) Allowed() bool {
	return r.Decision == Allow
}

func allowed() Result {
	return Result{Decision: Allow}
}

func denied(reason string) Result {
	return Result{Decision: Deny, Reason: reason}
}

func missing(reason string) Result {
	return Result{Decision: NotFound, Reason: reason}
}

// isOwnerOrMember expects the board's memberships to be loaded. The owner
// always holds a membership row, but ownership is checked directly as well
// so the rule does not depend on that invariant.
func isOwnerOrMember(actor Actor, board *models.Board) bool {
	return board.OwnerID == actor.ID || board.HasMember(actor.ID)
}

// CanViewBoard gates board detail reads.
func CanViewBoard(actor Actor, board *models.Board) Result {
	if board == nil {
		return missing("Board does not exist.")
	}
	if actor.IsSuperuser {
		return allowed()
	}
	if isOwnerOrMember(actor, board) {
		return allowed()
	}
	return denied("Only the board owner or members can view this board.")
}

// CanUpdateBoard gates title and member-set changes.
func CanUpdateBoard(actor Actor, board *models.Board) Result {
	if board == nil {
		return missing("Board does not exist.")
	}
	if actor.IsSuperuser {
		return allowed()
	}
	if isOwnerOrMember(actor, board) {
		return allowed()
	}
	return denied("Only the board owner or members can modify this board.")
}

// CanDeleteBoard is stricter than update: members cannot delete.
func CanDeleteBoard(actor Actor, board *models.Board) Result {
	if board == nil {
		return missing("Board does not exist.")
	}
	if actor.IsSuperuser || board.OwnerID == actor.ID {
		return allowed()
	}
	return denied("Only the board owner can delete this board.")
}

// CanListAllTasks gates the unscoped task listing. Non-superusers get an
// explicit denial rather than an empty result set.
func CanListAllTasks(actor Actor) Result {
	if actor.IsSuperuser {
		return allowed()
	}
	return denied("Only Admins can list all tasks.")
}

// CanCreateTask is the task-creation pre-check. A nil board means the
// referenced board id did not resolve and must surface as NotFound, not as
// a permission failure.
func CanCreateTask(actor Actor, board *models.Board) Result {
	if board == nil {
		return missing("Board does not exist.")
	}
	if actor.IsSuperuser {
		return allowed()
	}
	if isOwnerOrMember(actor, board) {
		return allowed()
	}
	return denied("You do not have permission to create a task on this board.")
}

// CanViewTask expects task.Board with memberships loaded.
func CanViewTask(actor Actor, task *models.Task) Result {
	if task == nil {
		return missing("Task does not exist.")
	}
	if actor.IsSuperuser {
		return allowed()
	}
	if isOwnerOrMember(actor, &task.Board) {
		return allowed()
	}
	return denied("Only board members can view this task.")
}

// CanUpdateTask expects task.Board with memberships loaded.
func CanUpdateTask(actor Actor, task *models.Task) Result {
	if task == nil {
		return missing("Task does not exist.")
	}
	if actor.IsSuperuser {
		return allowed()
	}
	if isOwnerOrMember(actor, &task.Board) {
		return allowed()
	}
	return denied("Only board members can modify this task.")
}

// CanDeleteTask restricts deletion to the task creator and the board owner.
// Ordinary board members may read and update but not delete.
func CanDeleteTask(actor Actor, task *models.Task) Result {
	if task == nil {
		return missing("Task does not exist.")
	}
	if actor.IsSuperuser {
		return allowed()
	}
	if task.CreatedByID != nil && *task.CreatedByID == actor.ID {
		return allowed()
	}
	if task.Board.OwnerID == actor.ID {
		return allowed()
	}
	return denied("Only the task creator or board owner can delete this task.")
}

// CanAccessComments gates reading, creating and editing comments under a
// task. A nil task means the path id did not resolve.
func CanAccessComments(actor Actor, task *models.Task) Result {
	if task == nil {
		return missing("Task does not exist.")
	}
	if actor.IsSuperuser {
		return allowed()
	}
	if isOwnerOrMember(actor, &task.Board) {
		return allowed()
	}
	return denied("Only board members can access comments on this task.")
}

// CanDeleteComment matches the author by the stored username snapshot;
// board members who are neither author nor owner are denied.
func CanDeleteComment(actor Actor, comment *models.Comment, task *models.Task) Result {
	if task == nil {
		return missing("Task does not exist.")
	}
	if comment == nil {
		return missing("Comment does not exist.")
	}
	if actor.IsSuperuser {
		return allowed()
	}
	if comment.Author == actor.Username {
		return allowed()
	}
	if task.Board.OwnerID == actor.ID {
		return allowed()
	}
	return denied("Only the comment author or board owner can delete this comment.")
}

// CanViewProfile gates profile reads: own profile or superuser.
func CanViewProfile(actor Actor, user *models.User) Result {
	if user == nil {
		return missing("User does not exist.")
	}
	if actor.IsSuperuser || actor.ID == user.ID {
		return allowed()
	}
	return denied("You can only view your own profile.")
}

// CanUpdateProfile gates profile updates: own profile or superuser.
func CanUpdateProfile(actor Actor, user *models.User) Result {
	if user == nil {
		return missing("User does not exist.")
	}
	if actor.IsSuperuser || actor.ID == user.ID {
		return allowed()
	}
	return denied("You can only modify your own profile.")
}

// CanDeleteProfile always denies. Identity deletion is not exposed through
// this API, superusers included.
func CanDeleteProfile(actor Actor, user *models.User) Result {
	if user == nil {
		return missing("User does not exist.")
	}
	return denied("Deleting user accounts is not permitted.")
}

// CanManageReminders gates reminder rule creation and deletion.
func CanManageReminders(actor Actor, board *models.Board) Result {
	if board == nil {
		return missing("Board does not exist.")
	}
	if actor.IsSuperuser || board.OwnerID == actor.ID {
		return allowed()
	}
	return denied("Only the board owner can manage reminder rules.")
}

// CanViewReminders allows any board member to list a board's rules.
func CanViewReminders(actor Actor, board *models.Board) Result {
	if board == nil {
		return missing("Board does not exist.")
	}
	if actor.IsSuperuser {
		return allowed()
	}
	if isOwnerOrMember(actor, board) {
		return allowed()
	}
	return denied("Only the board owner or members can view reminder rules.")
}
