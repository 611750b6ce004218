// Package projector builds the read-only board listing: the boards visible
// to an actor together with derived per-board counts.
package projector

import (
	"gorm.io/gorm"

	"github.com/taskhive-dev/taskhive/internal/authz"
)

// BoardSummary is one row of the board listing.
type BoardSummary struct {
	ID                 uint   `json:"id"`
	Title              string `json:"title"`
	OwnerID            uint   `json:"owner_id"`
	MemberCount        int64  `json:"member_count"`
	TicketCount        int64  `json:"ticket_count"`
	TasksToDoCount     int64  `json:"tasks_to_do_count"`
	TasksHighPrioCount int64  `json:"tasks_high_prio_count"`
}

// Summaries returns every board the actor may see, each with its distinct
// member count, task count, and todo/high-priority task counts. Counts are
// computed in a single grouped query; DISTINCT keeps the multi-valued joins
// from inflating each other, and boards without tasks or members come back
// with zero counts. Raw joins bypass gorm's soft-delete scoping, so the
// deleted_at filters are spelled out in the join conditions.
func Summaries(gdb *gorm.DB, actor authz.Actor) ([]BoardSummary, error) {
	query := gdb.Table("boards").
		Select(`boards.id,
			boards.title,
			boards.owner_id,
			COUNT(DISTINCT board_memberships.user_id) AS member_count,
			COUNT(DISTINCT tasks.id) AS ticket_count,
			COUNT(DISTINCT CASE WHEN tasks.status = 'todo' THEN tasks.id END) AS tasks_to_do_count,
			COUNT(DISTINCT CASE WHEN tasks.priority = 'high' THEN tasks.id END) AS tasks_high_prio_count`).
		Joins("LEFT JOIN board_memberships ON board_memberships.board_id = boards.id AND board_memberships.deleted_at IS NULL").
		Joins("LEFT JOIN tasks ON tasks.board_id = boards.id AND tasks.deleted_at IS NULL").
		Where("boards.deleted_at IS NULL").
		Group("boards.id, boards.title, boards.owner_id").
		Order("boards.title")

	if !actor.IsSuperuser {
		query = query.Where(
			"boards.owner_id = ? OR boards.id IN (SELECT board_id FROM board_memberships WHERE user_id = ? AND deleted_at IS NULL)",
			actor.ID, actor.ID,
		)
	}

	summaries := []BoardSummary{}

	if err := query.Scan(&summaries).Error; err != nil {
		return nil, err
	}

	return summaries, nil
}
