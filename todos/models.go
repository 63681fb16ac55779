package todos

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/venlabs/todo-api/auth"
)

// Todo is a task list entry. Every row belongs to exactly one user; nothing
// outside that owner's authenticated session can see or touch it.
type Todo struct {
	bun.BaseModel `bun:"table:todos,alias:td"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	Title         string     `bun:"title,notnull" json:"title"`
	Desc          string     `bun:"description" json:"desc"`
	IsComplete    bool       `bun:"is_complete,default:false" json:"is_complete"`
	OwnerID       uuid.UUID  `bun:"owner_id,notnull,type:uuid" json:"-"`
	Owner         *auth.User `bun:"rel:belongs-to,join:owner_id=id" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
