package notes

import (
	"time"

	"github.com/google/uuid"
)

// Note is an append-only session note. Notes are never deleted; authors
// may edit their own note's text.
type Note struct {
	ID        uuid.UUID `db:"id" json:"note_id"`
	SessionID uuid.UUID `db:"session_id" json:"session_id"`
	AuthorID  uuid.UUID `db:"author_id" json:"author_id"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
