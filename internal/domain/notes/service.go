package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrVerificationRequired gates note viewing behind a recent
	// identity verification.
	ErrVerificationRequired = errors.New("verification required to view session notes")
	// ErrNotNoteAuthor rejects edits of someone else's note.
	ErrNotNoteAuthor = errors.New("only the author can edit a note")
)

// Clock abstracts time so the cooldown can be tested with a fake.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type Service struct {
	repo     Repository
	cooldown CooldownStore
	clock    Clock
	ttl      time.Duration
}

// NewService wires the note repository and the verification gate. A zero
// ttl falls back to 15 minutes.
func NewService(repo Repository, cooldown CooldownStore, clock Clock, ttl time.Duration) *Service {
	if clock == nil {
		clock = systemClock{}
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Service{repo: repo, cooldown: cooldown, clock: clock, ttl: ttl}
}

// Verify opens the note-viewing gate for the caller until the cooldown
// elapses.
func (s *Service) Verify(ctx context.Context, profileID uuid.UUID) error {
	if profileID == uuid.Nil {
		return fmt.Errorf("profile id is required")
	}
	return s.cooldown.Set(ctx, profileID, s.clock.Now())
}

// Verified reports whether the caller holds a verification newer than
// the cooldown. Expired entries are cleared on check so a later Verify
// starts from a clean slate.
func (s *Service) Verified(ctx context.Context, profileID uuid.UUID) (bool, error) {
	at, ok, err := s.cooldown.Get(ctx, profileID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if s.clock.Now().Sub(at) > s.ttl {
		if err := s.cooldown.Clear(ctx, profileID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// ListNotes returns a session's notes, oldest first. Viewing is gated;
// ErrVerificationRequired signals the caller to verify first.
func (s *Service) ListNotes(ctx context.Context, profileID, sessionID uuid.UUID) ([]*Note, error) {
	ok, err := s.Verified(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrVerificationRequired
	}
	return s.repo.ListBySession(ctx, sessionID)
}

// AddNote appends a note and returns it together with the session's
// post-insert note count read back from the store. Adding is not gated.
func (s *Service) AddNote(ctx context.Context, authorID, sessionID uuid.UUID, message string) (*Note, int, error) {
	if sessionID == uuid.Nil {
		return nil, 0, fmt.Errorf("session_id is required")
	}
	if authorID == uuid.Nil {
		return nil, 0, fmt.Errorf("author is required")
	}
	if message == "" {
		return nil, 0, fmt.Errorf("message is required")
	}

	note := &Note{SessionID: sessionID, AuthorID: authorID, Message: message}
	if err := s.repo.Create(ctx, note); err != nil {
		return nil, 0, err
	}
	count, err := s.repo.CountBySession(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	return note, count, nil
}

// UpdateNote edits a note's text. Only the author may edit; notes are
// never deleted.
func (s *Service) UpdateNote(ctx context.Context, authorID, noteID uuid.UUID, message string) (*Note, error) {
	if message == "" {
		return nil, fmt.Errorf("message is required")
	}
	note, err := s.repo.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.AuthorID != authorID {
		return nil, ErrNotNoteAuthor
	}
	note.Message = message
	if err := s.repo.Update(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// NoteCount returns a session's note count, 0 for unknown sessions.
func (s *Service) NoteCount(ctx context.Context, sessionID uuid.UUID) (int, error) {
	return s.repo.CountBySession(ctx, sessionID)
}

// CountBySessions batches note counts for the therapy aggregate view.
func (s *Service) CountBySessions(ctx context.Context, sessionIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	return s.repo.CountBySessions(ctx, sessionIDs)
}
