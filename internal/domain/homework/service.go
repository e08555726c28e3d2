package homework

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/coscyrix/mindbridge-sub003/internal/domain/therapy"
	"github.com/coscyrix/mindbridge-sub003/internal/platform/blobstore"
)

// SessionLookup verifies that uploads are bound to a real session.
// Implemented by therapy.Service.
type SessionLookup interface {
	GetSession(ctx context.Context, sessionID uuid.UUID) (*therapy.Session, error)
}

type Service struct {
	store    blobstore.BlobStore
	sessions SessionLookup
}

func NewService(store blobstore.BlobStore, sessions SessionLookup) *Service {
	return &Service{store: store, sessions: sessions}
}

// UploadInput carries the multipart fields alongside the file.
type UploadInput struct {
	SessionID   uuid.UUID
	ClientID    uuid.UUID
	FileName    string
	ContentType string
	Category    string
	UploadedBy  string
}

// Upload stores a homework file after binding it to an existing session
// that still accepts actions.
func (s *Service) Upload(ctx context.Context, in UploadInput, content io.Reader) (*blobstore.BlobMetadata, error) {
	if in.SessionID == uuid.Nil {
		return nil, fmt.Errorf("session_id is required")
	}
	if in.ClientID == uuid.Nil {
		return nil, fmt.Errorf("client_id is required")
	}
	if in.Category != "" && !blobstore.AllowedCategories[in.Category] {
		return nil, fmt.Errorf("unknown category %q", in.Category)
	}

	sess, err := s.sessions.GetSession(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("looking up session: %w", err)
	}
	if !sess.Status.AcceptsActions() {
		return nil, therapy.ErrSessionInactive
	}

	meta := blobstore.BlobMetadata{
		FileName:    in.FileName,
		ContentType: in.ContentType,
		ClientID:    in.ClientID.String(),
		SessionID:   in.SessionID.String(),
		Category:    in.Category,
		CreatedBy:   in.UploadedBy,
	}
	return s.store.Upload(ctx, meta, content)
}

// ListBySession returns homework metadata attached to a session.
func (s *Service) ListBySession(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]*blobstore.BlobMetadata, int, error) {
	return s.store.Search(ctx, blobstore.SearchParams{
		SessionID: sessionID.String(),
		Limit:     limit,
		Offset:    offset,
	})
}

// ListByClient returns a client's homework across sessions.
func (s *Service) ListByClient(ctx context.Context, clientID uuid.UUID, category string, limit, offset int) ([]*blobstore.BlobMetadata, int, error) {
	return s.store.ListByClient(ctx, clientID.String(), category, limit, offset)
}

// Download streams a stored file with its metadata.
func (s *Service) Download(ctx context.Context, id string) (io.ReadCloser, *blobstore.BlobMetadata, error) {
	return s.store.Download(ctx, id)
}

// GetMetadata returns file metadata without content.
func (s *Service) GetMetadata(ctx context.Context, id string) (*blobstore.BlobMetadata, error) {
	return s.store.GetMetadata(ctx, id)
}

// Delete removes a stored file.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
