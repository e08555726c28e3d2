// Package blobstore provides file storage for homework attachments. It
// defines the BlobStore interface and a thread-safe in-memory implementation
// used in development and tests; the homework domain sits on top of it.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingFileName    = errors.New("file name is required")
)

// DefaultMaxFileSize bounds uploads when no explicit limit is configured
// (25 MB).
const DefaultMaxFileSize = 25 * 1024 * 1024

// AllowedCategories lists valid homework attachment categories.
var AllowedCategories = map[string]bool{
	"homework":   true,
	"worksheet":  true,
	"journal":    true,
	"assessment": true,
	"other":      true,
}

// AllowedContentTypes lists the document and image MIME types clients may
// upload with their homework.
var AllowedContentTypes = map[string]bool{
	"image/png":          true,
	"image/jpeg":         true,
	"image/heic":         true,
	"application/pdf":    true,
	"text/plain":         true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// BlobMetadata describes a stored homework file.
type BlobMetadata struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	ClientID    string    `json:"client_id,omitempty"`
	SessionID   string    `json:"session_id,omitempty"`
	Category    string    `json:"category"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
}

// SearchParams specifies search/filter criteria for stored files.
type SearchParams struct {
	ClientID      string
	SessionID     string
	Category      string
	ContentType   string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	FileName      string // partial match
	Limit         int
	Offset        int
}

// BlobStore defines the contract for homework file storage backends.
type BlobStore interface {
	Upload(ctx context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error)
	Download(ctx context.Context, id string) (io.ReadCloser, *BlobMetadata, error)
	Delete(ctx context.Context, id string) error
	GetMetadata(ctx context.Context, id string) (*BlobMetadata, error)
	ListByClient(ctx context.Context, clientID string, category string, limit, offset int) ([]*BlobMetadata, int, error)
	Search(ctx context.Context, params SearchParams) ([]*BlobMetadata, int, error)
}

type storedBlob struct {
	metadata BlobMetadata
	content  []byte
}

// InMemoryBlobStore is a thread-safe, in-memory BlobStore.
type InMemoryBlobStore struct {
	mu      sync.RWMutex
	blobs   map[string]*storedBlob
	maxSize int64
}

// NewInMemoryBlobStore returns a store capped at maxSize bytes per file.
// A non-positive maxSize falls back to DefaultMaxFileSize.
func NewInMemoryBlobStore(maxSize int64) *InMemoryBlobStore {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &InMemoryBlobStore{
		blobs:   make(map[string]*storedBlob),
		maxSize: maxSize,
	}
}

// Upload validates inputs, reads the content, computes a SHA-256 hash, and
// stores the file in memory.
func (s *InMemoryBlobStore) Upload(_ context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error) {
	if meta.FileName == "" {
		return nil, ErrMissingFileName
	}
	if meta.ContentType != "" && !AllowedContentTypes[meta.ContentType] {
		return nil, ErrInvalidContentType
	}
	if meta.Category == "" {
		meta.Category = "homework"
	}

	data, err := io.ReadAll(io.LimitReader(content, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrFileTooLarge
	}

	h := sha256.Sum256(data)

	meta.ID = uuid.New().String()
	meta.Size = int64(len(data))
	meta.Hash = fmt.Sprintf("%x", h)
	meta.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	s.blobs[meta.ID] = &storedBlob{
		metadata: meta,
		content:  data,
	}
	s.mu.Unlock()

	out := meta // copy
	return &out, nil
}

// Download returns an io.ReadCloser over the file content and its metadata.
func (s *InMemoryBlobStore) Download(_ context.Context, id string) (io.ReadCloser, *BlobMetadata, error) {
	s.mu.RLock()
	blob, ok := s.blobs[id]
	s.mu.RUnlock()

	if !ok {
		return nil, nil, ErrBlobNotFound
	}

	meta := blob.metadata // copy
	return io.NopCloser(bytes.NewReader(blob.content)), &meta, nil
}

// Delete removes a file by ID.
func (s *InMemoryBlobStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[id]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, id)
	return nil
}

// GetMetadata returns file metadata without content.
func (s *InMemoryBlobStore) GetMetadata(_ context.Context, id string) (*BlobMetadata, error) {
	s.mu.RLock()
	blob, ok := s.blobs[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrBlobNotFound
	}

	meta := blob.metadata // copy
	return &meta, nil
}

// ListByClient returns files for a given client, optionally filtered by
// category. It returns the matching page and the total count.
func (s *InMemoryBlobStore) ListByClient(_ context.Context, clientID, category string, limit, offset int) ([]*BlobMetadata, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*BlobMetadata
	for _, b := range s.blobs {
		if b.metadata.ClientID != clientID {
			continue
		}
		if category != "" && b.metadata.Category != category {
			continue
		}
		m := b.metadata // copy
		matched = append(matched, &m)
	}

	total := len(matched)
	return pageOf(matched, limit, offset), total, nil
}

// Search returns files matching the given search parameters.
func (s *InMemoryBlobStore) Search(_ context.Context, params SearchParams) ([]*BlobMetadata, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*BlobMetadata
	for _, b := range s.blobs {
		if !matchesSearch(&b.metadata, params) {
			continue
		}
		m := b.metadata // copy
		matched = append(matched, &m)
	}

	total := len(matched)
	return pageOf(matched, params.Limit, params.Offset), total, nil
}

func pageOf(matched []*BlobMetadata, limit, offset int) []*BlobMetadata {
	if limit <= 0 {
		limit = 20
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end]
}

func matchesSearch(m *BlobMetadata, p SearchParams) bool {
	if p.ClientID != "" && m.ClientID != p.ClientID {
		return false
	}
	if p.SessionID != "" && m.SessionID != p.SessionID {
		return false
	}
	if p.Category != "" && m.Category != p.Category {
		return false
	}
	if p.ContentType != "" && m.ContentType != p.ContentType {
		return false
	}
	if p.CreatedAfter != nil && m.CreatedAt.Before(*p.CreatedAfter) {
		return false
	}
	if p.CreatedBefore != nil && m.CreatedAt.After(*p.CreatedBefore) {
		return false
	}
	if p.FileName != "" && !strings.Contains(strings.ToLower(m.FileName), strings.ToLower(p.FileName)) {
		return false
	}
	return true
}
