package blobstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func uploadFixture(t *testing.T, s *InMemoryBlobStore, meta BlobMetadata, content string) *BlobMetadata {
	t.Helper()
	if meta.FileName == "" {
		meta.FileName = "worksheet.pdf"
	}
	if meta.ContentType == "" {
		meta.ContentType = "application/pdf"
	}
	out, err := s.Upload(context.Background(), meta, strings.NewReader(content))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return out
}

func TestUploadAndDownload(t *testing.T) {
	s := NewInMemoryBlobStore(0)
	meta := uploadFixture(t, s, BlobMetadata{
		ClientID:  "c-1",
		SessionID: "s-10",
		Category:  "homework",
		CreatedBy: "prof-2",
	}, "thought record week 3")

	if meta.ID == "" {
		t.Fatal("expected generated id")
	}
	if meta.Size != int64(len("thought record week 3")) {
		t.Errorf("unexpected size %d", meta.Size)
	}
	if meta.Hash == "" {
		t.Error("expected content hash")
	}

	rc, got, err := s.Download(context.Background(), meta.ID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "thought record week 3" {
		t.Errorf("unexpected content %q", data)
	}
	if got.ClientID != "c-1" || got.SessionID != "s-10" {
		t.Errorf("metadata lost client/session binding: %+v", got)
	}
}

func TestUploadValidation(t *testing.T) {
	s := NewInMemoryBlobStore(0)

	_, err := s.Upload(context.Background(), BlobMetadata{ContentType: "application/pdf"}, strings.NewReader("x"))
	if !errors.Is(err, ErrMissingFileName) {
		t.Errorf("expected ErrMissingFileName, got %v", err)
	}

	_, err = s.Upload(context.Background(), BlobMetadata{
		FileName:    "payload.exe",
		ContentType: "application/x-msdownload",
	}, strings.NewReader("x"))
	if !errors.Is(err, ErrInvalidContentType) {
		t.Errorf("expected ErrInvalidContentType, got %v", err)
	}
}

func TestUploadEnforcesSizeLimit(t *testing.T) {
	s := NewInMemoryBlobStore(10)
	_, err := s.Upload(context.Background(), BlobMetadata{
		FileName:    "big.pdf",
		ContentType: "application/pdf",
	}, strings.NewReader(strings.Repeat("x", 11)))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestUploadDefaultsCategory(t *testing.T) {
	s := NewInMemoryBlobStore(0)
	meta := uploadFixture(t, s, BlobMetadata{ClientID: "c-1"}, "data")
	if meta.Category != "homework" {
		t.Errorf("expected default category homework, got %q", meta.Category)
	}
}

func TestDeleteAndNotFound(t *testing.T) {
	s := NewInMemoryBlobStore(0)
	meta := uploadFixture(t, s, BlobMetadata{ClientID: "c-1"}, "data")

	if err := s.Delete(context.Background(), meta.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(context.Background(), meta.ID); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound on double delete, got %v", err)
	}
	if _, _, err := s.Download(context.Background(), meta.ID); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound on download, got %v", err)
	}
	if _, err := s.GetMetadata(context.Background(), meta.ID); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound on metadata, got %v", err)
	}
}

func TestListByClient(t *testing.T) {
	s := NewInMemoryBlobStore(0)
	uploadFixture(t, s, BlobMetadata{ClientID: "c-1", Category: "homework"}, "a")
	uploadFixture(t, s, BlobMetadata{ClientID: "c-1", Category: "journal"}, "b")
	uploadFixture(t, s, BlobMetadata{ClientID: "c-2", Category: "homework"}, "c")

	items, total, err := s.ListByClient(context.Background(), "c-1", "", 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("expected 2 files for c-1, got total=%d len=%d", total, len(items))
	}

	items, total, err = s.ListByClient(context.Background(), "c-1", "journal", 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || items[0].Category != "journal" {
		t.Errorf("expected the single journal entry, got total=%d", total)
	}
}

func TestSearch(t *testing.T) {
	s := NewInMemoryBlobStore(0)
	uploadFixture(t, s, BlobMetadata{FileName: "gad7-week1.pdf", ClientID: "c-1", SessionID: "s-1"}, "a")
	uploadFixture(t, s, BlobMetadata{FileName: "phq9-week1.pdf", ClientID: "c-1", SessionID: "s-2"}, "b")

	items, total, err := s.Search(context.Background(), SearchParams{ClientID: "c-1", FileName: "gad7"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || items[0].FileName != "gad7-week1.pdf" {
		t.Errorf("expected one gad7 match, got total=%d", total)
	}

	_, total, err = s.Search(context.Background(), SearchParams{SessionID: "s-2"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 {
		t.Errorf("expected one match for session s-2, got %d", total)
	}
}

func TestSearchPagination(t *testing.T) {
	s := NewInMemoryBlobStore(0)
	for i := 0; i < 5; i++ {
		uploadFixture(t, s, BlobMetadata{ClientID: "c-1"}, strings.Repeat("x", i+1))
	}

	items, total, err := s.Search(context.Background(), SearchParams{ClientID: "c-1", Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	if len(items) != 1 {
		t.Errorf("expected 1 item on last page, got %d", len(items))
	}
}
