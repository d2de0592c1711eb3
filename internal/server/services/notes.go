// Package services contains server-side business logic. This file implements
// NoteService, which manages the note lifecycle and image attachments across
// the note repository and the image store.
package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/notsy/internal/common"
	"github.com/dmitrijs2005/notsy/internal/logging"
	"github.com/dmitrijs2005/notsy/internal/server/models"
	"github.com/dmitrijs2005/notsy/internal/server/repositories/notes"
	"github.com/dmitrijs2005/notsy/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/notsy/internal/server/storage"
	"github.com/google/uuid"
)

const (
	msgTitleRequired = "Title is required"
	msgNoImage       = "No image provided"
	msgImageTooLarge = "Image too large"
	msgNoExisting    = "Note does not have an image"
)

// NoteService exposes note operations. Every failure of a collaborator is
// returned as *common.StoreError, except not-found which is returned as
// common.ErrorNotFound.
type NoteService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	images        storage.ImageStore
	logger        logging.Logger
	maxImageBytes int64
	now           func() time.Time
}

// NewNoteService constructs a NoteService. db may be nil when the manager
// does not need a connection. maxImageBytes <= 0 disables the size check.
func NewNoteService(db *sql.DB, m repomanager.RepositoryManager, images storage.ImageStore,
	logger logging.Logger, maxImageBytes int64) *NoteService {
	return &NoteService{
		db:            db,
		repomanager:   m,
		images:        images,
		logger:        logger.With("module", "notes"),
		maxImageBytes: maxImageBytes,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *NoteService) repo() notes.Repository {
	return s.repomanager.Notes(s.db)
}

// List returns notes newest first. A nil completed lists every note.
func (s *NoteService) List(ctx context.Context, completed *bool) ([]*models.Note, error) {
	list, err := s.repo().Find(ctx, notes.ByCompleted(completed))
	if err != nil {
		return nil, storeErr("find notes", err)
	}
	return list, nil
}

func (s *NoteService) Get(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	return s.load(ctx, id)
}

// Create stores a new note. CreatedAt, Completed and CreatedBy are always
// set by the server, and an image URL in the input is ignored.
func (s *NoteService) Create(ctx context.Context, in *models.NoteInput) (*models.Note, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	now := s.now()
	n := &models.Note{
		Title:     *in.Title,
		Content:   in.Content,
		CreatedBy: stringPtr(models.SystemAuthor),
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.ID != nil {
		n.ID = *in.ID
	}

	if err := s.repo().Create(ctx, n); err != nil {
		return nil, storeErr("create note", err)
	}
	s.logger.Info(ctx, "note created", "id", n.ID)
	return n, nil
}

// Update replaces every mutable field with the input. Omitted fields are
// cleared.
func (s *NoteService) Update(ctx context.Context, id uuid.UUID, in *models.NoteInput) (*models.Note, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	n.Title = *in.Title
	n.Content = in.Content
	n.CreatedBy = in.CreatedBy
	n.Completed = in.Completed != nil && *in.Completed
	n.ImageURL = in.ImageURL

	if err := s.save(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Complete sets only the completion flag.
func (s *NoteService) Complete(ctx context.Context, id uuid.UUID, completed bool) (*models.Note, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	n.Completed = completed
	if err := s.save(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Delete removes the note and returns it as it was before removal. An
// attached image stays in the image store.
func (s *NoteService) Delete(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo().Delete(ctx, id); err != nil {
		return nil, storeErr("delete note", err)
	}
	s.logger.Info(ctx, "note deleted", "id", id)
	return n, nil
}

// AttachImage uploads body and points the note at it. The note is not
// modified when the upload fails. When the upload succeeds but the note
// cannot be saved the uploaded object is left behind.
func (s *NoteService) AttachImage(ctx context.Context, id uuid.UUID, body io.Reader, contentType string) (*models.Note, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := s.readImage(body)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%s_%s%s", n.ID, uuid.New(), FileExtension(contentType))

	if err := s.images.EnsureContainer(ctx); err != nil {
		return nil, storeErr("ensure image container", err)
	}
	url, err := s.images.Upload(ctx, name, data, contentType)
	if err != nil {
		return nil, storeErr("upload image", err)
	}

	n.ImageURL = &url
	if err := s.save(ctx, n); err != nil {
		s.logger.Warn(ctx, "image uploaded but note not saved", "id", id, "object", name, "error", err)
		return nil, err
	}
	s.logger.Info(ctx, "image attached", "id", id, "object", name, "bytes", len(data))
	return n, nil
}

// DetachImage clears the note's image reference. The object itself is kept.
func (s *NoteService) DetachImage(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !n.HasImage() {
		return nil, common.NewValidationError(msgNoExisting)
	}

	n.ImageURL = nil
	if err := s.save(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *NoteService) load(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	n, err := s.repo().First(ctx, notes.ByID(id))
	if err != nil {
		return nil, storeErr("find note", err)
	}
	return n, nil
}

func (s *NoteService) save(ctx context.Context, n *models.Note) error {
	n.UpdatedAt = s.now()
	if err := s.repo().Update(ctx, n); err != nil {
		return storeErr("update note", err)
	}
	return nil
}

func (s *NoteService) readImage(body io.Reader) ([]byte, error) {
	if body == nil {
		return nil, common.NewValidationError(msgNoImage)
	}
	r := body
	if s.maxImageBytes > 0 {
		r = io.LimitReader(body, s.maxImageBytes+1)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, storeErr("read image", err)
	}
	if buf.Len() == 0 {
		return nil, common.NewValidationError(msgNoImage)
	}
	if s.maxImageBytes > 0 && int64(buf.Len()) > s.maxImageBytes {
		return nil, common.NewValidationError(msgImageTooLarge)
	}
	return buf.Bytes(), nil
}

func validateInput(in *models.NoteInput) error {
	if in == nil || in.Title == nil {
		return common.NewValidationError(msgTitleRequired)
	}
	return nil
}

// storeErr passes not-found through and tags everything else with the
// failing step.
func storeErr(op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return &common.StoreError{Op: op, Err: err}
}

func stringPtr(s string) *string {
	return &s
}
