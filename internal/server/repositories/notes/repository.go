// Package notes contains the note store: the Repository contract and its
// PostgreSQL and in-memory implementations.
package notes

import (
	"context"

	"github.com/dmitrijs2005/notsy/internal/server/models"
	"github.com/google/uuid"
)

// Filter selects notes by predicate. Nil fields match every note.
type Filter struct {
	ID        *uuid.UUID
	Completed *bool
}

// ByID returns a Filter matching the note with the given id.
func ByID(id uuid.UUID) Filter {
	return Filter{ID: &id}
}

// ByCompleted returns a Filter matching notes with the given completion
// state, or every note when completed is nil.
func ByCompleted(completed *bool) Filter {
	return Filter{Completed: completed}
}

// Matches reports whether n satisfies the filter.
func (f Filter) Matches(n *models.Note) bool {
	if f.ID != nil && n.ID != *f.ID {
		return false
	}
	if f.Completed != nil && n.Completed != *f.Completed {
		return false
	}
	return true
}

// Repository is durable keyed storage of notes.
//
// Find returns notes ordered by CreatedAt descending and an empty slice when
// nothing matches. First, Update and Delete return common.ErrorNotFound when
// no note matches.
type Repository interface {
	// Create inserts n. A nil n.ID is replaced by a fresh UUID.
	Create(ctx context.Context, n *models.Note) error
	Find(ctx context.Context, f Filter) ([]*models.Note, error)
	First(ctx context.Context, f Filter) (*models.Note, error)
	// Update writes every mutable column of n, keyed by n.ID.
	Update(ctx context.Context, n *models.Note) error
	Delete(ctx context.Context, id uuid.UUID) error
}
