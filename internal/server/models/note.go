// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/google/uuid"
)

// SystemAuthor is written to CreatedBy for every note created through the
// API. There is no authenticated identity to derive it from.
const SystemAuthor = "System"

// Note is a single user note, optionally carrying a reference to an image
// kept in object storage.
type Note struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   *string   `json:"content"`
	CreatedBy *string   `json:"createdBy"`
	Completed bool      `json:"completed"`
	// ImageURL points at the object uploaded by the last image attachment.
	// Detaching clears it; the object itself stays in storage.
	ImageURL  *string   `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy so that callers can mutate the result without
// touching the original.
func (n *Note) Clone() *Note {
	if n == nil {
		return nil
	}
	c := *n
	c.Content = cloneString(n.Content)
	c.CreatedBy = cloneString(n.CreatedBy)
	c.ImageURL = cloneString(n.ImageURL)
	return &c
}

// HasImage reports whether the note references an image.
func (n *Note) HasImage() bool {
	return n.ImageURL != nil && *n.ImageURL != ""
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
