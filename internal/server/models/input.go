package models

import "github.com/google/uuid"

// NoteInput is the client-supplied body for create, update and complete.
// Pointer fields distinguish an omitted field from its zero value.
type NoteInput struct {
	ID        *uuid.UUID `json:"id,omitempty"`
	Title     *string    `json:"title"`
	Content   *string    `json:"content"`
	CreatedBy *string    `json:"createdBy"`
	Completed *bool      `json:"completed"`
	ImageURL  *string    `json:"imageUrl"`
}
