package notes

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/notsy/internal/common"
	"github.com/dmitrijs2005/notsy/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps notes in a map. It stores and returns copies, so
// callers never share memory with the stored records.
type MemoryRepository struct {
	mu    sync.RWMutex
	notes map[uuid.UUID]*models.Note
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{notes: make(map[uuid.UUID]*models.Note)}
}

var _ Repository = (*MemoryRepository)(nil)

func (r *MemoryRepository) Create(ctx context.Context, n *models.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if _, exists := r.notes[n.ID]; exists {
		return fmt.Errorf("note %s already exists", n.ID)
	}
	r.notes[n.ID] = n.Clone()
	return nil
}

func (r *MemoryRepository) Find(ctx context.Context, f Filter) ([]*models.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Note, 0, len(r.notes))
	for _, n := range r.notes {
		if f.Matches(n) {
			result = append(result, n.Clone())
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *MemoryRepository) First(ctx context.Context, f Filter) (*models.Note, error) {
	found, err := r.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, common.ErrorNotFound
	}
	return found[0], nil
}

func (r *MemoryRepository) Update(ctx context.Context, n *models.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.notes[n.ID]
	if !ok {
		return common.ErrorNotFound
	}
	updated := n.Clone()
	updated.CreatedAt = existing.CreatedAt
	r.notes[n.ID] = updated
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.notes[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.notes, id)
	return nil
}
