package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"bovine-monitoring/internal/domain/farms"
)

type farmRepo struct {
	s *Store
}

func (r *farmRepo) Create(ctx context.Context, f farms.Farm) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if strings.TrimSpace(f.ID) == "" {
		return errors.New("farm id required")
	}
	if _, exists := r.s.farms[f.ID]; exists {
		return errors.New("farm already exists")
	}
	r.s.farms[f.ID] = f
	return nil
}

func (r *farmRepo) GetByID(ctx context.Context, id string) (farms.Farm, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	f, ok := r.s.farms[id]
	if !ok {
		return farms.Farm{}, ErrNotFound
	}
	return f, nil
}

func (r *farmRepo) ListByOwner(ctx context.Context, ownerID string) ([]farms.Farm, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]farms.Farm, 0)
	for _, f := range r.s.farms {
		if f.OwnerID == ownerID {
			out = append(out, f)
		}
	}

	// Más recientes primero; a igual fecha, por id para que sea estable.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *farmRepo) Update(ctx context.Context, f farms.Farm) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.farms[f.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Name = f.Name
	r.s.farms[f.ID] = cur
	return nil
}

func (r *farmRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.farms[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.farms, id)
	for aid, a := range r.s.animals {
		if a.FarmID == id {
			r.s.deleteAnimal(aid)
		}
	}
	return nil
}
