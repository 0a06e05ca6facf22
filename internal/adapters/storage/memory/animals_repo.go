package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"bovine-monitoring/internal/domain/animals"
)

type animalRepo struct {
	s *Store
}

func (r *animalRepo) Create(ctx context.Context, a animals.Animal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("animal id required")
	}
	if _, exists := r.s.animals[a.ID]; exists {
		return errors.New("animal already exists")
	}
	if _, ok := r.s.farms[a.FarmID]; !ok {
		return errors.New("farm does not exist")
	}
	r.s.animals[a.ID] = a
	return nil
}

func (r *animalRepo) GetWithOwner(ctx context.Context, id string) (animals.Animal, string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.animals[id]
	if !ok {
		return animals.Animal{}, "", ErrNotFound
	}
	owner, _ := r.s.animalOwner(id)
	return a, owner, nil
}

func (r *animalRepo) FarmOwner(ctx context.Context, farmID string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	f, ok := r.s.farms[farmID]
	if !ok {
		return "", ErrNotFound
	}
	return f.OwnerID, nil
}

func (r *animalRepo) ListByFarm(ctx context.Context, farmID string) ([]animals.Animal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]animals.Animal, 0)
	for _, a := range r.s.animals {
		if a.FarmID == farmID {
			out = append(out, a)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *animalRepo) SearchByTag(ctx context.Context, ownerID, term string) ([]animals.Animal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	needle := strings.ToLower(term)
	out := make([]animals.Animal, 0)
	for _, a := range r.s.animals {
		if owner, ok := r.s.animalOwner(a.ID); !ok || owner != ownerID {
			continue
		}
		if strings.Contains(strings.ToLower(a.Tag), needle) {
			out = append(out, a)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Tag != out[j].Tag {
			return out[i].Tag < out[j].Tag
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *animalRepo) Update(ctx context.Context, a animals.Animal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.animals[a.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Tag = a.Tag
	cur.Sex = a.Sex
	cur.Breed = a.Breed
	r.s.animals[a.ID] = cur
	return nil
}

func (r *animalRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.animals[id]; !ok {
		return ErrNotFound
	}
	r.s.deleteAnimal(id)
	return nil
}
