package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"bovine-monitoring/internal/domain/measurements"
)

type measurementRepo struct {
	s *Store
}

func (r *measurementRepo) Create(ctx context.Context, m measurements.Measurement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if strings.TrimSpace(m.ID) == "" {
		return errors.New("measurement id required")
	}
	if _, exists := r.s.measurements[m.ID]; exists {
		return errors.New("measurement already exists")
	}
	if _, ok := r.s.animals[m.AnimalID]; !ok {
		return errors.New("animal does not exist")
	}
	r.s.measurements[m.ID] = m
	return nil
}

func (r *measurementRepo) GetWithOwner(ctx context.Context, id string) (measurements.Measurement, string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.measurements[id]
	if !ok {
		return measurements.Measurement{}, "", ErrNotFound
	}
	owner, _ := r.s.animalOwner(m.AnimalID)
	return m, owner, nil
}

func (r *measurementRepo) AnimalOwner(ctx context.Context, animalID string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	owner, ok := r.s.animalOwner(animalID)
	if !ok {
		return "", ErrNotFound
	}
	return owner, nil
}

func (r *measurementRepo) ListByAnimal(ctx context.Context, animalID string, filter measurements.ListFilter) ([]measurements.Measurement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]measurements.Measurement, 0)
	for _, m := range r.s.measurements {
		if m.AnimalID != animalID {
			continue
		}
		if filter.From != nil && m.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && m.Date.After(*filter.To) {
			continue
		}
		out = append(out, m)
	}

	// Fecha desc; a igual fecha, la cargada más tarde primero.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *measurementRepo) Latest(ctx context.Context, animalID string) (measurements.Measurement, error) {
	items, err := r.ListByAnimal(ctx, animalID, measurements.ListFilter{Limit: 1})
	if err != nil {
		return measurements.Measurement{}, err
	}
	if len(items) == 0 {
		return measurements.Measurement{}, ErrNotFound
	}
	return items[0], nil
}

func (r *measurementRepo) Update(ctx context.Context, m measurements.Measurement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.measurements[m.ID]
	if !ok {
		return ErrNotFound
	}
	m.AnimalID = cur.AnimalID
	m.CreatedAt = cur.CreatedAt
	r.s.measurements[m.ID] = m
	return nil
}

func (r *measurementRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.measurements[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.measurements, id)
	return nil
}
