package farms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"bovine-monitoring/internal/domain/animals"
	"bovine-monitoring/internal/domain/domainerr"
	"bovine-monitoring/internal/domain/measurements"

	"github.com/google/uuid"
)

// AnimalLister lista los bovinos de una finca ya autorizada.
type AnimalLister interface {
	ListByFarm(ctx context.Context, farmID string) ([]animals.Animal, error)
}

// LatestFinder devuelve la medición más reciente por fecha, o ErrNotFound.
type LatestFinder interface {
	Latest(ctx context.Context, animalID string) (measurements.Measurement, error)
}

type Service struct {
	repo    Repository
	animals AnimalLister
	latest  LatestFinder
	now     func() time.Time
}

func NewService(repo Repository, al AnimalLister, lf LatestFinder) *Service {
	return &Service{
		repo:    repo,
		animals: al,
		latest:  lf,
		now:     time.Now,
	}
}

func (s *Service) Create(ctx context.Context, ownerID, name string) (Farm, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Farm{}, domainerr.Unauthorized("not authenticated")
	}
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return Farm{}, err
	}

	f := Farm{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return Farm{}, fmt.Errorf("farms: create: %w", err)
	}
	return f, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (Farm, error) {
	return s.owned(ctx, ownerID, id)
}

func (s *Service) List(ctx context.Context, ownerID string) ([]Farm, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domainerr.Unauthorized("not authenticated")
	}
	items, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("farms: list: %w", err)
	}
	return items, nil
}

func (s *Service) Update(ctx context.Context, ownerID, id, name string) (Farm, error) {
	f, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return Farm{}, err
	}

	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return Farm{}, err
	}
	f.Name = name

	if err := s.repo.Update(ctx, f); err != nil {
		if errors.Is(err, domainerr.ErrNotFound) {
			return Farm{}, domainerr.NotFound("farm not found")
		}
		return Farm{}, fmt.Errorf("farms: update: %w", err)
	}
	return f, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domainerr.ErrNotFound) {
			return domainerr.NotFound("farm not found")
		}
		return fmt.Errorf("farms: delete: %w", err)
	}
	return nil
}

func (s *Service) GetWithAnimals(ctx context.Context, ownerID, id string) (WithAnimals, error) {
	f, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return WithAnimals{}, err
	}

	items, err := s.animals.ListByFarm(ctx, f.ID)
	if err != nil {
		return WithAnimals{}, fmt.Errorf("farms: animals: %w", err)
	}
	return WithAnimals{Farm: f, Animals: items}, nil
}

// Complete adjunta a cada bovino su última medición y marca como reciente
// la que está a 30 días o menos de hoy.
func (s *Service) Complete(ctx context.Context, ownerID, id string) (Overview, error) {
	f, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return Overview{}, err
	}

	items, err := s.animals.ListByFarm(ctx, f.ID)
	if err != nil {
		return Overview{}, fmt.Errorf("farms: animals: %w", err)
	}

	today := measurements.CivilDate(s.now().UTC())
	out := Overview{
		Farm:        f,
		Animals:     make([]AnimalOverview, 0, len(items)),
		Summary:     Summary{TotalAnimals: len(items)},
		EvaluatedOn: today,
	}

	for _, a := range items {
		ao := AnimalOverview{Animal: a}

		m, err := s.latest.Latest(ctx, a.ID)
		switch {
		case errors.Is(err, domainerr.ErrNotFound):
		case err != nil:
			return Overview{}, fmt.Errorf("farms: latest measurement: %w", err)
		default:
			ao.Latest = &m
			ao.Recent = measurements.IsRecent(m.Date, today)
			out.Summary.AnimalsWithMeasurements++
			if ao.Recent {
				out.Summary.RecentlyMeasured++
			}
		}

		out.Animals = append(out.Animals, ao)
	}
	return out, nil
}

// owned trata "no existe" y "no es tuya" igual.
func (s *Service) owned(ctx context.Context, ownerID, id string) (Farm, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Farm{}, domainerr.Unauthorized("not authenticated")
	}
	if _, err := uuid.Parse(id); err != nil {
		return Farm{}, domainerr.NotFound("farm not found")
	}

	f, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, domainerr.ErrNotFound) || (err == nil && f.OwnerID != ownerID) {
		return Farm{}, domainerr.NotFound("farm not found")
	}
	if err != nil {
		return Farm{}, fmt.Errorf("farms: get: %w", err)
	}
	return f, nil
}

func validateName(name string) error {
	if n := utf8.RuneCountInString(name); n == 0 || n > MaxNameLength {
		return domainerr.Validation("validation error", domainerr.FieldError{
			Field:   "name",
			Message: fmt.Sprintf("must be between 1 and %d characters", MaxNameLength),
		})
	}
	return nil
}
