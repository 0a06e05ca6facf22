package animals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"bovine-monitoring/internal/domain/domainerr"
	"bovine-monitoring/internal/domain/measurements"

	"github.com/google/uuid"
)

// MeasurementReader lista mediciones de un animal ya autorizado.
type MeasurementReader interface {
	ListByAnimal(ctx context.Context, animalID string, f measurements.ListFilter) ([]measurements.Measurement, error)
}

type Service struct {
	repo         Repository
	measurements MeasurementReader
	now          func() time.Time
}

func NewService(repo Repository, mr MeasurementReader) *Service {
	return &Service{
		repo:         repo,
		measurements: mr,
		now:          time.Now,
	}
}

type CreateInput struct {
	FarmID string
	Tag    string
	Sex    *string
	Breed  *string
}

// Patch: nil = no tocar.
type Patch struct {
	Tag   *string
	Sex   *string
	Breed *string
}

// WithMeasurements es un animal junto a todas sus mediciones (fecha desc).
type WithMeasurements struct {
	Animal       Animal
	Measurements []measurements.Measurement
}

func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (Animal, error) {
	a := Animal{
		Tag:   strings.TrimSpace(in.Tag),
		Sex:   trimmed(in.Sex),
		Breed: trimmed(in.Breed),
	}
	if err := validate(a); err != nil {
		return Animal{}, err
	}

	farmID := strings.TrimSpace(in.FarmID)
	if err := s.ownedFarm(ctx, ownerID, farmID); err != nil {
		return Animal{}, err
	}

	a.ID = uuid.NewString()
	a.FarmID = farmID
	a.CreatedAt = s.now().UTC()

	if err := s.repo.Create(ctx, a); err != nil {
		return Animal{}, fmt.Errorf("animals: create: %w", err)
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (Animal, error) {
	return s.owned(ctx, ownerID, id)
}

func (s *Service) ListByFarm(ctx context.Context, ownerID, farmID string) ([]Animal, error) {
	if err := s.ownedFarm(ctx, ownerID, farmID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByFarm(ctx, farmID)
	if err != nil {
		return nil, fmt.Errorf("animals: list: %w", err)
	}
	return items, nil
}

func (s *Service) Search(ctx context.Context, ownerID, term string) ([]Animal, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domainerr.Unauthorized("not authenticated")
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domainerr.Validation("validation error", domainerr.FieldError{Field: "tag", Message: "is required"})
	}

	items, err := s.repo.SearchByTag(ctx, ownerID, term)
	if err != nil {
		return nil, fmt.Errorf("animals: search: %w", err)
	}
	return items, nil
}

func (s *Service) Update(ctx context.Context, ownerID, id string, p Patch) (Animal, error) {
	a, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return Animal{}, err
	}

	if p.Tag != nil {
		a.Tag = strings.TrimSpace(*p.Tag)
	}
	if p.Sex != nil {
		a.Sex = trimmed(p.Sex)
	}
	if p.Breed != nil {
		a.Breed = trimmed(p.Breed)
	}
	if err := validate(a); err != nil {
		return Animal{}, err
	}

	if err := s.repo.Update(ctx, a); err != nil {
		if errors.Is(err, domainerr.ErrNotFound) {
			return Animal{}, domainerr.NotFound("animal not found")
		}
		return Animal{}, fmt.Errorf("animals: update: %w", err)
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domainerr.ErrNotFound) {
			return domainerr.NotFound("animal not found")
		}
		return fmt.Errorf("animals: delete: %w", err)
	}
	return nil
}

func (s *Service) GetWithMeasurements(ctx context.Context, ownerID, id string) (WithMeasurements, error) {
	a, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return WithMeasurements{}, err
	}

	items, err := s.measurements.ListByAnimal(ctx, a.ID, measurements.ListFilter{})
	if err != nil {
		return WithMeasurements{}, fmt.Errorf("animals: measurements: %w", err)
	}
	return WithMeasurements{Animal: a, Measurements: items}, nil
}

func (s *Service) ownedFarm(ctx context.Context, ownerID, farmID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return domainerr.Unauthorized("not authenticated")
	}
	if _, err := uuid.Parse(farmID); err != nil {
		return domainerr.NotFound("farm not found")
	}

	owner, err := s.repo.FarmOwner(ctx, farmID)
	if errors.Is(err, domainerr.ErrNotFound) || (err == nil && owner != ownerID) {
		return domainerr.NotFound("farm not found")
	}
	if err != nil {
		return fmt.Errorf("animals: farm owner: %w", err)
	}
	return nil
}

func (s *Service) owned(ctx context.Context, ownerID, id string) (Animal, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Animal{}, domainerr.Unauthorized("not authenticated")
	}
	if _, err := uuid.Parse(id); err != nil {
		return Animal{}, domainerr.NotFound("animal not found")
	}

	a, owner, err := s.repo.GetWithOwner(ctx, id)
	if errors.Is(err, domainerr.ErrNotFound) || (err == nil && owner != ownerID) {
		return Animal{}, domainerr.NotFound("animal not found")
	}
	if err != nil {
		return Animal{}, fmt.Errorf("animals: get: %w", err)
	}
	return a, nil
}

func validate(a Animal) error {
	fields := make([]domainerr.FieldError, 0)

	if n := utf8.RuneCountInString(a.Tag); n == 0 || n > MaxTagLength {
		fields = append(fields, domainerr.FieldError{Field: "tag", Message: fmt.Sprintf("must be between 1 and %d characters", MaxTagLength)})
	}
	if a.Sex != nil && *a.Sex != SexMale && *a.Sex != SexFemale {
		fields = append(fields, domainerr.FieldError{Field: "sex", Message: "must be M or H"})
	}
	if a.Breed != nil && utf8.RuneCountInString(*a.Breed) > MaxBreedLength {
		fields = append(fields, domainerr.FieldError{Field: "breed", Message: fmt.Sprintf("must be at most %d characters", MaxBreedLength)})
	}

	if len(fields) > 0 {
		return domainerr.Validation("validation error", fields...)
	}
	return nil
}

// trimmed normaliza un opcional: "" se guarda como ausente.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
