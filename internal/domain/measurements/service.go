package measurements

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bovine-monitoring/internal/domain/domainerr"
	"bovine-monitoring/internal/platform/logger"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
	MaxBatchSize     = 50
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Input son los datos de una medición nueva.
type Input struct {
	AnimalID string
	Date     time.Time

	HeightCm        *Metric
	TorsoLengthCm   *Metric
	ObliqueLengthCm *Metric
	HipLengthCm     *Metric
	HipWidthCm      *Metric
	ScaleWeightKg   *Metric

	AgeMonths *int
}

// Patch: nil = no tocar.
type Patch struct {
	Date *time.Time

	HeightCm        *Metric
	TorsoLengthCm   *Metric
	ObliqueLengthCm *Metric
	HipLengthCm     *Metric
	HipWidthCm      *Metric
	ScaleWeightKg   *Metric

	AgeMonths *int
}

type BatchFailure struct {
	Index  int
	Detail string
}

type BatchResult struct {
	Created []Measurement
	Failed  []BatchFailure
}

type Export struct {
	AnimalID   string
	ExportedAt time.Time
	Items      []Measurement
}

func (s *Service) Create(ctx context.Context, ownerID string, in Input) (Measurement, error) {
	if err := validateInput(in); err != nil {
		return Measurement{}, err
	}
	if err := s.ownedAnimal(ctx, ownerID, in.AnimalID); err != nil {
		return Measurement{}, err
	}
	return s.create(ctx, in)
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (Measurement, error) {
	return s.owned(ctx, ownerID, id)
}

func (s *Service) ListByAnimal(ctx context.Context, ownerID, animalID string, limit int) ([]Measurement, error) {
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit < 1 || limit > MaxListLimit {
		return nil, domainerr.Validation("validation error", domainerr.FieldError{
			Field:   "limit",
			Message: fmt.Sprintf("must be between 1 and %d", MaxListLimit),
		})
	}
	if err := s.ownedAnimal(ctx, ownerID, animalID); err != nil {
		return nil, err
	}

	items, err := s.repo.ListByAnimal(ctx, animalID, ListFilter{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("measurements: list: %w", err)
	}
	return items, nil
}

// Range lista las mediciones con fecha en [from, to], ambos inclusive.
func (s *Service) Range(ctx context.Context, ownerID, animalID string, from, to time.Time) ([]Measurement, error) {
	from, to = CivilDate(from), CivilDate(to)
	if from.After(to) {
		return nil, domainerr.Validation("start date must be before or equal to end date")
	}
	if err := s.ownedAnimal(ctx, ownerID, animalID); err != nil {
		return nil, err
	}

	items, err := s.repo.ListByAnimal(ctx, animalID, ListFilter{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("measurements: range: %w", err)
	}
	return items, nil
}

func (s *Service) Latest(ctx context.Context, ownerID, animalID string) (Measurement, error) {
	if err := s.ownedAnimal(ctx, ownerID, animalID); err != nil {
		return Measurement{}, err
	}

	m, err := s.repo.Latest(ctx, animalID)
	if errors.Is(err, domainerr.ErrNotFound) {
		return Measurement{}, domainerr.NotFound("no measurements found for animal")
	}
	if err != nil {
		return Measurement{}, fmt.Errorf("measurements: latest: %w", err)
	}
	return m, nil
}

func (s *Service) Stats(ctx context.Context, ownerID, animalID string) (Stats, error) {
	if err := s.ownedAnimal(ctx, ownerID, animalID); err != nil {
		return Stats{}, err
	}

	items, err := s.repo.ListByAnimal(ctx, animalID, ListFilter{})
	if err != nil {
		return Stats{}, fmt.Errorf("measurements: stats: %w", err)
	}
	return ComputeStats(animalID, items), nil
}

func (s *Service) Update(ctx context.Context, ownerID, id string, p Patch) (Measurement, error) {
	current, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return Measurement{}, err
	}

	if p.Date != nil {
		current.Date = CivilDate(*p.Date)
	}
	setMetric(&current.HeightCm, p.HeightCm)
	setMetric(&current.TorsoLengthCm, p.TorsoLengthCm)
	setMetric(&current.ObliqueLengthCm, p.ObliqueLengthCm)
	setMetric(&current.HipLengthCm, p.HipLengthCm)
	setMetric(&current.HipWidthCm, p.HipWidthCm)
	setMetric(&current.ScaleWeightKg, p.ScaleWeightKg)
	if p.AgeMonths != nil {
		age := *p.AgeMonths
		current.AgeMonths = &age
	}

	if err := validateInput(inputOf(current)); err != nil {
		return Measurement{}, err
	}

	if err := s.repo.Update(ctx, current); err != nil {
		if errors.Is(err, domainerr.ErrNotFound) {
			return Measurement{}, domainerr.NotFound("measurement not found")
		}
		return Measurement{}, fmt.Errorf("measurements: update: %w", err)
	}
	return current, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domainerr.ErrNotFound) {
			return domainerr.NotFound("measurement not found")
		}
		return fmt.Errorf("measurements: delete: %w", err)
	}
	return nil
}

// Batch crea varias mediciones del mismo animal. Las que fallan se reportan
// por índice; solo es error si no se pudo crear ninguna.
func (s *Service) Batch(ctx context.Context, ownerID, animalID string, items []Input) (BatchResult, error) {
	if len(items) == 0 {
		return BatchResult{}, domainerr.Validation("batch must contain at least one measurement")
	}
	if len(items) > MaxBatchSize {
		return BatchResult{}, domainerr.Validation(fmt.Sprintf("batch cannot exceed %d measurements", MaxBatchSize))
	}
	if err := s.ownedAnimal(ctx, ownerID, animalID); err != nil {
		return BatchResult{}, err
	}

	res := BatchResult{
		Created: make([]Measurement, 0, len(items)),
		Failed:  make([]BatchFailure, 0),
	}
	for i, in := range items {
		if in.AnimalID != "" && in.AnimalID != animalID {
			res.Failed = append(res.Failed, BatchFailure{Index: i, Detail: "animal_id does not match the batch animal"})
			continue
		}
		in.AnimalID = animalID

		if err := validateInput(in); err != nil {
			res.Failed = append(res.Failed, BatchFailure{Index: i, Detail: describe(err)})
			continue
		}
		m, err := s.create(ctx, in)
		if err != nil {
			logger.FromContext(ctx).Warn("batch item not stored", map[string]any{"index": i, "error": err})
			res.Failed = append(res.Failed, BatchFailure{Index: i, Detail: "measurement could not be stored"})
			continue
		}
		res.Created = append(res.Created, m)
	}

	if len(res.Created) == 0 {
		return res, domainerr.Invalid("no measurement in the batch could be created")
	}
	return res, nil
}

func (s *Service) Export(ctx context.Context, ownerID, animalID string) (Export, error) {
	if err := s.ownedAnimal(ctx, ownerID, animalID); err != nil {
		return Export{}, err
	}

	items, err := s.repo.ListByAnimal(ctx, animalID, ListFilter{})
	if err != nil {
		return Export{}, fmt.Errorf("measurements: export: %w", err)
	}
	return Export{AnimalID: animalID, ExportedAt: s.now().UTC(), Items: items}, nil
}

func (s *Service) create(ctx context.Context, in Input) (Measurement, error) {
	m := Measurement{
		ID:              uuid.NewString(),
		AnimalID:        in.AnimalID,
		Date:            CivilDate(in.Date),
		HeightCm:        in.HeightCm,
		TorsoLengthCm:   in.TorsoLengthCm,
		ObliqueLengthCm: in.ObliqueLengthCm,
		HipLengthCm:     in.HipLengthCm,
		HipWidthCm:      in.HipWidthCm,
		ScaleWeightKg:   in.ScaleWeightKg,
		AgeMonths:       in.AgeMonths,
		CreatedAt:       s.now().UTC(),
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return Measurement{}, fmt.Errorf("measurements: create: %w", err)
	}
	return m, nil
}

// ownedAnimal no distingue "no existe" de "no es tuyo".
func (s *Service) ownedAnimal(ctx context.Context, ownerID, animalID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return domainerr.Unauthorized("not authenticated")
	}
	if !validID(animalID) {
		return domainerr.NotFound("animal not found")
	}

	owner, err := s.repo.AnimalOwner(ctx, animalID)
	if errors.Is(err, domainerr.ErrNotFound) || (err == nil && owner != ownerID) {
		return domainerr.NotFound("animal not found")
	}
	if err != nil {
		return fmt.Errorf("measurements: animal owner: %w", err)
	}
	return nil
}

func (s *Service) owned(ctx context.Context, ownerID, id string) (Measurement, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Measurement{}, domainerr.Unauthorized("not authenticated")
	}
	if !validID(id) {
		return Measurement{}, domainerr.NotFound("measurement not found")
	}

	m, owner, err := s.repo.GetWithOwner(ctx, id)
	if errors.Is(err, domainerr.ErrNotFound) || (err == nil && owner != ownerID) {
		return Measurement{}, domainerr.NotFound("measurement not found")
	}
	if err != nil {
		return Measurement{}, fmt.Errorf("measurements: get: %w", err)
	}
	return m, nil
}

func validateInput(in Input) error {
	fields := make([]domainerr.FieldError, 0)

	if in.Date.IsZero() {
		fields = append(fields, domainerr.FieldError{Field: "date", Message: "is required"})
	}

	for _, nm := range []struct {
		name string
		v    *Metric
	}{
		{"height_cm", in.HeightCm},
		{"torso_length_cm", in.TorsoLengthCm},
		{"oblique_length_cm", in.ObliqueLengthCm},
		{"hip_length_cm", in.HipLengthCm},
		{"hip_width_cm", in.HipWidthCm},
		{"scale_weight_kg", in.ScaleWeightKg},
	} {
		if nm.v == nil {
			continue
		}
		if err := nm.v.Validate(); err != nil {
			fields = append(fields, domainerr.FieldError{Field: nm.name, Message: err.Error()})
		}
	}

	if in.AgeMonths != nil && *in.AgeMonths < 0 {
		fields = append(fields, domainerr.FieldError{Field: "age_months", Message: "must be greater than or equal to 0"})
	}

	if len(fields) > 0 {
		return domainerr.Validation("validation error", fields...)
	}
	return nil
}

func inputOf(m Measurement) Input {
	return Input{
		AnimalID:        m.AnimalID,
		Date:            m.Date,
		HeightCm:        m.HeightCm,
		TorsoLengthCm:   m.TorsoLengthCm,
		ObliqueLengthCm: m.ObliqueLengthCm,
		HipLengthCm:     m.HipLengthCm,
		HipWidthCm:      m.HipWidthCm,
		ScaleWeightKg:   m.ScaleWeightKg,
		AgeMonths:       m.AgeMonths,
	}
}

func setMetric(dst **Metric, v *Metric) {
	if v == nil {
		return
	}
	cp := *v
	*dst = &cp
}

func describe(err error) string {
	detail := domainerr.DetailOf(err)
	fields := domainerr.FieldsOf(err)
	if len(fields) == 0 {
		return detail
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return strings.Join(parts, "; ")
}

func validID(id string) bool {
	_, err := uuid.Parse(strings.TrimSpace(id))
	return err == nil
}
