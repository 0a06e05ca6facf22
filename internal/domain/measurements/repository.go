package measurements

import "context"

type Repository interface {
	Create(ctx context.Context, m Measurement) error
	// GetWithOwner devuelve la medición y el propietario de la finca del animal.
	GetWithOwner(ctx context.Context, id string) (Measurement, string, error)
	// AnimalOwner devuelve el propietario de la finca a la que pertenece el animal.
	AnimalOwner(ctx context.Context, animalID string) (string, error)
	// ListByAnimal ordena por fecha desc (y created_at desc a igual fecha).
	ListByAnimal(ctx context.Context, animalID string, f ListFilter) ([]Measurement, error)
	Latest(ctx context.Context, animalID string) (Measurement, error)
	Update(ctx context.Context, m Measurement) error
	Delete(ctx context.Context, id string) error
}
