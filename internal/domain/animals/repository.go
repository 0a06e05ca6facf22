package animals

import "context"

type Repository interface {
	Create(ctx context.Context, a Animal) error
	// GetWithOwner devuelve el animal y el propietario de su finca.
	GetWithOwner(ctx context.Context, id string) (Animal, string, error)
	FarmOwner(ctx context.Context, farmID string) (string, error)
	ListByFarm(ctx context.Context, farmID string) ([]Animal, error)
	// SearchByTag busca por subcadena (sin distinguir mayúsculas) solo en fincas de ownerID.
	SearchByTag(ctx context.Context, ownerID, term string) ([]Animal, error)
	Update(ctx context.Context, a Animal) error
	Delete(ctx context.Context, id string) error
}
