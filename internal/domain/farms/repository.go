package farms

import "context"

type Repository interface {
	Create(ctx context.Context, f Farm) error
	GetByID(ctx context.Context, id string) (Farm, error)
	// ListByOwner ordena por created_at desc.
	ListByOwner(ctx context.Context, ownerID string) ([]Farm, error)
	Update(ctx context.Context, f Farm) error
	// Delete elimina la finca con sus bovinos y mediciones.
	Delete(ctx context.Context, id string) error
}
