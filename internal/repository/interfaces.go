package repository

import (
	"context"

	"github.com/alexanderramin/fallow/internal/domain"
)

// CropRepo is the crop catalog adapter.
type CropRepo interface {
	Create(ctx context.Context, c *domain.Crop) error
	GetByID(ctx context.Context, id string) (*domain.Crop, error)
	GetByName(ctx context.Context, name string) (*domain.Crop, error)
	List(ctx context.Context) ([]*domain.Crop, error)
	// ListByIDs returns crops in the order of ids. Unknown IDs fail with
	// *domain.NotFoundError.
	ListByIDs(ctx context.Context, ids []string) ([]*domain.Crop, error)
	Update(ctx context.Context, c *domain.Crop) error
	Delete(ctx context.Context, id string) error
	// CountUsage reports how many plan entries reference the crop.
	CountUsage(ctx context.Context, id string) (int, error)
}

// RotationRepo is the rotation store adapter. Rotations and their entries
// are created together and deleted together.
type RotationRepo interface {
	CreatePlan(ctx context.Context, p *domain.Plan) error
	GetByID(ctx context.Context, id string) (*domain.Rotation, error)
	GetByName(ctx context.Context, name string) (*domain.Rotation, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Rotation, error)
	GetPlan(ctx context.Context, rotationID string) (*domain.Plan, error)
	// SavePlan writes the rotation header and every entry, provided the
	// stored version still equals p.Rotation.Version. On success the
	// version is incremented in both the store and p. A stale version fails
	// with *domain.ConflictError.
	SavePlan(ctx context.Context, p *domain.Plan) error
	// UpdateRotation is the header-only form of SavePlan.
	UpdateRotation(ctx context.Context, r *domain.Rotation) error
	Delete(ctx context.Context, id string) error
}
