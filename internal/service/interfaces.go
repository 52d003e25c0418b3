package service

import (
	"context"

	"github.com/alexanderramin/fallow/internal/app"
	"github.com/alexanderramin/fallow/internal/domain"
)

type CropService interface {
	Create(ctx context.Context, c *domain.Crop) error
	GetByID(ctx context.Context, id string) (*domain.Crop, error)
	GetByName(ctx context.Context, name string) (*domain.Crop, error)
	List(ctx context.Context) ([]*domain.Crop, error)
	Update(ctx context.Context, c *domain.Crop) error
	Delete(ctx context.Context, id string) error
	ExportCatalog(ctx context.Context, format domain.CatalogFormat) ([]byte, error)
	app.ImportCatalogUseCase
}

type RotationService interface {
	GetByID(ctx context.Context, id string) (*domain.Rotation, error)
	GetByName(ctx context.Context, name string) (*domain.Rotation, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Rotation, error)
	GetPlan(ctx context.Context, rotationID string) (*app.RotationPlanResponse, error)
	Archive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	app.GenerateRotationUseCase
	app.EditRotationUseCase
}

// RotationSettings are the configured defaults and limits applied to
// generation requests and plan validation.
type RotationSettings struct {
	MaxYears         int
	DefaultResidualN float64
	DefaultOwner     string
	Tolerance        float64
}
