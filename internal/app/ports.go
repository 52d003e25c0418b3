package app

import (
	"context"

	"github.com/alexanderramin/fallow/internal/catalog"
	"github.com/alexanderramin/fallow/internal/domain"
)

type GenerateRotationUseCase interface {
	Generate(ctx context.Context, req GenerateRotationRequest) (*RotationPlanResponse, error)
}

// EditRotationUseCase covers the in-place plan edits. Each call reads the
// stored plan, applies one edit in memory and persists it in a single
// version-checked transaction.
type EditRotationUseCase interface {
	UpdateNitrogenBalance(ctx context.Context, req UpdateNitrogenBalanceRequest) (*RotationPlanResponse, error)
	UpdateDivisionSize(ctx context.Context, req UpdateDivisionSizeRequest) (*RotationPlanResponse, error)
	ReassignCrop(ctx context.Context, req ReassignCropRequest) (*RotationPlanResponse, error)
	ScheduleEntry(ctx context.Context, req ScheduleEntryRequest) (*RotationPlanResponse, error)
}

type ImportCatalogResult struct {
	Crops []*domain.Crop
}

type ImportCatalogUseCase interface {
	ImportCatalog(ctx context.Context, filePath string) (*ImportCatalogResult, error)
	ImportCatalogFromSchema(ctx context.Context, schema *catalog.CatalogSchema) (*ImportCatalogResult, error)
}
