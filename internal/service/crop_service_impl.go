package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/fallow/internal/app"
	"github.com/alexanderramin/fallow/internal/catalog"
	"github.com/alexanderramin/fallow/internal/db"
	"github.com/alexanderramin/fallow/internal/domain"
	"github.com/alexanderramin/fallow/internal/repository"
	"github.com/google/uuid"
)

type cropService struct {
	crops    repository.CropRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewCropService(crops repository.CropRepo, uow db.UnitOfWork, observers ...UseCaseObserver) CropService {
	return &cropService{
		crops:    crops,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *cropService) Create(ctx context.Context, c *domain.Crop) error {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	return s.crops.Create(ctx, c)
}

func (s *cropService) GetByID(ctx context.Context, id string) (*domain.Crop, error) {
	return s.crops.GetByID(ctx, id)
}

func (s *cropService) GetByName(ctx context.Context, name string) (*domain.Crop, error) {
	return s.crops.GetByName(ctx, strings.TrimSpace(name))
}

func (s *cropService) List(ctx context.Context) ([]*domain.Crop, error) {
	return s.crops.List(ctx)
}

// Update rewrites a catalog crop. Stored plans keep their balances; edits
// take effect the next time a plan touching the crop is recomputed.
func (s *cropService) Update(ctx context.Context, c *domain.Crop) error {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return err
	}
	c.UpdatedAt = time.Now().UTC()
	return s.crops.Update(ctx, c)
}

func (s *cropService) Delete(ctx context.Context, id string) error {
	n, err := s.crops.CountUsage(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.NewValidationError("crop", "crop %s is used by %d plan entries; delete those rotations first", id, n)
	}
	return s.crops.Delete(ctx, id)
}

func (s *cropService) ExportCatalog(ctx context.Context, format domain.CatalogFormat) ([]byte, error) {
	crops, err := s.crops.List(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Encode(crops, format)
}

func (s *cropService) ImportCatalog(ctx context.Context, filePath string) (*app.ImportCatalogResult, error) {
	schema, err := catalog.LoadCatalog(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading catalog file: %w", err)
	}
	return s.ImportCatalogFromSchema(ctx, schema)
}

// ImportCatalogFromSchema validates the whole catalog first and then inserts
// every crop in one transaction; a single duplicate aborts the import.
func (s *cropService) ImportCatalogFromSchema(ctx context.Context, schema *catalog.CatalogSchema) (result *app.ImportCatalogResult, err error) {
	fields := map[string]any{"crops": len(schema.Crops)}
	defer observe(ctx, s.observer, "import-catalog", time.Now().UTC(), fields, &err)

	if errs := catalog.ValidateCatalog(schema); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}
	crops := catalog.Convert(schema)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txCrops := repository.NewSQLiteCropRepo(tx)
		for _, c := range crops {
			if err := txCrops.Create(ctx, c); err != nil {
				return fmt.Errorf("creating crop %q: %w", c.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &app.ImportCatalogResult{Crops: crops}, nil
}
