package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/fallow/internal/app"
	"github.com/alexanderramin/fallow/internal/db"
	"github.com/alexanderramin/fallow/internal/domain"
	"github.com/alexanderramin/fallow/internal/repository"
	"github.com/alexanderramin/fallow/internal/rotation"
	"github.com/google/uuid"
)

type rotationService struct {
	rotations repository.RotationRepo
	crops     repository.CropRepo
	uow       db.UnitOfWork
	settings  RotationSettings
	observer  UseCaseObserver
}

func NewRotationService(
	rotations repository.RotationRepo,
	crops repository.CropRepo,
	uow db.UnitOfWork,
	settings RotationSettings,
	observers ...UseCaseObserver,
) RotationService {
	if settings.Tolerance <= 0 {
		settings.Tolerance = domain.DefaultTolerance
	}
	return &rotationService{
		rotations: rotations,
		crops:     crops,
		uow:       uow,
		settings:  settings,
		observer:  useCaseObserverOrNoop(observers),
	}
}

func (s *rotationService) GetByID(ctx context.Context, id string) (*domain.Rotation, error) {
	return s.rotations.GetByID(ctx, id)
}

func (s *rotationService) GetByName(ctx context.Context, name string) (*domain.Rotation, error) {
	return s.rotations.GetByName(ctx, strings.TrimSpace(name))
}

func (s *rotationService) List(ctx context.Context, includeArchived bool) ([]*domain.Rotation, error) {
	return s.rotations.List(ctx, includeArchived)
}

func (s *rotationService) GetPlan(ctx context.Context, rotationID string) (*app.RotationPlanResponse, error) {
	plan, err := s.rotations.GetPlan(ctx, rotationID)
	if err != nil {
		return nil, err
	}
	crops, err := s.crops.ListByIDs(ctx, planCropIDs(plan))
	if err != nil {
		return nil, fmt.Errorf("loading plan crops: %w", err)
	}
	return app.NewRotationPlanResponse(plan, domain.IndexCrops(crops), nil), nil
}

func (s *rotationService) Generate(ctx context.Context, req app.GenerateRotationRequest) (resp *app.RotationPlanResponse, err error) {
	fields := map[string]any{"rotation": req.RotationName}
	defer observe(ctx, s.observer, "generate-rotation", time.Now().UTC(), fields, &err)

	maxYears := req.MaxYears
	if maxYears == 0 {
		maxYears = s.settings.MaxYears
	}
	if s.settings.MaxYears > 0 && maxYears > s.settings.MaxYears {
		return nil, domain.NewValidationError("maxYears", "%d exceeds the configured horizon of %d years", maxYears, s.settings.MaxYears)
	}
	if len(req.CropIDs) == 0 {
		return nil, domain.NewValidationError("crops", "at least one crop is required")
	}

	crops, err := s.crops.ListByIDs(ctx, req.CropIDs)
	if err != nil {
		return nil, err
	}

	result, err := rotation.Generate(rotation.GenerateInput{
		RotationName:           strings.TrimSpace(req.RotationName),
		FieldSize:              req.FieldSize,
		NumberOfDivisions:      req.NumberOfDivisions,
		Crops:                  crops,
		MaxYears:               maxYears,
		ResidualNitrogenSupply: domain.ValueOr(s.settings.DefaultResidualN, req.ResidualNitrogenSupply),
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	plan := result.Plan
	plan.Rotation.ID = uuid.New().String()
	plan.Rotation.Owner = domain.Coalesce(strings.TrimSpace(req.Owner), s.settings.DefaultOwner)
	plan.Rotation.Version = 1
	plan.Rotation.CreatedAt = now
	plan.Rotation.UpdatedAt = now
	if err = plan.Rotation.Activate(now); err != nil {
		return nil, err
	}
	if err = plan.Validate(s.settings.Tolerance); err != nil {
		return nil, fmt.Errorf("generated plan is inconsistent: %w", err)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteRotationRepo(tx).CreatePlan(ctx, plan)
	})
	if err != nil {
		return nil, err
	}

	idx := domain.IndexCrops(crops)
	fields["entries"] = len(plan.Entries)
	fields["relaxed_slots"] = len(result.Relaxations)
	fields["no_repeat_violations"] = len(rotation.CheckNoRepeat(plan, idx))
	fields["deficit_slots"] = len(rotation.Deficits(plan))
	return app.NewRotationPlanResponse(plan, idx, relaxationWarnings(result.Relaxations, idx)), nil
}

func (s *rotationService) UpdateNitrogenBalance(ctx context.Context, req app.UpdateNitrogenBalanceRequest) (resp *app.RotationPlanResponse, err error) {
	fields := map[string]any{"rotation": req.RotationID, "year": req.Year, "division": req.Division}
	defer observe(ctx, s.observer, "update-nitrogen-balance", time.Now().UTC(), fields, &err)

	return s.editPlan(ctx, req.RotationID, req.ExpectedVersion, nil,
		func(plan *domain.Plan, crops domain.CropIndex) (*domain.Plan, []string, error) {
			next, err := rotation.OverrideNitrogenBalance(plan, crops, req.Year, req.Division, req.Balance)
			return next, nil, err
		})
}

func (s *rotationService) UpdateDivisionSize(ctx context.Context, req app.UpdateDivisionSizeRequest) (resp *app.RotationPlanResponse, err error) {
	fields := map[string]any{"rotation": req.RotationID, "division": req.Division}
	defer observe(ctx, s.observer, "update-division-size", time.Now().UTC(), fields, &err)

	return s.editPlan(ctx, req.RotationID, req.ExpectedVersion, nil,
		func(plan *domain.Plan, _ domain.CropIndex) (*domain.Plan, []string, error) {
			next, err := rotation.ResizeDivision(plan, req.Division, req.NewSize)
			return next, nil, err
		})
}

func (s *rotationService) ReassignCrop(ctx context.Context, req app.ReassignCropRequest) (resp *app.RotationPlanResponse, err error) {
	fields := map[string]any{"rotation": req.RotationID, "year": req.Year, "division": req.Division}
	defer observe(ctx, s.observer, "reassign-crop", time.Now().UTC(), fields, &err)

	return s.editPlan(ctx, req.RotationID, req.ExpectedVersion, []string{req.CropID},
		func(plan *domain.Plan, crops domain.CropIndex) (*domain.Plan, []string, error) {
			res, err := rotation.ReassignCrop(plan, crops, req.Year, req.Division, req.CropID)
			if err != nil {
				return nil, nil, err
			}
			fields["warnings"] = len(res.Warnings)
			fields["relaxed_slots"] = relaxedCount(res.Plan)
			return res.Plan, res.Warnings, nil
		})
}

func (s *rotationService) ScheduleEntry(ctx context.Context, req app.ScheduleEntryRequest) (resp *app.RotationPlanResponse, err error) {
	fields := map[string]any{"rotation": req.RotationID, "year": req.Year, "division": req.Division}
	defer observe(ctx, s.observer, "schedule-entry", time.Now().UTC(), fields, &err)

	return s.editPlan(ctx, req.RotationID, req.ExpectedVersion, nil,
		func(plan *domain.Plan, _ domain.CropIndex) (*domain.Plan, []string, error) {
			next, err := rotation.ScheduleEntry(plan, req.Year, req.Division, req.PlantingDate, req.HarvestingDate)
			return next, nil, err
		})
}

func (s *rotationService) Archive(ctx context.Context, id string) (err error) {
	defer observe(ctx, s.observer, "archive-rotation", time.Now().UTC(), map[string]any{"rotation": id}, &err)

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txRotations := repository.NewSQLiteRotationRepo(tx)
		rot, err := txRotations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if rot.Status == domain.RotationArchived {
			return nil
		}
		if err := rot.Archive(time.Now().UTC()); err != nil {
			return err
		}
		return txRotations.UpdateRotation(ctx, rot)
	})
}

func (s *rotationService) Delete(ctx context.Context, id string) (err error) {
	defer observe(ctx, s.observer, "delete-rotation", time.Now().UTC(), map[string]any{"rotation": id}, &err)
	return s.rotations.Delete(ctx, id)
}

type planEdit func(plan *domain.Plan, crops domain.CropIndex) (*domain.Plan, []string, error)

// editPlan runs one read, compute, persist cycle inside a transaction.
// expectedVersion of 0 skips the caller-side version check; the store still
// rejects a write whose version moved underneath it.
func (s *rotationService) editPlan(ctx context.Context, rotationID string, expectedVersion int, extraCropIDs []string, edit planEdit) (*app.RotationPlanResponse, error) {
	var resp *app.RotationPlanResponse
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txRotations := repository.NewSQLiteRotationRepo(tx)
		txCrops := repository.NewSQLiteCropRepo(tx)

		plan, err := txRotations.GetPlan(ctx, rotationID)
		if err != nil {
			return err
		}
		if expectedVersion != 0 && plan.Rotation.Version != expectedVersion {
			return &domain.ConflictError{Entity: "rotation", Key: plan.Rotation.Name}
		}
		crops, err := txCrops.ListByIDs(ctx, planCropIDs(plan, extraCropIDs...))
		if err != nil {
			return err
		}
		idx := domain.IndexCrops(crops)

		next, warnings, err := edit(plan, idx)
		if err != nil {
			return err
		}
		next.Rotation.UpdatedAt = time.Now().UTC()
		if err := next.Validate(s.settings.Tolerance); err != nil {
			return fmt.Errorf("edited plan is inconsistent: %w", err)
		}
		if err := txRotations.SavePlan(ctx, next); err != nil {
			return err
		}
		resp = app.NewRotationPlanResponse(next, idx, warnings)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func relaxationWarnings(relaxations []rotation.Relaxation, crops domain.CropIndex) []string {
	if len(relaxations) == 0 {
		return nil
	}
	out := make([]string, 0, len(relaxations))
	for _, r := range relaxations {
		name := r.CropID
		if c, ok := crops[r.CropID]; ok {
			name = c.Name
		}
		out = append(out, fmt.Sprintf("year %d division %d: every crop was inside its no-repeat window, reused %s", r.Year, r.Division, name))
	}
	return out
}
