package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alexanderramin/fallow/internal/app"
	"github.com/alexanderramin/fallow/internal/db"
	"github.com/alexanderramin/fallow/internal/domain"
	"github.com/alexanderramin/fallow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) generateNorth(t *testing.T) *app.RotationPlanResponse {
	t.Helper()
	resp, err := f.rotations.Generate(context.Background(), app.GenerateRotationRequest{
		RotationName:      "North Field",
		FieldSize:         100,
		NumberOfDivisions: 4,
		CropIDs:           []string{f.wheat.ID, f.corn.ID},
		MaxYears:          3,
	})
	require.NoError(t, err)
	return resp
}

func TestGenerate_PersistsActivePlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp := f.generateNorth(t)

	assert.NotEmpty(t, resp.Rotation.ID)
	assert.Equal(t, domain.RotationActive, resp.Rotation.Status)
	assert.Equal(t, "test-farm", resp.Rotation.Owner, "owner defaults from settings")
	assert.Equal(t, 1, resp.Rotation.Version)
	require.Len(t, resp.Entries, 12)
	assert.Equal(t, "Wheat", resp.Entry(1, 1).CropName)
	assert.Equal(t, -140.0, resp.Entry(1, 1).NitrogenBalance)
	assert.Equal(t, "Corn", resp.Entry(1, 2).CropName)
	assert.Len(t, resp.Warnings, 2, "divisions 1 and 3 relax the no-repeat window in year 3")
	assert.Contains(t, resp.Warnings[0], "reused Wheat")

	stored, err := f.rotations.GetPlan(ctx, resp.Rotation.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Entries, stored.Entries)
	assert.True(t, stored.Entry(3, 1).Relaxed)

	ev := f.observer.last()
	assert.Equal(t, "generate-rotation", ev.Name)
	assert.True(t, ev.Success)
	assert.Equal(t, 12, ev.Fields["entries"])
	assert.Equal(t, 2, ev.Fields["relaxed_slots"])
	assert.Equal(t, 2, ev.Fields["no_repeat_violations"], "every relaxed slot breaks its window")
	assert.Equal(t, 12, ev.Fields["deficit_slots"], "wheat and corn both consume more than they fix")
}

func TestGenerate_DefaultsAndLimits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	residual := 60.0
	resp, err := f.rotations.Generate(ctx, app.GenerateRotationRequest{
		RotationName:           "Default Horizon",
		FieldSize:              10,
		NumberOfDivisions:      1,
		CropIDs:                []string{f.clover.ID},
		ResidualNitrogenSupply: &residual,
		Owner:                  "east-farm",
	})
	require.NoError(t, err)
	assert.Equal(t, testSettings.MaxYears, resp.Rotation.MaxYears)
	assert.Equal(t, "east-farm", resp.Rotation.Owner)
	assert.Equal(t, 190.0, resp.Entry(1, 1).NitrogenBalance, "60 + 150 - 20")

	_, err = f.rotations.Generate(ctx, app.GenerateRotationRequest{
		RotationName:      "Too Long",
		FieldSize:         10,
		NumberOfDivisions: 1,
		CropIDs:           []string{f.clover.ID},
		MaxYears:          testSettings.MaxYears + 1,
	})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "maxYears", ve.Field)
}

func TestGenerate_ValidationErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		req       app.GenerateRotationRequest
		wantField string
	}{
		{"no crops", app.GenerateRotationRequest{RotationName: "A", FieldSize: 10, NumberOfDivisions: 1, MaxYears: 1}, "crops"},
		{"zero field", app.GenerateRotationRequest{RotationName: "A", FieldSize: 0, NumberOfDivisions: 1, MaxYears: 1, CropIDs: []string{f.wheat.ID}}, "fieldSize"},
		{"zero divisions", app.GenerateRotationRequest{RotationName: "A", FieldSize: 10, NumberOfDivisions: 0, MaxYears: 1, CropIDs: []string{f.wheat.ID}}, "numberOfDivisions"},
		{"blank name", app.GenerateRotationRequest{RotationName: "  ", FieldSize: 10, NumberOfDivisions: 1, MaxYears: 1, CropIDs: []string{f.wheat.ID}}, "rotationName"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.rotations.Generate(ctx, tt.req)
			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}

	_, err := f.rotations.Generate(ctx, app.GenerateRotationRequest{
		RotationName: "Ghost", FieldSize: 10, NumberOfDivisions: 1, MaxYears: 1, CropIDs: []string{"missing"},
	})
	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf))

	rotations, err := f.rotations.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, rotations, "failed generations persist nothing")
	assert.False(t, f.observer.last().Success)
}

func TestGenerate_DuplicateNameRejected(t *testing.T) {
	f := newFixture(t)
	f.generateNorth(t)

	_, err := f.rotations.Generate(context.Background(), app.GenerateRotationRequest{
		RotationName: "north field", FieldSize: 10, NumberOfDivisions: 1, MaxYears: 1, CropIDs: []string{f.wheat.ID},
	})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Equal(t, "rotationName", ve.Field)
}

func TestUpdateNitrogenBalance_RecomputesForward(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.generateNorth(t)

	resp, err := f.rotations.UpdateNitrogenBalance(ctx, app.UpdateNitrogenBalanceRequest{
		RotationID: plan.Rotation.ID, Year: 1, Division: 1, Balance: 100,
	})
	require.NoError(t, err)

	assert.Equal(t, 100.0, resp.Entry(1, 1).NitrogenBalance)
	assert.Equal(t, -70.0, resp.Entry(2, 1).NitrogenBalance, "100 + 30 - 200")
	assert.Equal(t, -210.0, resp.Entry(3, 1).NitrogenBalance, "-70 + 40 - 180")
	assert.Equal(t, plan.Entry(1, 2).NitrogenBalance, resp.Entry(1, 2).NitrogenBalance, "other divisions untouched")
	assert.Equal(t, 2, resp.Rotation.Version)

	stored, err := f.rotations.GetPlan(ctx, plan.Rotation.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Entries, stored.Entries)
}

func TestUpdateNitrogenBalance_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.generateNorth(t)
	req := app.UpdateNitrogenBalanceRequest{RotationID: plan.Rotation.ID, Year: 2, Division: 3, Balance: -5}

	first, err := f.rotations.UpdateNitrogenBalance(ctx, req)
	require.NoError(t, err)
	second, err := f.rotations.UpdateNitrogenBalance(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.Entries, second.Entries)
}

func TestUpdateNitrogenBalance_UnknownEntry(t *testing.T) {
	f := newFixture(t)
	plan := f.generateNorth(t)

	_, err := f.rotations.UpdateNitrogenBalance(context.Background(), app.UpdateNitrogenBalanceRequest{
		RotationID: plan.Rotation.ID, Year: 9, Division: 1, Balance: 1,
	})
	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, "plan entry", nf.Entity)
}

func TestUpdateNitrogenBalance_StaleVersionConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.generateNorth(t)

	_, err := f.rotations.UpdateNitrogenBalance(ctx, app.UpdateNitrogenBalanceRequest{
		RotationID: plan.Rotation.ID, ExpectedVersion: 1, Year: 1, Division: 1, Balance: 10,
	})
	require.NoError(t, err)

	_, err = f.rotations.UpdateNitrogenBalance(ctx, app.UpdateNitrogenBalanceRequest{
		RotationID: plan.Rotation.ID, ExpectedVersion: 1, Year: 1, Division: 1, Balance: 20,
	})
	var ce *domain.ConflictError
	require.True(t, errors.As(err, &ce), "got %v", err)

	stored, err := f.rotations.GetPlan(ctx, plan.Rotation.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, stored.Entry(1, 1).NitrogenBalance)
}

func TestUpdateDivisionSize_ConservesFieldSize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.generateNorth(t)

	resp, err := f.rotations.UpdateDivisionSize(ctx, app.UpdateDivisionSizeRequest{
		RotationID: plan.Rotation.ID, Division: 2, NewSize: 40,
	})
	require.NoError(t, err)

	for _, yv := range resp.ByYear() {
		assert.InDelta(t, 100.0, yv.TotalSize, 1e-6)
		assert.Equal(t, 40.0, yv.Entries[1].DivisionSize)
		assert.InDelta(t, 20.0, yv.Entries[0].DivisionSize, 1e-9)
	}
	for i := range resp.Entries {
		assert.Equal(t, plan.Entries[i].NitrogenBalance, resp.Entries[i].NitrogenBalance)
	}

	_, err = f.rotations.UpdateDivisionSize(ctx, app.UpdateDivisionSizeRequest{
		RotationID: plan.Rotation.ID, Division: 2, NewSize: 100,
	})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "newDivisionSize", ve.Field)
}

func TestUpdateDivisionSize_SingleDivisionRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan, err := f.rotations.Generate(ctx, app.GenerateRotationRequest{
		RotationName:      "Single Plot",
		FieldSize:         10,
		NumberOfDivisions: 1,
		CropIDs:           []string{f.clover.ID},
		MaxYears:          2,
	})
	require.NoError(t, err)

	_, err = f.rotations.UpdateDivisionSize(ctx, app.UpdateDivisionSizeRequest{
		RotationID: plan.Rotation.ID, Division: 1, NewSize: 4,
	})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Equal(t, "newDivisionSize", ve.Field)

	stored, err := f.rotations.GetPlan(ctx, plan.Rotation.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, stored.ByYear()[0].TotalSize)
	assert.Equal(t, 1, stored.Rotation.Version)
}

func TestReassignCrop_WarnsInsideNoRepeatWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.generateNorth(t)

	resp, err := f.rotations.ReassignCrop(ctx, app.ReassignCropRequest{
		RotationID: plan.Rotation.ID, Year: 2, Division: 1, CropID: f.wheat.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, "Wheat", resp.Entry(2, 1).CropName)
	assert.Equal(t, -280.0, resp.Entry(2, 1).NitrogenBalance)
	assert.Equal(t, -420.0, resp.Entry(3, 1).NitrogenBalance)
	assert.NotEmpty(t, resp.Warnings)
	assert.True(t, resp.Entry(2, 1).Relaxed)
	assert.True(t, resp.Entry(3, 1).Relaxed)
	assert.Equal(t, 3, f.observer.last().Fields["relaxed_slots"], "two on division 1 plus division 3 year 3")

	clean, err := f.rotations.ReassignCrop(ctx, app.ReassignCropRequest{
		RotationID: plan.Rotation.ID, Year: 2, Division: 2, CropID: f.clover.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, clean.Warnings)
	assert.Equal(t, "Clover", clean.Entry(2, 2).CropName, "crop outside the original pool is loaded")
}

func TestScheduleEntry_SetsAndClearsDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.generateNorth(t)

	plant := time.Date(2027, 4, 1, 0, 0, 0, 0, time.UTC)
	harvest := time.Date(2027, 8, 15, 0, 0, 0, 0, time.UTC)
	resp, err := f.rotations.ScheduleEntry(ctx, app.ScheduleEntryRequest{
		RotationID: plan.Rotation.ID, Year: 1, Division: 4, PlantingDate: &plant, HarvestingDate: &harvest,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Entry(1, 4).PlantingDate)
	assert.True(t, plant.Equal(*resp.Entry(1, 4).PlantingDate))

	stored, err := f.rotations.GetPlan(ctx, plan.Rotation.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Entry(1, 4).HarvestingDate)
	assert.True(t, harvest.Equal(*stored.Entry(1, 4).HarvestingDate))

	_, err = f.rotations.ScheduleEntry(ctx, app.ScheduleEntryRequest{
		RotationID: plan.Rotation.ID, Year: 1, Division: 4, PlantingDate: &harvest, HarvestingDate: &plant,
	})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "harvestingDate", ve.Field)
}

func TestArchive_BlocksEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.generateNorth(t)

	require.NoError(t, f.rotations.Archive(ctx, plan.Rotation.ID))
	require.NoError(t, f.rotations.Archive(ctx, plan.Rotation.ID), "archiving twice is a no-op")

	rot, err := f.rotations.GetByID(ctx, plan.Rotation.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RotationArchived, rot.Status)
	assert.NotNil(t, rot.ArchivedAt)

	_, err = f.rotations.UpdateNitrogenBalance(ctx, app.UpdateNitrogenBalanceRequest{
		RotationID: plan.Rotation.ID, Year: 1, Division: 1, Balance: 1,
	})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "status", ve.Field)

	active, err := f.rotations.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestDelete_CascadesEntriesAndFreesCrops(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.generateNorth(t)

	err := f.crops.Delete(ctx, f.wheat.ID)
	require.Error(t, err, "crop in use cannot be deleted")

	require.NoError(t, f.rotations.Delete(ctx, plan.Rotation.ID))

	_, err = f.rotations.GetPlan(ctx, plan.Rotation.ID)
	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf))

	var n int
	require.NoError(t, f.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM plan_entries`).Scan(&n))
	assert.Zero(t, n)
	assert.NoError(t, f.crops.Delete(ctx, f.wheat.ID))
}

func TestGenerate_RollbackOnEntryInsertFailure(t *testing.T) {
	// Exec #1 inserts the rotation, #2 onward insert entries.
	f := newFixtureWithUoW(t, func(database *sql.DB) db.UnitOfWork {
		return &testutil.FailOnNthExecUoW{DB: database, FailOn: 3, Err: fmt.Errorf("injected entry insert failure")}
	})
	ctx := context.Background()

	_, err := f.rotations.Generate(ctx, app.GenerateRotationRequest{
		RotationName: "Doomed", FieldSize: 100, NumberOfDivisions: 4, MaxYears: 3,
		CropIDs: []string{f.wheat.ID, f.corn.ID},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected entry insert failure")

	_, err = f.rotations.GetByName(ctx, "Doomed")
	var nf *domain.NotFoundError
	assert.True(t, errors.As(err, &nf), "rotation row must be rolled back")
}

func TestUpdateNitrogenBalance_RollbackOnEntryUpdateFailure(t *testing.T) {
	// Seed through a working unit of work, then edit through a failing one.
	f := newFixture(t)
	plan := f.generateNorth(t)
	ctx := context.Background()

	// Exec #1 bumps the rotation version, #2 onward update entries.
	failUoW := &testutil.FailOnNthExecUoW{DB: f.db, FailOn: 2, Err: fmt.Errorf("injected entry update failure")}
	svc := NewRotationService(f.rotRepo, f.cropRepo, failUoW, testSettings)

	_, err := svc.UpdateNitrogenBalance(ctx, app.UpdateNitrogenBalanceRequest{
		RotationID: plan.Rotation.ID, Year: 1, Division: 1, Balance: 500,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected entry update failure")

	stored, err := f.rotations.GetPlan(ctx, plan.Rotation.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Rotation.Version, "version bump rolled back")
	assert.Equal(t, -140.0, stored.Entry(1, 1).NitrogenBalance)
}
