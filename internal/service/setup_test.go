package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/alexanderramin/fallow/internal/db"
	"github.com/alexanderramin/fallow/internal/domain"
	"github.com/alexanderramin/fallow/internal/repository"
	"github.com/alexanderramin/fallow/internal/testutil"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) last() UseCaseEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events[len(o.events)-1]
}

var testSettings = RotationSettings{MaxYears: 10, Tolerance: domain.DefaultTolerance, DefaultOwner: "test-farm"}

type fixture struct {
	db        *sql.DB
	cropRepo  *repository.SQLiteCropRepo
	rotRepo   *repository.SQLiteRotationRepo
	crops     CropService
	rotations RotationService
	observer  *recordingObserver
	wheat     *domain.Crop
	corn      *domain.Crop
	clover    *domain.Crop
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithUoW(t, nil)
}

// newFixtureWithUoW wires the services over uow, or over a real unit of work
// when uow is nil.
func newFixtureWithUoW(t *testing.T, uowFor func(*sql.DB) db.UnitOfWork) *fixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	if uowFor != nil {
		uow = uowFor(database)
	}
	f := &fixture{
		db:       database,
		cropRepo: repository.NewSQLiteCropRepo(database),
		rotRepo:  repository.NewSQLiteRotationRepo(database),
		observer: &recordingObserver{},
		wheat:    testutil.Wheat(),
		corn:     testutil.Corn(),
		clover:   testutil.Clover(),
	}
	f.crops = NewCropService(f.cropRepo, uow, f.observer)
	f.rotations = NewRotationService(f.rotRepo, f.cropRepo, uow, testSettings, f.observer)

	testutil.SeedCrops(t, f.cropRepo, f.wheat, f.corn, f.clover)
	return f
}
