package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexanderramin/fallow/internal/cli"
	"github.com/alexanderramin/fallow/internal/config"
	"github.com/alexanderramin/fallow/internal/db"
	"github.com/alexanderramin/fallow/internal/repository"
	"github.com/alexanderramin/fallow/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}
	cfg := config.LoadConfig()

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	cropRepo := repository.NewSQLiteCropRepo(database)
	rotationRepo := repository.NewSQLiteRotationRepo(database)
	uow := db.NewSQLiteUnitOfWork(database)

	var observers []service.UseCaseObserver
	if cfg.LogUseCases {
		observers = append(observers, service.NewLogUseCaseObserver(os.Stderr, cfg.LogLevel))
	}

	cropSvc := service.NewCropService(cropRepo, uow, observers...)
	rotationSvc := service.NewRotationService(rotationRepo, cropRepo, uow, service.RotationSettings{
		MaxYears:         cfg.MaxYears,
		DefaultResidualN: cfg.DefaultResidualN,
		DefaultOwner:     cfg.DefaultOwner,
		Tolerance:        cfg.Tolerance,
	}, observers...)

	app := &cli.App{
		Crops:     cropSvc,
		Rotations: rotationSvc,

		GenerateRotation: rotationSvc,
		EditRotation:     rotationSvc,
		ImportCatalog:    cropSvc,
	}

	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
