package cli

import (
	"github.com/alexanderramin/fallow/internal/app"
	"github.com/alexanderramin/fallow/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Crops     service.CropService
	Rotations service.RotationService

	GenerateRotation app.GenerateRotationUseCase
	EditRotation     app.EditRotationUseCase
	ImportCatalog    app.ImportCatalogUseCase

	// IsInteractive reports whether stdin is a terminal. Destructive
	// commands ask for confirmation only when it returns true.
	IsInteractive func() bool
}

// NewRootCmd creates the top-level "fallow" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "fallow",
		Short:         "Crop rotation planner and nitrogen balance tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newCropCmd(app),
		newRotationCmd(app),
	)

	return root
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}
