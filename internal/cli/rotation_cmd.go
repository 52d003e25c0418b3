package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/fallow/internal/app"
	"github.com/alexanderramin/fallow/internal/cli/formatter"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func newRotationCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rotation",
		Aliases: []string{"rot"},
		Short:   "Generate and edit crop rotations",
	}

	cmd.AddCommand(
		newRotationGenerateCmd(a),
		newRotationListCmd(a),
		newRotationShowCmd(a),
		newRotationSetBalanceCmd(a),
		newRotationResizeCmd(a),
		newRotationReassignCmd(a),
		newRotationScheduleCmd(a),
		newRotationArchiveCmd(a),
		newRotationRemoveCmd(a),
	)

	return cmd
}

func newRotationGenerateCmd(a *App) *cobra.Command {
	var (
		name      string
		fieldSize float64
		divisions int
		crops     []string
		years     int
		residual  float64
		owner     string
		matrix    bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new rotation plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cropIDs, err := resolveCropIDs(ctx, a, crops)
			if err != nil {
				return err
			}

			req := app.GenerateRotationRequest{
				RotationName:      name,
				FieldSize:         fieldSize,
				NumberOfDivisions: divisions,
				CropIDs:           cropIDs,
				MaxYears:          years,
				Owner:             owner,
			}
			if cmd.Flags().Changed("residual") {
				req.ResidualNitrogenSupply = &residual
			}

			resp, err := a.GenerateRotation.Generate(ctx, req)
			if err != nil {
				return err
			}
			printPlan(cmd, resp, matrix)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Rotation name")
	cmd.Flags().Float64Var(&fieldSize, "field-size", 0, "Total field size (ha)")
	cmd.Flags().IntVar(&divisions, "divisions", 0, "Number of field divisions")
	cmd.Flags().StringSliceVar(&crops, "crops", nil, "Crop names or IDs in preference order")
	cmd.Flags().IntVar(&years, "years", 0, "Planning horizon in years (default from config)")
	cmd.Flags().Float64Var(&residual, "residual", 0, "Residual nitrogen in the soil before year 1 (kg/ha)")
	cmd.Flags().StringVar(&owner, "owner", "", "Owner of the rotation")
	cmd.Flags().BoolVar(&matrix, "matrix", false, "Print a compact year by division matrix")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("field-size")
	_ = cmd.MarkFlagRequired("divisions")
	_ = cmd.MarkFlagRequired("crops")

	return cmd
}

func newRotationListCmd(a *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rotations",
		RunE: func(cmd *cobra.Command, args []string) error {
			rotations, err := a.Rotations.List(cmd.Context(), all)
			if err != nil {
				return err
			}
			if len(rotations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No rotations found.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRotationList(rotations))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include archived rotations")

	return cmd
}

func newRotationShowCmd(a *App) *cobra.Command {
	var matrix bool

	cmd := &cobra.Command{
		Use:   "show ROTATION",
		Short: "Show a rotation plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveRotationID(ctx, a, args[0])
			if err != nil {
				return err
			}
			resp, err := a.Rotations.GetPlan(ctx, id)
			if err != nil {
				return err
			}
			printPlan(cmd, resp, matrix)
			return nil
		},
	}

	cmd.Flags().BoolVar(&matrix, "matrix", false, "Print a compact year by division matrix")

	return cmd
}

func newRotationSetBalanceCmd(a *App) *cobra.Command {
	var year, division, version int
	var balance float64

	cmd := &cobra.Command{
		Use:   "set-balance ROTATION",
		Short: "Override the nitrogen balance of one entry",
		Long: "Override the nitrogen balance of one entry. Later years of the same\n" +
			"division are recomputed from the new value.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveRotationID(ctx, a, args[0])
			if err != nil {
				return err
			}
			resp, err := a.EditRotation.UpdateNitrogenBalance(ctx, app.UpdateNitrogenBalanceRequest{
				RotationID:      id,
				ExpectedVersion: version,
				Year:            year,
				Division:        division,
				Balance:         balance,
			})
			if err != nil {
				return err
			}
			printPlan(cmd, resp, false)
			return nil
		},
	}

	addEntryFlags(cmd, &year, &division)
	cmd.Flags().Float64Var(&balance, "balance", 0, "New nitrogen balance (kg/ha)")
	addVersionFlag(cmd, &version)
	_ = cmd.MarkFlagRequired("balance")

	return cmd
}

func newRotationResizeCmd(a *App) *cobra.Command {
	var division, version int
	var size float64

	cmd := &cobra.Command{
		Use:   "resize ROTATION",
		Short: "Resize a division; the others absorb the difference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveRotationID(ctx, a, args[0])
			if err != nil {
				return err
			}
			resp, err := a.EditRotation.UpdateDivisionSize(ctx, app.UpdateDivisionSizeRequest{
				RotationID:      id,
				ExpectedVersion: version,
				Division:        division,
				NewSize:         size,
			})
			if err != nil {
				return err
			}
			printPlan(cmd, resp, false)
			return nil
		},
	}

	cmd.Flags().IntVar(&division, "division", 0, "Division number (1-based)")
	cmd.Flags().Float64Var(&size, "size", 0, "New division size (ha)")
	addVersionFlag(cmd, &version)
	_ = cmd.MarkFlagRequired("division")
	_ = cmd.MarkFlagRequired("size")

	return cmd
}

func newRotationReassignCmd(a *App) *cobra.Command {
	var year, division, version int
	var crop string

	cmd := &cobra.Command{
		Use:   "reassign ROTATION",
		Short: "Plant a different crop in one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveRotationID(ctx, a, args[0])
			if err != nil {
				return err
			}
			cropID, err := resolveCropID(ctx, a, crop)
			if err != nil {
				return err
			}
			resp, err := a.EditRotation.ReassignCrop(ctx, app.ReassignCropRequest{
				RotationID:      id,
				ExpectedVersion: version,
				Year:            year,
				Division:        division,
				CropID:          cropID,
			})
			if err != nil {
				return err
			}
			printPlan(cmd, resp, false)
			return nil
		},
	}

	addEntryFlags(cmd, &year, &division)
	cmd.Flags().StringVar(&crop, "crop", "", "Crop name or ID")
	addVersionFlag(cmd, &version)
	_ = cmd.MarkFlagRequired("crop")

	return cmd
}

func newRotationScheduleCmd(a *App) *cobra.Command {
	var year, division, version int
	var plant, harvest string

	cmd := &cobra.Command{
		Use:   "schedule ROTATION",
		Short: "Set planting and harvesting dates of one entry",
		Long: "Set planting and harvesting dates of one entry. Dates use YYYY-MM-DD;\n" +
			"an omitted or empty date is cleared.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveRotationID(ctx, a, args[0])
			if err != nil {
				return err
			}
			planting, err := parseOptionalDate("plant", plant)
			if err != nil {
				return err
			}
			harvesting, err := parseOptionalDate("harvest", harvest)
			if err != nil {
				return err
			}
			resp, err := a.EditRotation.ScheduleEntry(ctx, app.ScheduleEntryRequest{
				RotationID:      id,
				ExpectedVersion: version,
				Year:            year,
				Division:        division,
				PlantingDate:    planting,
				HarvestingDate:  harvesting,
			})
			if err != nil {
				return err
			}
			printPlan(cmd, resp, false)
			return nil
		},
	}

	addEntryFlags(cmd, &year, &division)
	cmd.Flags().StringVar(&plant, "plant", "", "Planting date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&harvest, "harvest", "", "Harvesting date (YYYY-MM-DD)")
	addVersionFlag(cmd, &version)

	return cmd
}

func newRotationArchiveCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "archive ROTATION",
		Short: "Archive a rotation; archived plans are read-only",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveRotationID(ctx, a, args[0])
			if err != nil {
				return err
			}
			if err := a.Rotations.Archive(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived rotation %s\n", args[0])
			return nil
		},
	}
}

func newRotationRemoveCmd(a *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove ROTATION",
		Short: "Delete a rotation and its plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveRotationID(ctx, a, args[0])
			if err != nil {
				return err
			}
			if !yes && a.interactive() && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete rotation %s and its plan?", args[0])) {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
			if err := a.Rotations.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed rotation %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func addEntryFlags(cmd *cobra.Command, year, division *int) {
	cmd.Flags().IntVar(year, "year", 0, "Plan year (1-based)")
	cmd.Flags().IntVar(division, "division", 0, "Division number (1-based)")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("division")
}

func addVersionFlag(cmd *cobra.Command, version *int) {
	cmd.Flags().IntVar(version, "expect-version", 0, "Fail unless the stored plan is at this version")
}

func parseOptionalDate(flag, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s date %q (expected YYYY-MM-DD)", flag, value)
	}
	return &t, nil
}

func printPlan(cmd *cobra.Command, resp *app.RotationPlanResponse, matrix bool) {
	out := cmd.OutOrStdout()
	if !matrix {
		fmt.Fprint(out, formatter.FormatPlan(resp))
		return
	}
	fmt.Fprint(out, formatter.FormatPlanMatrix(resp))
	fmt.Fprint(out, formatter.FormatWarnings(resp.Warnings))
}
