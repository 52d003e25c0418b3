package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/alexanderramin/fallow/internal/catalog"
	"github.com/alexanderramin/fallow/internal/cli/formatter"
	"github.com/alexanderramin/fallow/internal/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newCropCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crop",
		Short: "Manage the crop catalog",
	}

	cmd.AddCommand(
		newCropAddCmd(app),
		newCropListCmd(app),
		newCropShowCmd(app),
		newCropUpdateCmd(app),
		newCropRemoveCmd(app),
		newCropImportCmd(app),
		newCropExportCmd(app),
	)

	return cmd
}

func newCropAddCmd(app *App) *cobra.Command {
	var flags cropFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a crop to the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &domain.Crop{}
			flags.apply(cmd.Flags(), c, true)
			if err := app.Crops.Create(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added crop %s (%s)\n", c.Name, c.ID)
			return nil
		},
	}

	flags.bind(cmd.Flags(), catalog.DefaultNoRepeatYears)
	for _, name := range []string{"name", "supply", "demand"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newCropListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog crops",
		RunE: func(cmd *cobra.Command, args []string) error {
			crops, err := app.Crops.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(crops) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No crops found.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCropList(crops))
			return nil
		},
	}
}

func newCropShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show CROP",
		Short: "Show crop details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveCropID(ctx, app, args[0])
			if err != nil {
				return err
			}
			c, err := app.Crops.GetByID(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCropDetail(c))
			return nil
		},
	}
}

func newCropUpdateCmd(app *App) *cobra.Command {
	var flags cropFlags

	cmd := &cobra.Command{
		Use:   "update CROP",
		Short: "Update a catalog crop; only the given flags change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveCropID(ctx, app, args[0])
			if err != nil {
				return err
			}
			c, err := app.Crops.GetByID(ctx, id)
			if err != nil {
				return err
			}
			flags.apply(cmd.Flags(), c, false)
			if err := app.Crops.Update(ctx, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated crop %s\n", c.Name)
			return nil
		},
	}

	flags.bind(cmd.Flags(), 0)

	return cmd
}

func newCropRemoveCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove CROP",
		Short: "Remove a crop that no rotation uses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveCropID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if !yes && app.interactive() && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Remove crop %s?", args[0])) {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
			if err := app.Crops.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed crop %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func newCropImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import crops from a YAML or JSON catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.ImportCatalog.ImportCatalog(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			names := make([]string, len(result.Crops))
			for i, c := range result.Crops {
				names[i] = c.Name
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d crops: %s\n", len(result.Crops), strings.Join(names, ", "))
			return nil
		},
	}
}

func newCropExportCmd(app *App) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the crop catalog as YAML or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := domain.CatalogFormat(strings.ToLower(format))
			if output != "" && !cmd.Flags().Changed("format") {
				detected, err := catalog.DetectFormat(output)
				if err != nil {
					return err
				}
				f = detected
			}

			data, err := app.Crops.ExportCatalog(cmd.Context(), f)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("writing catalog: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported catalog to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(domain.FormatYAML), "Output format: yaml or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout (format from extension)")

	return cmd
}

// cropFlags are the crop attribute flags shared by add and update.
type cropFlags struct {
	name     string
	supply   float64
	demand   float64
	noRepeat int
	pests    []string
	diseases []string
}

func (f *cropFlags) bind(fs *pflag.FlagSet, noRepeatDefault int) {
	fs.StringVar(&f.name, "name", "", "Crop name")
	fs.Float64Var(&f.supply, "supply", 0, "Nitrogen supplied per season (kg/ha)")
	fs.Float64Var(&f.demand, "demand", 0, "Nitrogen demanded per season (kg/ha)")
	fs.IntVar(&f.noRepeat, "no-repeat", noRepeatDefault, "Years before the crop may return to the same division")
	fs.StringSliceVar(&f.pests, "pest", nil, "Associated pest (repeatable)")
	fs.StringSliceVar(&f.diseases, "disease", nil, "Associated disease (repeatable)")
}

// apply copies flag values onto c. Unless all is set, only flags the user
// passed are copied.
func (f *cropFlags) apply(fs *pflag.FlagSet, c *domain.Crop, all bool) {
	set := func(name string) bool { return all || fs.Changed(name) }
	if set("name") {
		c.Name = f.name
	}
	if set("supply") {
		c.NitrogenSupply = f.supply
	}
	if set("demand") {
		c.NitrogenDemand = f.demand
	}
	if set("no-repeat") {
		c.NoRepeatYears = f.noRepeat
	}
	if set("pest") {
		c.Pests = f.pests
	}
	if set("disease") {
		c.Diseases = f.diseases
	}
}
