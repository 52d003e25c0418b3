package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/fallow/internal/app"
	"github.com/alexanderramin/fallow/internal/domain"
)

// RelaxedMarker flags entries where the no-repeat window was relaxed.
const RelaxedMarker = "⚠ relaxed"

// FormatRotationList renders stored rotations as a table.
func FormatRotationList(rotations []*domain.Rotation) string {
	headers := []string{"ID", "NAME", "FIELD", "DIVISIONS", "YEARS", "OWNER", "STATUS", "VERSION"}
	rows := make([][]string, 0, len(rotations))
	for _, r := range rotations {
		owner := r.Owner
		if owner == "" {
			owner = Dim("--")
		}
		rows = append(rows, []string{
			TruncID(r.ID),
			Bold(r.Name),
			FormatHa(r.FieldSize),
			strconv.Itoa(r.NumberOfDivisions),
			strconv.Itoa(r.MaxYears),
			owner,
			StatusIndicator(r.Status),
			"v" + strconv.Itoa(r.Version),
		})
	}
	return RenderTableAligned(headers, rows, []bool{false, false, true, true, true})
}

// FormatPlan renders a rotation plan grouped by year, followed by the
// per-division nitrogen summary and any warnings.
func FormatPlan(resp *app.RotationPlanResponse) string {
	var b strings.Builder
	r := resp.Rotation

	b.WriteString(Header(r.Name))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s  %s  %s\n",
		StatusIndicator(r.Status),
		Dim(fmt.Sprintf("%s in %d divisions over %d years", FormatHa(r.FieldSize), r.NumberOfDivisions, r.MaxYears)),
		Dim(fmt.Sprintf("residual N %s, v%d", FormatKg(r.ResidualNitrogenSupply), r.Version)))

	for _, yv := range resp.ByYear() {
		b.WriteString("\n")
		b.WriteString(Bold(fmt.Sprintf("Year %d", yv.Year)))
		b.WriteString(Dim(fmt.Sprintf("  (%s)", FormatHa(yv.TotalSize))))
		b.WriteString("\n")
		b.WriteString(formatYear(yv))
	}

	if len(resp.Divisions) > 0 {
		b.WriteString("\n")
		b.WriteString(Header("Nitrogen by division"))
		b.WriteString("\n")
		b.WriteString(formatDivisionSummaries(resp.Divisions))
	}

	if w := FormatWarnings(resp.Warnings); w != "" {
		b.WriteString("\n")
		b.WriteString(w)
	}
	return b.String()
}

func formatYear(yv app.YearView) string {
	headers := []string{"DIV", "CROP", "SIZE", "N BALANCE", "PLANTING", "HARVEST", ""}
	rows := make([][]string, 0, len(yv.Entries))
	for _, e := range yv.Entries {
		flag := ""
		if e.Relaxed {
			flag = StyleYellow.Render(RelaxedMarker)
		}
		rows = append(rows, []string{
			strconv.Itoa(e.Division),
			e.CropName,
			FormatHa(e.DivisionSize),
			BalanceStyle(e.NitrogenBalance).Render(FormatKg(e.NitrogenBalance)),
			FormatDate(e.PlantingDate),
			FormatDate(e.HarvestingDate),
			flag,
		})
	}
	return RenderTableAligned(headers, rows, []bool{true, false, true, true})
}

func formatDivisionSummaries(divs []app.DivisionSummary) string {
	headers := []string{"DIV", "FINAL N", "LOWEST N", "DEFICIT YEARS"}
	rows := make([][]string, 0, len(divs))
	for _, d := range divs {
		deficit := Dim("0")
		if d.DeficitYears > 0 {
			deficit = StyleRed.Render(strconv.Itoa(d.DeficitYears))
		}
		rows = append(rows, []string{
			strconv.Itoa(d.Division),
			BalanceStyle(d.FinalBalance).Render(FormatKg(d.FinalBalance)),
			BalanceStyle(d.LowestBalance).Render(FormatKg(d.LowestBalance)) + Dim(fmt.Sprintf(" (year %d)", d.LowestYear)),
			deficit,
		})
	}
	return RenderTableAligned(headers, rows, []bool{true, true, true, true})
}

// FormatPlanMatrix renders the plan as a division by year grid of crop
// names, the compact view used to eyeball rotation spacing.
func FormatPlanMatrix(resp *app.RotationPlanResponse) string {
	years := resp.ByYear()
	headers := make([]string, 0, len(years)+1)
	headers = append(headers, "DIV")
	for _, yv := range years {
		headers = append(headers, "Y"+strconv.Itoa(yv.Year))
	}

	rows := make([][]string, resp.Rotation.NumberOfDivisions)
	for d := range rows {
		rows[d] = make([]string, len(headers))
		rows[d][0] = strconv.Itoa(d + 1)
	}
	for col, yv := range years {
		for _, e := range yv.Entries {
			if e.Division < 1 || e.Division > len(rows) {
				continue
			}
			cell := e.CropName
			if e.Relaxed {
				cell = StyleYellow.Render(cell + "*")
			}
			rows[e.Division-1][col+1] = cell
		}
	}
	return RenderTable(headers, rows)
}

// FormatWarnings renders advisory messages, or "" when there are none.
func FormatWarnings(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(StyleYellow.Render(fmt.Sprintf("%d warning(s):", len(warnings))))
	b.WriteString("\n")
	for _, w := range warnings {
		b.WriteString("  " + StyleYellow.Render("!") + " " + w + "\n")
	}
	return b.String()
}
