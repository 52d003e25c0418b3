package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/fallow/internal/domain"
)

// FormatCropList renders the crop catalog as a table.
func FormatCropList(crops []*domain.Crop) string {
	headers := []string{"ID", "NAME", "N SUPPLY", "N DEMAND", "NET", "NO-REPEAT"}
	rows := make([][]string, 0, len(crops))
	for _, c := range crops {
		net := c.NetNitrogen()
		rows = append(rows, []string{
			TruncID(c.ID),
			Bold(c.Name),
			fmt.Sprintf("%.1f", c.NitrogenSupply),
			fmt.Sprintf("%.1f", c.NitrogenDemand),
			BalanceStyle(net).Render(FormatKg(net)),
			strconv.Itoa(c.NoRepeatYears) + "y",
		})
	}
	return RenderTableAligned(headers, rows, []bool{false, false, true, true, true, true})
}

// FormatCropDetail renders a single crop with its pests and diseases.
func FormatCropDetail(c *domain.Crop) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Dim("ID        "), c.ID)
	fmt.Fprintf(&b, "%s  %.1f kg/ha\n", Dim("N supply  "), c.NitrogenSupply)
	fmt.Fprintf(&b, "%s  %.1f kg/ha\n", Dim("N demand  "), c.NitrogenDemand)
	fmt.Fprintf(&b, "%s  %s kg/ha per season\n", Dim("Net       "), BalanceStyle(c.NetNitrogen()).Render(FormatKg(c.NetNitrogen())))
	fmt.Fprintf(&b, "%s  %d years\n", Dim("No-repeat "), c.NoRepeatYears)
	fmt.Fprintf(&b, "%s  %s\n", Dim("Pests     "), LabelList(c.Pests))
	fmt.Fprintf(&b, "%s  %s", Dim("Diseases  "), LabelList(c.Diseases))
	return RenderBox(c.Name, b.String()) + "\n"
}
