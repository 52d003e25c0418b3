package app

import (
	"math"
	"sort"
	"time"

	"github.com/alexanderramin/fallow/internal/domain"
	"github.com/alexanderramin/fallow/internal/rotation"
)

// GenerateRotationRequest asks the planner for a new rotation. Crops are
// referenced by catalog ID in the order the planner should prefer them.
type GenerateRotationRequest struct {
	RotationName           string
	FieldSize              float64
	NumberOfDivisions      int
	CropIDs                []string
	// MaxYears of 0 means the configured horizon.
	MaxYears               int
	// ResidualNitrogenSupply of nil means the configured default.
	ResidualNitrogenSupply *float64
	Owner                  string
}

type UpdateNitrogenBalanceRequest struct {
	RotationID      string
	ExpectedVersion int
	Year            int
	Division        int
	Balance         float64
}

type UpdateDivisionSizeRequest struct {
	RotationID      string
	ExpectedVersion int
	Division        int
	NewSize         float64
}

type ReassignCropRequest struct {
	RotationID      string
	ExpectedVersion int
	Year            int
	Division        int
	CropID          string
}

// ScheduleEntryRequest sets both dates of one entry. A nil date clears it.
type ScheduleEntryRequest struct {
	RotationID      string
	ExpectedVersion int
	Year            int
	Division        int
	PlantingDate    *time.Time
	HarvestingDate  *time.Time
}

type PlanEntryView struct {
	Year            int
	Division        int
	CropID          string
	CropName        string
	DivisionSize    float64
	NitrogenBalance float64
	Relaxed         bool
	PlantingDate    *time.Time
	HarvestingDate  *time.Time
}

// YearView groups one year's entries in division order.
type YearView struct {
	Year      int
	TotalSize float64
	Entries   []PlanEntryView
}

// DivisionSummary condenses a division's balance chain.
type DivisionSummary struct {
	Division      int
	FinalBalance  float64
	LowestBalance float64
	LowestYear    int
	DeficitYears  int
}

type RotationPlanResponse struct {
	Rotation  domain.Rotation
	Entries   []PlanEntryView
	Divisions []DivisionSummary
	Warnings  []string
}

// NewRotationPlanResponse maps a plan into its view. Crop names come from
// crops; an entry whose crop is missing from the index shows its ID.
func NewRotationPlanResponse(plan *domain.Plan, crops domain.CropIndex, warnings []string) *RotationPlanResponse {
	resp := &RotationPlanResponse{
		Rotation: plan.Rotation,
		Entries:  make([]PlanEntryView, 0, len(plan.Entries)),
		Warnings: warnings,
	}
	for _, e := range plan.Entries {
		name := e.CropID
		if c, ok := crops[e.CropID]; ok {
			name = c.Name
		}
		resp.Entries = append(resp.Entries, PlanEntryView{
			Year:            e.Year,
			Division:        e.Division,
			CropID:          e.CropID,
			CropName:        name,
			DivisionSize:    e.DivisionSize,
			NitrogenBalance: e.NitrogenBalance,
			Relaxed:         e.Relaxed,
			PlantingDate:    e.PlantingDate,
			HarvestingDate:  e.HarvestingDate,
		})
	}
	sort.SliceStable(resp.Entries, func(i, j int) bool {
		a, b := resp.Entries[i], resp.Entries[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Division < b.Division
	})
	resp.Divisions = summarizeDivisions(plan)
	return resp
}

// ByYear groups entries by year in ascending order.
func (r *RotationPlanResponse) ByYear() []YearView {
	var out []YearView
	for _, e := range r.Entries {
		if len(out) == 0 || out[len(out)-1].Year != e.Year {
			out = append(out, YearView{Year: e.Year})
		}
		yv := &out[len(out)-1]
		yv.Entries = append(yv.Entries, e)
		yv.TotalSize += e.DivisionSize
	}
	return out
}

// Entry returns the view for (year, division), or nil.
func (r *RotationPlanResponse) Entry(year, division int) *PlanEntryView {
	for i := range r.Entries {
		if r.Entries[i].Year == year && r.Entries[i].Division == division {
			return &r.Entries[i]
		}
	}
	return nil
}

func summarizeDivisions(plan *domain.Plan) []DivisionSummary {
	deficits := make(map[int]int)
	for _, d := range rotation.Deficits(plan) {
		deficits[d.Division]++
	}
	var out []DivisionSummary
	for d := 1; d <= plan.Rotation.NumberOfDivisions; d++ {
		series := rotation.BalanceSeries(plan, d)
		if len(series) == 0 {
			continue
		}
		idx := plan.DivisionEntries(d)
		s := DivisionSummary{
			Division:      d,
			FinalBalance:  series[len(series)-1],
			LowestBalance: math.Inf(1),
			DeficitYears:  deficits[d],
		}
		for k, balance := range series {
			if balance < s.LowestBalance {
				s.LowestBalance = balance
				s.LowestYear = plan.Entries[idx[k]].Year
			}
		}
		out = append(out, s)
	}
	return out
}
