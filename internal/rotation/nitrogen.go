package rotation

import (
	"fmt"

	"github.com/alexanderramin/fallow/internal/domain"
)

// ComputeBalance applies one season of crop to the running nitrogen balance.
// Negative results are kept: they signal a deficit that needs fertilizer.
func ComputeBalance(previous float64, crop *domain.Crop) float64 {
	return previous + crop.NitrogenSupply - crop.NitrogenDemand
}

// RecomputeForward rewrites the balance of every entry on division with
// year >= fromYear. The chain starts from the fromYear-1 entry's balance, or
// from the rotation's residual supply when fromYear is 1.
func RecomputeForward(plan *domain.Plan, crops domain.CropIndex, division, fromYear int) error {
	prev := plan.Rotation.ResidualNitrogenSupply
	for _, i := range plan.DivisionEntries(division) {
		e := &plan.Entries[i]
		if e.Year < fromYear {
			prev = e.NitrogenBalance
			continue
		}
		crop, ok := crops[e.CropID]
		if !ok {
			return &domain.NotFoundError{Entity: "crop", Key: e.CropID}
		}
		e.NitrogenBalance = ComputeBalance(prev, crop)
		prev = e.NitrogenBalance
	}
	return nil
}

// BalanceSeries returns a division's balances in year order.
func BalanceSeries(plan *domain.Plan, division int) []float64 {
	idx := plan.DivisionEntries(division)
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = plan.Entries[i].NitrogenBalance
	}
	return out
}

// DeficitSlot is a (year, division) whose balance ended below zero.
type DeficitSlot struct {
	Year     int
	Division int
	Balance  float64
}

func (d DeficitSlot) String() string {
	return fmt.Sprintf("year %d division %d: %.1f kg/ha", d.Year, d.Division, d.Balance)
}

// Deficits lists every entry with a negative balance in plan order.
func Deficits(plan *domain.Plan) []DeficitSlot {
	var out []DeficitSlot
	for _, e := range plan.Entries {
		if e.NitrogenBalance < 0 {
			out = append(out, DeficitSlot{Year: e.Year, Division: e.Division, Balance: e.NitrogenBalance})
		}
	}
	return out
}
