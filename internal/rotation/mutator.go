package rotation

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/alexanderramin/fallow/internal/domain"
)

// Mutators never modify their input plan. Each returns a new plan with the
// edit applied and every dependent value recomputed.

// OverrideNitrogenBalance pins the balance at (year, division) and carries it
// forward through the later years of that division. Other divisions are
// untouched.
func OverrideNitrogenBalance(plan *domain.Plan, crops domain.CropIndex, year, division int, balance float64) (*domain.Plan, error) {
	if err := plan.Rotation.RequireActive(); err != nil {
		return nil, err
	}
	if math.IsNaN(balance) || math.IsInf(balance, 0) {
		return nil, domain.NewValidationError("nitrogenBalance", "must be a finite number")
	}
	out := plan.Clone()
	e := out.Entry(year, division)
	if e == nil {
		return nil, entryNotFound(plan, year, division)
	}
	e.NitrogenBalance = balance
	if err := RecomputeForward(out, crops, division, year+1); err != nil {
		return nil, err
	}
	return out, nil
}

// ResizeDivision sets a division's size in every year and scales the other
// divisions proportionally so the field total is conserved. Balances are not
// area-weighted and stay as they are.
func ResizeDivision(plan *domain.Plan, division int, newSize float64) (*domain.Plan, error) {
	if err := plan.Rotation.RequireActive(); err != nil {
		return nil, err
	}
	fieldSize := plan.Rotation.FieldSize
	if math.IsNaN(newSize) || math.IsInf(newSize, 0) || newSize <= 0 {
		return nil, domain.NewValidationError("newDivisionSize", "must be > 0, got %g", newSize)
	}
	if newSize >= fieldSize {
		return nil, domain.NewValidationError("newDivisionSize", "must be < field size %g, got %g", fieldSize, newSize)
	}
	if division < 1 || division > plan.Rotation.NumberOfDivisions {
		return nil, &domain.NotFoundError{Entity: "division", Key: plan.Rotation.Name + "/" + strconv.Itoa(division)}
	}
	if plan.Rotation.NumberOfDivisions == 1 {
		return nil, domain.NewValidationError("newDivisionSize", "rotation has a single division; its size must equal the field size")
	}

	out := plan.Clone()
	remaining := fieldSize - newSize
	for y := 1; y <= out.Rotation.MaxYears; y++ {
		var others []int
		var othersTotal float64
		for i := range out.Entries {
			e := &out.Entries[i]
			if e.Year != y {
				continue
			}
			if e.Division == division {
				e.DivisionSize = newSize
				continue
			}
			others = append(others, i)
			othersTotal += e.DivisionSize
		}
		for _, i := range others {
			if othersTotal > 0 {
				out.Entries[i].DivisionSize *= remaining / othersTotal
			} else {
				out.Entries[i].DivisionSize = remaining / float64(len(others))
			}
		}
	}
	return out, nil
}

// ReassignResult is the new plan plus advisory warnings about the edit.
type ReassignResult struct {
	Plan     *domain.Plan
	Warnings []string
}

// ReassignCrop replaces the crop at (year, division) and recomputes the
// division's balances from that year on. A crop placed inside a no-repeat
// window is accepted with a warning: a manual choice overrides the planner.
// Relaxed flags on the division are re-derived from the new crop sequence.
func ReassignCrop(plan *domain.Plan, crops domain.CropIndex, year, division int, cropID string) (*ReassignResult, error) {
	if err := plan.Rotation.RequireActive(); err != nil {
		return nil, err
	}
	crop, ok := crops[cropID]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "crop", Key: cropID}
	}
	out := plan.Clone()
	e := out.Entry(year, division)
	if e == nil {
		return nil, entryNotFound(plan, year, division)
	}
	e.CropID = cropID
	if err := RecomputeForward(out, crops, division, year); err != nil {
		return nil, err
	}
	refreshRelaxed(out, crops, division)

	var warnings []string
	for _, i := range out.DivisionEntries(division) {
		other := out.Entries[i]
		if other.Year == year || other.CropID != cropID {
			continue
		}
		gap := year - other.Year
		if gap < 0 {
			gap = -gap
		}
		if gap <= crop.NoRepeatYears {
			warnings = append(warnings, fmt.Sprintf(
				"%s also planted on division %d in year %d (no-repeat window %d years)",
				crop.Name, division, other.Year, crop.NoRepeatYears))
		}
	}
	return &ReassignResult{Plan: out, Warnings: warnings}, nil
}

// ScheduleEntry sets the optional planting and harvesting dates of one entry.
// Passing nil clears a date.
func ScheduleEntry(plan *domain.Plan, year, division int, planting, harvesting *time.Time) (*domain.Plan, error) {
	if err := plan.Rotation.RequireActive(); err != nil {
		return nil, err
	}
	if planting != nil && harvesting != nil && harvesting.Before(*planting) {
		return nil, domain.NewValidationError("harvestingDate", "%s is before planting date %s",
			harvesting.Format("2006-01-02"), planting.Format("2006-01-02"))
	}
	out := plan.Clone()
	e := out.Entry(year, division)
	if e == nil {
		return nil, entryNotFound(plan, year, division)
	}
	e.PlantingDate = copyTime(planting)
	e.HarvestingDate = copyTime(harvesting)
	return out, nil
}

// refreshRelaxed marks exactly the division's entries that sit inside their
// crop's no-repeat window.
func refreshRelaxed(plan *domain.Plan, crops domain.CropIndex, division int) {
	flagged := make(map[int]bool)
	for _, r := range divisionRepeats(plan, crops, division) {
		flagged[r.Year] = true
	}
	for _, i := range plan.DivisionEntries(division) {
		plan.Entries[i].Relaxed = flagged[plan.Entries[i].Year]
	}
}

func entryNotFound(plan *domain.Plan, year, division int) error {
	return &domain.NotFoundError{
		Entity: "plan entry",
		Key:    fmt.Sprintf("%s year %d division %d", plan.Rotation.Name, year, division),
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
