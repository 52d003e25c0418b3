package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// DefaultTolerance is the absolute slack allowed when comparing summed
// division sizes to the field size.
const DefaultTolerance = 1e-6

type Rotation struct {
	ID                     string
	Name                   string
	FieldSize              float64
	NumberOfDivisions      int
	MaxYears               int
	ResidualNitrogenSupply float64
	Owner                  string
	Status                 RotationStatus
	Version                int
	ArchivedAt             *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// RequireActive returns a ValidationError unless the rotation accepts edits.
func (r *Rotation) RequireActive() error {
	if r.Status != RotationActive {
		return NewValidationError("status", "rotation %q is %s; only active rotations can be edited", r.Name, r.Status)
	}
	return nil
}

// Activate moves a draft rotation to active. Active is a no-op.
func (r *Rotation) Activate(now time.Time) error {
	switch r.Status {
	case RotationActive:
		return nil
	case RotationDraft, "":
		r.Status = RotationActive
		r.UpdatedAt = now
		return nil
	default:
		return NewValidationError("status", "cannot activate %s rotation %q", r.Status, r.Name)
	}
}

// Archive freezes the rotation. Archived rotations are read-only.
func (r *Rotation) Archive(now time.Time) error {
	if r.Status == RotationArchived {
		return nil
	}
	if r.Status != RotationActive {
		return NewValidationError("status", "cannot archive %s rotation %q", r.Status, r.Name)
	}
	r.Status = RotationArchived
	r.ArchivedAt = &now
	r.UpdatedAt = now
	return nil
}

// PlanEntry is one (year, division) cell of a rotation plan.
type PlanEntry struct {
	RotationID      string
	Year            int
	Division        int
	CropID          string
	DivisionSize    float64
	NitrogenBalance float64
	// Relaxed marks a slot where no crop satisfied the no-repeat window and
	// the least-recently-used crop was taken instead.
	Relaxed         bool
	PlantingDate    *time.Time
	HarvestingDate  *time.Time
}

// Plan is a rotation together with its full set of entries, ordered by
// year and then division.
type Plan struct {
	Rotation Rotation
	Entries  []PlanEntry
}

// Clone returns a deep copy so mutators can return new state without
// touching their input.
func (p *Plan) Clone() *Plan {
	out := &Plan{Rotation: p.Rotation, Entries: make([]PlanEntry, len(p.Entries))}
	copy(out.Entries, p.Entries)
	for i := range out.Entries {
		if t := out.Entries[i].PlantingDate; t != nil {
			v := *t
			out.Entries[i].PlantingDate = &v
		}
		if t := out.Entries[i].HarvestingDate; t != nil {
			v := *t
			out.Entries[i].HarvestingDate = &v
		}
	}
	if p.Rotation.ArchivedAt != nil {
		v := *p.Rotation.ArchivedAt
		out.Rotation.ArchivedAt = &v
	}
	return out
}

// SortEntries orders entries by year, then division.
func (p *Plan) SortEntries() {
	sort.SliceStable(p.Entries, func(i, j int) bool {
		if p.Entries[i].Year != p.Entries[j].Year {
			return p.Entries[i].Year < p.Entries[j].Year
		}
		return p.Entries[i].Division < p.Entries[j].Division
	})
}

// EntryIndex returns the position of the (year, division) entry, or -1.
func (p *Plan) EntryIndex(year, division int) int {
	for i := range p.Entries {
		if p.Entries[i].Year == year && p.Entries[i].Division == division {
			return i
		}
	}
	return -1
}

// Entry returns a pointer into Entries for (year, division), or nil.
func (p *Plan) Entry(year, division int) *PlanEntry {
	if i := p.EntryIndex(year, division); i >= 0 {
		return &p.Entries[i]
	}
	return nil
}

// DivisionEntries returns the indexes of a division's entries in year order.
func (p *Plan) DivisionEntries(division int) []int {
	var idx []int
	for i := range p.Entries {
		if p.Entries[i].Division == division {
			idx = append(idx, i)
		}
	}
	sort.Slice(idx, func(a, b int) bool {
		return p.Entries[idx[a]].Year < p.Entries[idx[b]].Year
	})
	return idx
}

// TotalSize sums division sizes for a single year.
func (p *Plan) TotalSize(year int) float64 {
	var total float64
	for _, e := range p.Entries {
		if e.Year == year {
			total += e.DivisionSize
		}
	}
	return total
}

// Validate checks the structural invariants of the plan: one entry per
// (year, division), indexes in range, and division sizes summing to the
// field size in every year.
func (p *Plan) Validate(tolerance float64) error {
	r := p.Rotation
	if r.FieldSize <= 0 {
		return NewValidationError("fieldSize", "must be > 0, got %g", r.FieldSize)
	}
	if r.NumberOfDivisions < 1 {
		return NewValidationError("numberOfDivisions", "must be >= 1, got %d", r.NumberOfDivisions)
	}
	if r.MaxYears < 1 {
		return NewValidationError("maxYears", "must be >= 1, got %d", r.MaxYears)
	}
	if want := r.NumberOfDivisions * r.MaxYears; len(p.Entries) != want {
		return fmt.Errorf("plan %q has %d entries, expected %d", r.Name, len(p.Entries), want)
	}
	seen := make(map[[2]int]bool, len(p.Entries))
	for _, e := range p.Entries {
		if e.Year < 1 || e.Year > r.MaxYears {
			return NewValidationError("year", "%d outside [1, %d]", e.Year, r.MaxYears)
		}
		if e.Division < 1 || e.Division > r.NumberOfDivisions {
			return NewValidationError("division", "%d outside [1, %d]", e.Division, r.NumberOfDivisions)
		}
		key := [2]int{e.Year, e.Division}
		if seen[key] {
			return fmt.Errorf("plan %q has duplicate entry for year %d division %d", r.Name, e.Year, e.Division)
		}
		seen[key] = true
	}
	for y := 1; y <= r.MaxYears; y++ {
		if total := p.TotalSize(y); math.Abs(total-r.FieldSize) > tolerance {
			return fmt.Errorf("plan %q year %d: division sizes sum to %g, field size is %g", r.Name, y, total, r.FieldSize)
		}
	}
	return nil
}
