package rotation

import (
	"fmt"
	"math"
	"strings"

	"github.com/alexanderramin/fallow/internal/domain"
)

// GenerateInput carries everything the planner needs for one generation pass.
type GenerateInput struct {
	RotationName           string
	FieldSize              float64
	NumberOfDivisions      int
	Crops                  []*domain.Crop
	MaxYears               int
	ResidualNitrogenSupply float64
}

// Relaxation records a slot where every crop violated its no-repeat window
// and the least-recently-used crop was assigned anyway.
type Relaxation struct {
	Year     int
	Division int
	CropID   string
}

func (r Relaxation) String() string {
	return fmt.Sprintf("year %d division %d: no-repeat relaxed, reused %s", r.Year, r.Division, r.CropID)
}

// GenerateResult is a draft plan plus the relaxations taken while building it.
type GenerateResult struct {
	Plan        *domain.Plan
	Relaxations []Relaxation
}

// Validate checks the generation preconditions. The first failure is
// returned as a *domain.ValidationError naming the parameter.
func (in GenerateInput) Validate() error {
	if strings.TrimSpace(in.RotationName) == "" {
		return domain.NewValidationError("rotationName", "is required")
	}
	if math.IsNaN(in.FieldSize) || math.IsInf(in.FieldSize, 0) || in.FieldSize <= 0 {
		return domain.NewValidationError("fieldSize", "must be a finite number > 0, got %g", in.FieldSize)
	}
	if in.NumberOfDivisions < 1 {
		return domain.NewValidationError("numberOfDivisions", "must be >= 1, got %d", in.NumberOfDivisions)
	}
	if in.MaxYears < 1 {
		return domain.NewValidationError("maxYears", "must be >= 1, got %d", in.MaxYears)
	}
	if math.IsNaN(in.ResidualNitrogenSupply) || math.IsInf(in.ResidualNitrogenSupply, 0) {
		return domain.NewValidationError("residualNitrogenSupply", "must be a finite number")
	}
	if len(in.Crops) == 0 {
		return domain.NewValidationError("crops", "at least one crop is required")
	}
	seen := make(map[string]bool, len(in.Crops))
	for i, c := range in.Crops {
		if c == nil {
			return domain.NewValidationError("crops", "crop %d is nil", i)
		}
		if c.ID == "" {
			return domain.NewValidationError("crops", "crop %q has no ID", c.Name)
		}
		if seen[c.ID] {
			return domain.NewValidationError("crops", "crop %q listed twice", c.Name)
		}
		seen[c.ID] = true
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Generate assigns a crop to every (division, year) slot and computes the
// nitrogen balance chain for each division. The returned plan is a draft:
// no rotation ID, status draft, ordered by year then division.
func Generate(in GenerateInput) (*GenerateResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	divisionSize := in.FieldSize / float64(in.NumberOfDivisions)
	quota := intendedUsage(in.MaxYears, len(in.Crops))

	plan := &domain.Plan{
		Rotation: domain.Rotation{
			Name:                   in.RotationName,
			FieldSize:              in.FieldSize,
			NumberOfDivisions:      in.NumberOfDivisions,
			MaxYears:               in.MaxYears,
			ResidualNitrogenSupply: in.ResidualNitrogenSupply,
			Status:                 domain.RotationDraft,
		},
		Entries: make([]domain.PlanEntry, 0, in.NumberOfDivisions*in.MaxYears),
	}
	var relaxations []Relaxation

	for d := 1; d <= in.NumberOfDivisions; d++ {
		order := divisionOrder(in.Crops, d)
		hist := newHistory()
		balance := in.ResidualNitrogenSupply

		for y := 1; y <= in.MaxYears; y++ {
			crop, relaxed := pickCrop(order, hist, y, quota)
			hist.use(crop.ID, y)
			balance = ComputeBalance(balance, crop)

			plan.Entries = append(plan.Entries, domain.PlanEntry{
				Year:            y,
				Division:        d,
				CropID:          crop.ID,
				DivisionSize:    divisionSize,
				NitrogenBalance: balance,
				Relaxed:         relaxed,
			})
			if relaxed {
				relaxations = append(relaxations, Relaxation{Year: y, Division: d, CropID: crop.ID})
			}
		}
	}

	plan.SortEntries()
	return &GenerateResult{Plan: plan, Relaxations: relaxations}, nil
}

// intendedUsage spreads the horizon evenly across the pool.
func intendedUsage(maxYears, crops int) int {
	return (maxYears + crops - 1) / crops
}

// divisionOrder rotates the supplied order so division d starts at crop
// (d-1) mod n. Division 1 keeps the order as supplied.
func divisionOrder(crops []*domain.Crop, division int) []*domain.Crop {
	n := len(crops)
	offset := (division - 1) % n
	order := make([]*domain.Crop, 0, n)
	order = append(order, crops[offset:]...)
	order = append(order, crops[:offset]...)
	return order
}

type history struct {
	lastUsed map[string]int
	uses     map[string]int
}

func newHistory() *history {
	return &history{lastUsed: make(map[string]int), uses: make(map[string]int)}
}

func (h *history) use(cropID string, year int) {
	h.lastUsed[cropID] = year
	h.uses[cropID]++
}

// allowed reports whether crop may be planted in year without a prior use
// inside [year-NoRepeatYears, year-1].
func (h *history) allowed(crop *domain.Crop, year int) bool {
	last, ok := h.lastUsed[crop.ID]
	if !ok {
		return true
	}
	return year-last > crop.NoRepeatYears
}

// pickCrop returns the crop for one slot and whether the no-repeat
// constraint had to be relaxed.
func pickCrop(order []*domain.Crop, h *history, year, quota int) (*domain.Crop, bool) {
	for _, c := range order {
		if h.allowed(c, year) && h.uses[c.ID] < quota {
			return c, false
		}
	}
	// Quota exhausted everywhere; the quota is a spreading preference only.
	for _, c := range order {
		if h.allowed(c, year) {
			return c, false
		}
	}
	return leastRecentlyUsed(order, h), true
}

func leastRecentlyUsed(order []*domain.Crop, h *history) *domain.Crop {
	best := order[0]
	bestYear := h.lastUsed[best.ID]
	for _, c := range order[1:] {
		if y := h.lastUsed[c.ID]; y < bestYear {
			best, bestYear = c, y
		}
	}
	return best
}

// CheckNoRepeat lists every entry that places a crop inside its own
// no-repeat window on the same division. Entries flagged Relaxed are
// reported too; callers decide whether that is acceptable.
func CheckNoRepeat(plan *domain.Plan, crops domain.CropIndex) []Relaxation {
	var out []Relaxation
	for d := 1; d <= plan.Rotation.NumberOfDivisions; d++ {
		out = append(out, divisionRepeats(plan, crops, d)...)
	}
	return out
}

func divisionRepeats(plan *domain.Plan, crops domain.CropIndex, division int) []Relaxation {
	var out []Relaxation
	h := newHistory()
	for _, i := range plan.DivisionEntries(division) {
		e := plan.Entries[i]
		if c, ok := crops[e.CropID]; ok && !h.allowed(c, e.Year) {
			out = append(out, Relaxation{Year: e.Year, Division: division, CropID: e.CropID})
		}
		h.use(e.CropID, e.Year)
	}
	return out
}
