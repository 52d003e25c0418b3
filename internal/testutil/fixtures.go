package testutil

import (
	"time"

	"github.com/alexanderramin/fallow/internal/domain"
	"github.com/google/uuid"
)

// Crop options
type CropOption func(*domain.Crop)

func WithNitrogen(supply, demand float64) CropOption {
	return func(c *domain.Crop) {
		c.NitrogenSupply = supply
		c.NitrogenDemand = demand
	}
}

func WithNoRepeatYears(k int) CropOption {
	return func(c *domain.Crop) {
		c.NoRepeatYears = k
	}
}

func WithPests(pests ...string) CropOption {
	return func(c *domain.Crop) {
		c.Pests = pests
	}
}

func WithDiseases(diseases ...string) CropOption {
	return func(c *domain.Crop) {
		c.Diseases = diseases
	}
}

func NewTestCrop(name string, opts ...CropOption) *domain.Crop {
	now := time.Now().UTC()
	c := &domain.Crop{
		ID:             uuid.New().String(),
		Name:           name,
		NitrogenSupply: 0,
		NitrogenDemand: 100,
		NoRepeatYears:  1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wheat and Corn are the reference pair used across rotation tests.
func Wheat() *domain.Crop {
	return NewTestCrop("Wheat", WithNitrogen(40, 180), WithNoRepeatYears(2))
}

func Corn() *domain.Crop {
	return NewTestCrop("Corn", WithNitrogen(30, 200), WithNoRepeatYears(1))
}

func Clover() *domain.Crop {
	return NewTestCrop("Clover", WithNitrogen(150, 20), WithNoRepeatYears(3))
}

func Potato() *domain.Crop {
	return NewTestCrop("Potato", WithNitrogen(0, 160), WithNoRepeatYears(4),
		WithPests("Colorado beetle"), WithDiseases("Late blight"))
}

// Rotation options
type RotationOption func(*domain.Rotation)

func WithFieldSize(ha float64) RotationOption {
	return func(r *domain.Rotation) {
		r.FieldSize = ha
	}
}

func WithDivisions(n int) RotationOption {
	return func(r *domain.Rotation) {
		r.NumberOfDivisions = n
	}
}

func WithMaxYears(n int) RotationOption {
	return func(r *domain.Rotation) {
		r.MaxYears = n
	}
}

func WithResidual(n float64) RotationOption {
	return func(r *domain.Rotation) {
		r.ResidualNitrogenSupply = n
	}
}

func WithRotationStatus(s domain.RotationStatus) RotationOption {
	return func(r *domain.Rotation) {
		r.Status = s
	}
}

func WithOwner(owner string) RotationOption {
	return func(r *domain.Rotation) {
		r.Owner = owner
	}
}

func NewTestRotation(name string, opts ...RotationOption) *domain.Rotation {
	now := time.Now().UTC()
	r := &domain.Rotation{
		ID:                uuid.New().String(),
		Name:              name,
		FieldSize:         100,
		NumberOfDivisions: 4,
		MaxYears:          3,
		Owner:             "test",
		Status:            domain.RotationActive,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewTestPlan builds an active plan whose entries cycle through crops in
// order on every division with equal division sizes and balances chained
// from the residual supply.
func NewTestPlan(r *domain.Rotation, crops ...*domain.Crop) *domain.Plan {
	p := &domain.Plan{Rotation: *r}
	size := r.FieldSize / float64(r.NumberOfDivisions)
	for d := 1; d <= r.NumberOfDivisions; d++ {
		balance := r.ResidualNitrogenSupply
		for y := 1; y <= r.MaxYears; y++ {
			c := crops[(y-1)%len(crops)]
			balance += c.NitrogenSupply - c.NitrogenDemand
			p.Entries = append(p.Entries, domain.PlanEntry{
				RotationID:      r.ID,
				Year:            y,
				Division:        d,
				CropID:          c.ID,
				DivisionSize:    size,
				NitrogenBalance: balance,
			})
		}
	}
	p.SortEntries()
	return p
}
