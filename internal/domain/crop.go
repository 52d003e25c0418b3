package domain

import (
	"math"
	"strings"
	"time"
)

// Crop is the read model supplied by the crop catalog. Nitrogen figures are
// kg/ha for one growing season.
type Crop struct {
	ID             string
	Name           string
	NitrogenSupply float64
	NitrogenDemand float64
	NoRepeatYears  int
	Pests          []string
	Diseases       []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate fails fast on values that would otherwise poison balance
// arithmetic downstream.
func (c *Crop) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("crop.name", "is required")
	}
	if err := validateAmount("crop.nitrogenSupply", c.Name, c.NitrogenSupply); err != nil {
		return err
	}
	if err := validateAmount("crop.nitrogenDemand", c.Name, c.NitrogenDemand); err != nil {
		return err
	}
	if c.NoRepeatYears < 0 {
		return NewValidationError("crop.noRepeatYears", "crop %q: must be >= 0, got %d", c.Name, c.NoRepeatYears)
	}
	return nil
}

// NetNitrogen is the per-season change the crop applies to a balance.
func (c *Crop) NetNitrogen() float64 {
	return c.NitrogenSupply - c.NitrogenDemand
}

func validateAmount(field, name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NewValidationError(field, "crop %q: must be a finite number", name)
	}
	if v < 0 {
		return NewValidationError(field, "crop %q: must be >= 0, got %g", name, v)
	}
	return nil
}

// CropIndex maps crop IDs to crops.
type CropIndex map[string]*Crop

// IndexCrops builds a CropIndex from a slice. Later duplicates win.
func IndexCrops(crops []*Crop) CropIndex {
	idx := make(CropIndex, len(crops))
	for _, c := range crops {
		idx[c.ID] = c
	}
	return idx
}
