package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCropValidate(t *testing.T) {
	cases := []struct {
		name  string
		crop  Crop
		field string
	}{
		{"ok", Crop{Name: "Wheat", NitrogenSupply: 40, NitrogenDemand: 180, NoRepeatYears: 2}, ""},
		{"blank name", Crop{Name: "  "}, "crop.name"},
		{"nan supply", Crop{Name: "Wheat", NitrogenSupply: math.NaN()}, "crop.nitrogenSupply"},
		{"inf demand", Crop{Name: "Wheat", NitrogenDemand: math.Inf(1)}, "crop.nitrogenDemand"},
		{"negative demand", Crop{Name: "Wheat", NitrogenDemand: -1}, "crop.nitrogenDemand"},
		{"negative no repeat", Crop{Name: "Wheat", NoRepeatYears: -1}, "crop.noRepeatYears"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.crop.Validate()
			if tc.field == "" {
				require.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestCropNetNitrogen(t *testing.T) {
	c := Crop{Name: "Clover", NitrogenSupply: 150, NitrogenDemand: 20}
	assert.Equal(t, 130.0, c.NetNitrogen())
}

func TestIndexCrops(t *testing.T) {
	a := &Crop{ID: "a", Name: "Wheat"}
	b := &Crop{ID: "b", Name: "Corn"}
	idx := IndexCrops([]*Crop{a, b})
	assert.Same(t, a, idx["a"])
	assert.Same(t, b, idx["b"])
	assert.Nil(t, idx["c"])
}
