package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "north", Coalesce("", "north", "south"))
	assert.Equal(t, "", Coalesce[string]())
	assert.Equal(t, 3, Coalesce(0, 0, 3))
}

func TestValueOr(t *testing.T) {
	zero, forty := 0.0, 40.0

	assert.Equal(t, 12.5, ValueOr(12.5))
	assert.Equal(t, 12.5, ValueOr[float64](12.5, nil))
	assert.Equal(t, 0.0, ValueOr(12.5, &zero), "an explicit zero wins over the fallback")
	assert.Equal(t, 40.0, ValueOr[float64](12.5, nil, &forty))
}
