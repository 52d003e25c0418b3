package rotation

import (
	"errors"
	"math"
	"testing"

	"github.com/alexanderramin/fallow/internal/domain"
	"github.com/alexanderramin/fallow/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wheatCornInput() (GenerateInput, *domain.Crop, *domain.Crop) {
	wheat, corn := testutil.Wheat(), testutil.Corn()
	return GenerateInput{
		RotationName:      "North Field",
		FieldSize:         100,
		NumberOfDivisions: 4,
		Crops:             []*domain.Crop{wheat, corn},
		MaxYears:          3,
	}, wheat, corn
}

func TestGenerate_WheatCornScenario(t *testing.T) {
	in, wheat, corn := wheatCornInput()

	res, err := Generate(in)
	require.NoError(t, err)
	plan := res.Plan

	require.Len(t, plan.Entries, 12)
	assert.Equal(t, domain.RotationDraft, plan.Rotation.Status)
	for _, e := range plan.Entries {
		assert.InDelta(t, 25.0, e.DivisionSize, 1e-9)
	}

	d1 := plan.Entry(1, 1)
	require.NotNil(t, d1)
	assert.Equal(t, wheat.ID, d1.CropID, "division 1 takes crops in supplied order")
	assert.Equal(t, -140.0, d1.NitrogenBalance)

	d2 := plan.Entry(1, 2)
	require.NotNil(t, d2)
	assert.Equal(t, corn.ID, d2.CropID, "division 2 starts one crop later")
	assert.Equal(t, -170.0, d2.NitrogenBalance)

	// Wheat never appears in consecutive years on a division.
	for d := 1; d <= 4; d++ {
		idx := plan.DivisionEntries(d)
		for k := 1; k < len(idx); k++ {
			prev, cur := plan.Entries[idx[k-1]], plan.Entries[idx[k]]
			assert.False(t, prev.CropID == wheat.ID && cur.CropID == wheat.ID,
				"division %d repeats wheat in years %d-%d", d, prev.Year, cur.Year)
		}
	}
}

func TestGenerate_RelaxesWhenEveryCropBlocked(t *testing.T) {
	in, wheat, corn := wheatCornInput()
	res, err := Generate(in)
	require.NoError(t, err)

	// Year 3 on division 1: wheat (window 2) and corn (window 1) are both
	// blocked, so the least recently used crop (wheat, year 1) is reused.
	e := res.Plan.Entry(3, 1)
	require.NotNil(t, e)
	assert.True(t, e.Relaxed)
	assert.Equal(t, wheat.ID, e.CropID)

	// Division 2 starts with corn, whose one-year window has passed by year 3.
	e2 := res.Plan.Entry(3, 2)
	require.NotNil(t, e2)
	assert.False(t, e2.Relaxed)
	assert.Equal(t, corn.ID, e2.CropID)

	require.Len(t, res.Relaxations, 2, "divisions 1 and 3 start with wheat")
	assert.Equal(t, 1, res.Relaxations[0].Division)
	assert.Equal(t, 3, res.Relaxations[1].Division)
	assert.Contains(t, res.Relaxations[0].String(), "relaxed")
}

func TestGenerate_NoRelaxationWithLargePool(t *testing.T) {
	crops := []*domain.Crop{
		testutil.NewTestCrop("Wheat", testutil.WithNoRepeatYears(2)),
		testutil.NewTestCrop("Barley", testutil.WithNoRepeatYears(2)),
		testutil.NewTestCrop("Peas", testutil.WithNoRepeatYears(2)),
	}
	res, err := Generate(GenerateInput{
		RotationName: "Three course", FieldSize: 30, NumberOfDivisions: 3,
		Crops: crops, MaxYears: 6,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Relaxations)
	assert.Empty(t, CheckNoRepeat(res.Plan, domain.IndexCrops(crops)))

	// A classic three-course rotation: each division cycles the pool.
	for d := 1; d <= 3; d++ {
		idx := res.Plan.DivisionEntries(d)
		for k := 3; k < len(idx); k++ {
			assert.Equal(t, res.Plan.Entries[idx[k-3]].CropID, res.Plan.Entries[idx[k]].CropID)
		}
	}
}

func TestGenerate_UsageQuotaSpreadsCrops(t *testing.T) {
	free := testutil.NewTestCrop("Grass", testutil.WithNoRepeatYears(0))
	other := testutil.NewTestCrop("Rye", testutil.WithNoRepeatYears(0))
	res, err := Generate(GenerateInput{
		RotationName: "Ley", FieldSize: 1, NumberOfDivisions: 1,
		Crops: []*domain.Crop{free, other}, MaxYears: 4,
	})
	require.NoError(t, err)

	counts := map[string]int{}
	for _, e := range res.Plan.Entries {
		counts[e.CropID]++
	}
	assert.Equal(t, 2, counts[free.ID])
	assert.Equal(t, 2, counts[other.ID])
}

func TestGenerate_ResidualSeedsYearOne(t *testing.T) {
	in, _, _ := wheatCornInput()
	in.ResidualNitrogenSupply = 60
	res, err := Generate(in)
	require.NoError(t, err)
	assert.Equal(t, 60.0+40-180, res.Plan.Entry(1, 1).NitrogenBalance)
	assert.Equal(t, 60.0, res.Plan.Rotation.ResidualNitrogenSupply)
}

func TestGenerate_Deterministic(t *testing.T) {
	in, _, _ := wheatCornInput()
	a, err := Generate(in)
	require.NoError(t, err)
	b, err := Generate(in)
	require.NoError(t, err)
	if diff := cmp.Diff(a.Plan, b.Plan); diff != "" {
		t.Errorf("Generate not deterministic (-first +second):\n%s", diff)
	}
}

func TestGenerate_ValidationErrors(t *testing.T) {
	valid, wheat, _ := wheatCornInput()
	cases := []struct {
		name  string
		mod   func(*GenerateInput)
		field string
	}{
		{"no name", func(in *GenerateInput) { in.RotationName = "" }, "rotationName"},
		{"zero field", func(in *GenerateInput) { in.FieldSize = 0 }, "fieldSize"},
		{"nan field", func(in *GenerateInput) { in.FieldSize = math.NaN() }, "fieldSize"},
		{"zero divisions", func(in *GenerateInput) { in.NumberOfDivisions = 0 }, "numberOfDivisions"},
		{"zero years", func(in *GenerateInput) { in.MaxYears = 0 }, "maxYears"},
		{"nan residual", func(in *GenerateInput) { in.ResidualNitrogenSupply = math.Inf(-1) }, "residualNitrogenSupply"},
		{"no crops", func(in *GenerateInput) { in.Crops = nil }, "crops"},
		{"duplicate crop", func(in *GenerateInput) { in.Crops = []*domain.Crop{wheat, wheat} }, "crops"},
		{"bad crop", func(in *GenerateInput) {
			bad := testutil.NewTestCrop("Bad", testutil.WithNitrogen(math.NaN(), 10))
			in.Crops = []*domain.Crop{bad}
		}, "crop.nitrogenSupply"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mod(&in)
			_, err := Generate(in)
			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestCheckNoRepeat_FindsViolations(t *testing.T) {
	wheat := testutil.Wheat()
	r := testutil.NewTestRotation("Mono", testutil.WithDivisions(1), testutil.WithMaxYears(3))
	plan := testutil.NewTestPlan(r, wheat)

	violations := CheckNoRepeat(plan, domain.IndexCrops([]*domain.Crop{wheat}))
	require.Len(t, violations, 2)
	assert.Equal(t, 2, violations[0].Year)
	assert.Equal(t, 3, violations[1].Year)
}
