package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input  string
		want   Category
		wantOK bool
	}{
		{input: "kettle", want: CategoryKettle, wantOK: true},
		{input: "pot_pan", want: CategoryPotPan, wantOK: true},
		{input: "Kettle", want: Category("Kettle"), wantOK: false},
		{input: "", want: Category(""), wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseCategory(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategoriesOrder(t *testing.T) {
	cats := Categories()
	require.Len(t, cats, 11)
	assert.Equal(t, CategorySmallElec, cats[0])
	assert.Equal(t, CategoryBeauty, cats[len(cats)-1])
	for _, c := range cats {
		assert.True(t, c.IsValid(), c)
	}
}

func TestDimensions(t *testing.T) {
	d := NewDimensions(28, 32, 30)
	assert.Equal(t, Dimensions{Length: 32, Width: 30, Height: 28}, d)
	assert.True(t, d.Complete())
	assert.InDelta(t, 26880.0, d.Volume(), 1e-9)
	assert.Equal(t, "32.0x30.0x28.0", d.String())
	assert.Equal(t, Dimensions{Length: 34, Width: 32, Height: 30}, d.Pad(2))

	partial := Dimensions{Length: 50}
	assert.False(t, partial.Complete())
	assert.Equal(t, Dimensions{Length: 50, Width: 30, Height: 25}, partial.WithFallback(DefaultDimensions))
}

func TestChargeableKg(t *testing.T) {
	r := EstimateResult{GrossKg: 2.0, Vol5000: 3.1, Vol6000: 1.9}
	assert.InDelta(t, 3.1, r.ChargeableKg(5000), 1e-9)
	assert.InDelta(t, 2.0, r.ChargeableKg(6000), 1e-9)
}

func TestFeedbackSet(t *testing.T) {
	set := NewFeedbackSet()
	set.Revision = 4
	set.Entries["B-01"] = FeedbackEntry{Category: CategoryShoes, Delta: -0.1}
	set.Entries["A-01"] = FeedbackEntry{Category: CategoryKettle, Delta: 0.2, Timestamp: time.Unix(0, 0)}

	sorted := set.Sorted()
	require.Len(t, sorted, 2)
	assert.Equal(t, "A-01", sorted[0].OptionKey)
	assert.Equal(t, "B-01", sorted[1].OptionKey)

	clone := set.Clone()
	clone.Entries["C-01"] = FeedbackEntry{}
	assert.Equal(t, 2, set.Len(), "clone does not share the map")
	assert.Equal(t, int64(4), clone.Revision)
}

func TestResultRowValuesMatchColumns(t *testing.T) {
	row := ResultRow{ProductCode: "A1", OptionCode: "A1-01", Category: CategoryKettle, NetKg: 1.68, Confidence: 95}
	values := row.Values()
	require.Len(t, values, len(ResultColumns))
	assert.Equal(t, "A1", values[0])
	assert.Equal(t, "kettle", values[4])
	assert.Equal(t, 1.68, values[8])
	assert.Equal(t, 95, values[12])
}
