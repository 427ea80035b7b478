package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLengthToCm(t *testing.T) {
	tests := []struct {
		unit  string
		value float64
		want  float64
	}{
		{unit: "mm", value: 750, want: 75},
		{unit: "MM", value: 640, want: 64},
		{unit: "毫米", value: 55, want: 5.5},
		{unit: "cm", value: 30, want: 30},
		{unit: "厘米", value: 12.5, want: 12.5},
		{unit: "m", value: 1.2, want: 120},
		{unit: "米", value: 0.5, want: 50},
		{unit: "inch", value: 7, want: 7},
		{unit: "", value: 9, want: 9},
	}

	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			assert.InDelta(t, tt.want, LengthToCm(tt.value, tt.unit), 1e-9)
		})
	}
}

func TestLengthRoundTrip(t *testing.T) {
	for _, unit := range LengthUnits {
		for _, v := range []float64{0.3, 1, 17.25, 640, 1234.5} {
			cm := LengthToCm(v, unit)
			assert.InDelta(t, v, cmFromLength(cm, unit), 1e-9, "unit %s value %v", unit, v)
		}
	}
}

func TestMassToKg(t *testing.T) {
	tests := []struct {
		unit  string
		value float64
		want  float64
	}{
		{unit: "g", value: 850, want: 0.85},
		{unit: "克", value: 1200, want: 1.2},
		{unit: "斤", value: 3, want: 1.5},
		{unit: "kg", value: 2.4, want: 2.4},
		{unit: "KG", value: 2.4, want: 2.4},
		{unit: "千克", value: 1, want: 1},
		{unit: "公斤", value: 5, want: 5},
		{unit: "lb", value: 4, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			assert.InDelta(t, tt.want, MassToKg(tt.value, tt.unit), 1e-9)
		})
	}
}

func TestPowerToKW(t *testing.T) {
	assert.InDelta(t, 0.8, PowerToKW(800, "W"), 1e-9)
	assert.InDelta(t, 1.5, PowerToKW(1.5, "kw"), 1e-9)
	assert.InDelta(t, 3, PowerToKW(3, "hp"), 1e-9)
}
