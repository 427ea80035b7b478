package model

import (
	"fmt"
	"sort"
)

// DefaultDimensions is the box assumed when nothing better is known, in centimeters.
var DefaultDimensions = Dimensions{Length: 30.0, Width: 30.0, Height: 25.0}

// Dimensions is a box size in centimeters. Length >= Width >= Height once sorted.
type Dimensions struct {
	Length float64 `json:"length_cm"`
	Width  float64 `json:"width_cm"`
	Height float64 `json:"height_cm"`
}

// NewDimensions returns the three values sorted descending.
func NewDimensions(a, b, c float64) Dimensions {
	vals := []float64{a, b, c}
	sort.Sort(sort.Reverse(sort.Float64Slice(vals)))
	return Dimensions{Length: vals[0], Width: vals[1], Height: vals[2]}
}

// Complete reports whether every axis is known.
func (d Dimensions) Complete() bool {
	return d.Length > 0 && d.Width > 0 && d.Height > 0
}

// Volume returns L*W*H in cubic centimeters.
func (d Dimensions) Volume() float64 {
	return d.Length * d.Width * d.Height
}

// WithFallback fills every unknown axis from fallback.
func (d Dimensions) WithFallback(fallback Dimensions) Dimensions {
	if d.Length <= 0 {
		d.Length = fallback.Length
	}
	if d.Width <= 0 {
		d.Width = fallback.Width
	}
	if d.Height <= 0 {
		d.Height = fallback.Height
	}
	return d
}

// Pad adds the same allowance to each axis.
func (d Dimensions) Pad(cm float64) Dimensions {
	return Dimensions{Length: d.Length + cm, Width: d.Width + cm, Height: d.Height + cm}
}

// String formats the box as "LxWxH" with one decimal place.
func (d Dimensions) String() string {
	return fmt.Sprintf("%.1fx%.1fx%.1f", d.Length, d.Width, d.Height)
}
