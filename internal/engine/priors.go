package engine

import "github.com/Veraticus/weightbot/internal/model"

// Floors and defaults shared by every formula, in kilograms unless noted.
const (
	MinNetKg           = 0.05
	DefaultExtraKg     = 0.1
	DefaultPowerFactor = 0.3
	unknownBaseKg      = 0.6
	containerFillRatio = 0.6
)

// VesselPrior describes appliances whose mass grows with their capacity.
type VesselPrior struct {
	ShellPerL   float64
	InnerPerL   float64
	Base        float64
	Accessories float64
}

// Priors holds the empirical constants behind every category formula.
type Priors struct {
	Vessels            map[model.Category]VesselPrior
	ContainerThickness float64
	ContainerDensity   float64
	SmallElecBase      float64
	SmallElecPerCm3G   float64
	ShoesPair          float64
	ClothingPiece      float64
	PotPanBase         float64
	BeautyBase         float64
	UnknownBase        float64
}

// DefaultPriors returns the calibrated constants.
func DefaultPriors() Priors {
	return Priors{
		Vessels: map[model.Category]VesselPrior{
			model.CategoryRiceCooker: {ShellPerL: 0.90, InnerPerL: 0.20, Base: 0.30, Accessories: 0.10},
			model.CategoryKettle:     {ShellPerL: 0.45, InnerPerL: 0.12, Base: 0.15, Accessories: 0.05},
			model.CategoryThermos:    {ShellPerL: 0.30, InnerPerL: 0.00, Base: 0.05, Accessories: 0.00},
			model.CategoryAirFryer:   {ShellPerL: 0.70, InnerPerL: 0.18, Base: 0.35, Accessories: 0.10},
			model.CategoryBlender:    {ShellPerL: 0.55, InnerPerL: 0.10, Base: 0.25, Accessories: 0.10},
		},
		ContainerThickness: 0.03,
		ContainerDensity:   1.0,
		SmallElecBase:      0.35,
		SmallElecPerCm3G:   0.0009,
		ShoesPair:          0.80,
		ClothingPiece:      0.35,
		PotPanBase:         1.80,
		BeautyBase:         0.40,
		UnknownBase:        unknownBaseKg,
	}
}

// DefaultPowerFactors returns the kilograms added per kilowatt of rated power.
func DefaultPowerFactors() map[model.Category]float64 {
	return map[model.Category]float64{
		model.CategorySmallElec:  0.9,
		model.CategoryBlender:    0.8,
		model.CategoryAirFryer:   0.6,
		model.CategoryBeauty:     0.5,
		model.CategoryKettle:     0.3,
		model.CategoryRiceCooker: 0.35,
		model.CategoryThermos:    0.0,
		model.CategoryContainer:  0.0,
		model.CategoryShoes:      0.0,
		model.CategoryClothing:   0.0,
		model.CategoryPotPan:     0.0,
	}
}
