package engine

import (
	"math"

	"github.com/Veraticus/weightbot/internal/model"
)

// formulaFunc returns the base net weight for one category before power and feedback.
type formulaFunc func(p *Priors, in Input) float64

func defaultFormulas() map[model.Category]formulaFunc {
	return map[model.Category]formulaFunc{
		model.CategoryRiceCooker: vesselFormula(model.CategoryRiceCooker),
		model.CategoryKettle:     vesselFormula(model.CategoryKettle),
		model.CategoryThermos:    vesselFormula(model.CategoryThermos),
		model.CategoryAirFryer:   vesselFormula(model.CategoryAirFryer),
		model.CategoryBlender:    vesselFormula(model.CategoryBlender),
		model.CategoryContainer:  containerFormula,
		model.CategorySmallElec:  smallElecFormula,
		model.CategoryShoes:      func(p *Priors, _ Input) float64 { return p.ShoesPair },
		model.CategoryClothing:   func(p *Priors, _ Input) float64 { return p.ClothingPiece },
		model.CategoryPotPan:     func(p *Priors, in Input) float64 { return p.PotPanBase + in.ExtraConstant },
		model.CategoryBeauty:     func(p *Priors, in Input) float64 { return p.BeautyBase + in.ExtraConstant },
	}
}

func vesselFormula(category model.Category) formulaFunc {
	return func(p *Priors, in Input) float64 {
		v := p.Vessels[category]
		capacity := math.Max(0, in.CapacityL)
		return v.ShellPerL*capacity + v.InnerPerL*capacity + v.Base + v.Accessories + in.ExtraConstant
	}
}

// containerFormula models a plastic or glass vessel by its wall mass. Without a stated
// capacity the box is assumed to be 60% usable volume.
func containerFormula(p *Priors, in Input) float64 {
	capacity := in.CapacityL
	if capacity <= 0 && in.Dims.Complete() {
		capacity = in.Dims.Volume() * containerFillRatio / 1000.0
	}
	mass := math.Max(MinNetKg, capacity*1000.0*p.ContainerThickness*p.ContainerDensity/1000.0)
	return mass + in.ExtraConstant
}

func smallElecFormula(p *Priors, in Input) float64 {
	d := in.Dims.WithFallback(model.DefaultDimensions)
	return p.SmallElecBase + d.Volume()*p.SmallElecPerCm3G/1000.0 + in.ExtraConstant
}
