// Package engine turns product descriptions into net, gross and volumetric weight
// estimates.
package engine

import (
	"math"

	"github.com/Veraticus/weightbot/internal/model"
	"github.com/Veraticus/weightbot/internal/service"
)

// Volumetric divisors used by couriers, in cubic centimeters per kilogram.
const (
	VolumetricDivisor5000 = 5000
	VolumetricDivisor6000 = 6000
)

// Confidence scoring.
const (
	baseConfidence     = 70
	capacityConfidence = 10
	dimsConfidence     = 10
	powerConfidence    = 5
	MinConfidence      = 30
	MaxConfidence      = 95
)

// Input is everything the estimator knows about one product option.
type Input struct {
	// NetOverride is an explicit net weight, usually parsed from the option name.
	// When set it replaces the category formula.
	NetOverride   *float64
	ProductText   string
	Category      model.Category
	Dims          model.Dimensions
	CapacityL     float64
	PowerKW       float64
	ExtraConstant float64
}

// Estimator computes weight estimates from category priors. It holds no mutable state
// and is safe for concurrent use.
type Estimator struct {
	priors       Priors
	powerFactors map[model.Category]float64
	formulas     map[model.Category]formulaFunc
}

// EstimatorOption configures an Estimator.
type EstimatorOption func(*Estimator)

// WithPriors replaces the default priors.
func WithPriors(p Priors) EstimatorOption {
	return func(e *Estimator) { e.priors = p }
}

// WithPowerFactors replaces the default power factors.
func WithPowerFactors(factors map[model.Category]float64) EstimatorOption {
	return func(e *Estimator) { e.powerFactors = factors }
}

// NewEstimator creates an estimator with the calibrated priors.
func NewEstimator(opts ...EstimatorOption) *Estimator {
	e := &Estimator{
		priors:       DefaultPriors(),
		powerFactors: DefaultPowerFactors(),
		formulas:     defaultFormulas(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PowerFactor returns the kilograms per kilowatt for category.
func (e *Estimator) PowerFactor(category model.Category) float64 {
	if f, ok := e.powerFactors[category]; ok {
		return f
	}
	return DefaultPowerFactor
}

// Estimate computes the weights for one option. deltas may be nil, in which case no
// feedback correction is applied.
func (e *Estimator) Estimate(in Input, deltas service.DeltaSource) model.EstimateResult {
	net := e.baseNet(in)

	factor := e.PowerFactor(in.Category)
	net += math.Max(0, in.PowerKW) * factor

	var delta float64
	if deltas != nil {
		delta = deltas.AverageDelta(in.Category)
	}
	net = math.Max(MinNetKg, net+delta)
	gross := net + PackagingKg(in.Dims)

	return model.EstimateResult{
		Category:     in.Category,
		NetKg:        round2(net),
		GrossKg:      round2(gross),
		Vol5000:      round2(VolumetricKg(in.Dims, VolumetricDivisor5000)),
		Vol6000:      round2(VolumetricKg(in.Dims, VolumetricDivisor6000)),
		DeltaApplied: round2(delta),
		PowerKW:      in.PowerKW,
		PowerFactor:  factor,
		Confidence:   Confidence(in),
	}
}

func (e *Estimator) baseNet(in Input) float64 {
	if in.NetOverride != nil {
		return *in.NetOverride
	}
	if f, ok := e.formulas[in.Category]; ok {
		return f(&e.priors, in)
	}
	return e.priors.UnknownBase + in.ExtraConstant
}

// PackagingKg estimates the carton and filler mass for a box.
func PackagingKg(d model.Dimensions) float64 {
	if !d.Complete() {
		return 0.5
	}
	return 0.25 + math.Min(1.5, d.Volume()*1e-6)
}

// VolumetricKg returns the dimensional weight of a box, or 0 when any axis is unknown.
func VolumetricKg(d model.Dimensions, divisor float64) float64 {
	if !d.Complete() || divisor <= 0 {
		return 0
	}
	return d.Volume() / divisor
}

// Confidence scores how much of the input was actually known.
func Confidence(in Input) int {
	score := baseConfidence
	if in.CapacityL > 0 {
		score += capacityConfidence
	}
	if in.Dims.Complete() {
		score += dimsConfidence
	}
	if in.PowerKW > 0 {
		score += powerConfidence
	}
	return max(MinConfidence, min(MaxConfidence, score))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
