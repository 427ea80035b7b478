package model

// EstimateResult is the outcome of one weight estimate. It is never persisted.
type EstimateResult struct {
	Category     Category `json:"category"`
	NetKg        float64  `json:"net_kg"`
	GrossKg      float64  `json:"gross_kg"`
	Vol5000      float64  `json:"vol_5000"`
	Vol6000      float64  `json:"vol_6000"`
	DeltaApplied float64  `json:"delta_applied"`
	PowerKW      float64  `json:"power_kw"`
	PowerFactor  float64  `json:"power_factor"`
	Confidence   int      `json:"confidence"`
}

// ChargeableKg returns the larger of gross and volumetric weight for the given divisor.
func (r EstimateResult) ChargeableKg(divisor int) float64 {
	vol := r.Vol5000
	if divisor == 6000 {
		vol = r.Vol6000
	}
	if vol > r.GrossKg {
		return vol
	}
	return r.GrossKg
}
