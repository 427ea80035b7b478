// Package report builds flat result rows and moves them in and out of spreadsheets.
package report

import (
	"time"

	"github.com/Veraticus/weightbot/internal/model"
)

// RowIDs identifies the product option a row describes.
type RowIDs struct {
	ProductCode string
	OptionCode  string
	OptionName  string
	ProductName string
}

// BuildRow flattens one estimate into an output row.
func BuildRow(ids RowIDs, capacityL float64, box model.Dimensions, result model.EstimateResult, now time.Time) model.ResultRow {
	return model.ResultRow{
		ProductCode:  ids.ProductCode,
		OptionCode:   ids.OptionCode,
		OptionName:   ids.OptionName,
		ProductName:  ids.ProductName,
		Category:     result.Category,
		CapacityL:    capacityL,
		PowerKW:      result.PowerKW,
		BoxCm:        box.String(),
		NetKg:        result.NetKg,
		GrossKg:      result.GrossKg,
		Vol5000:      result.Vol5000,
		Vol6000:      result.Vol6000,
		Confidence:   result.Confidence,
		DeltaApplied: result.DeltaApplied,
		Timestamp:    now.Format(model.TimestampLayout),
		PowerFactor:  result.PowerFactor,
	}
}
