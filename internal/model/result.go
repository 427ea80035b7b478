package model

// TimestampLayout is the layout used for the timestamp column of result rows.
const TimestampLayout = "2006-01-02 15:04:05"

// ResultColumns are the exported column names, in order. Existing spreadsheets depend
// on these names and positions; new columns go at the end.
var ResultColumns = []string{
	"product_code",
	"option_code",
	"option_name",
	"product_name",
	"category",
	"capacity_L",
	"power_kW",
	"box_cm",
	"net_kg",
	"gross_kg",
	"vol_5000",
	"vol_6000",
	"confidence",
	"delta_applied",
	"timestamp",
	"power_factor",
}

// ResultRow is one flat output row per product option.
type ResultRow struct {
	ProductCode  string   `json:"product_code"`
	OptionCode   string   `json:"option_code"`
	OptionName   string   `json:"option_name"`
	ProductName  string   `json:"product_name"`
	Category     Category `json:"category"`
	BoxCm        string   `json:"box_cm"`
	Timestamp    string   `json:"timestamp"`
	CapacityL    float64  `json:"capacity_L"`
	PowerKW      float64  `json:"power_kW"`
	NetKg        float64  `json:"net_kg"`
	GrossKg      float64  `json:"gross_kg"`
	Vol5000      float64  `json:"vol_5000"`
	Vol6000      float64  `json:"vol_6000"`
	DeltaApplied float64  `json:"delta_applied"`
	PowerFactor  float64  `json:"power_factor"`
	Confidence   int      `json:"confidence"`
}

// Values returns the row's cells in ResultColumns order.
func (r ResultRow) Values() []any {
	return []any{
		r.ProductCode,
		r.OptionCode,
		r.OptionName,
		r.ProductName,
		string(r.Category),
		r.CapacityL,
		r.PowerKW,
		r.BoxCm,
		r.NetKg,
		r.GrossKg,
		r.Vol5000,
		r.Vol6000,
		r.Confidence,
		r.DeltaApplied,
		r.Timestamp,
		r.PowerFactor,
	}
}
