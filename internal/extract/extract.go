// Package extract pulls capacity, weight, power and box dimensions out of free text such
// as product names, option names and recognized spec sheets. Extractors never fail: a
// miss returns the zero value (and false where a presence flag is returned).
package extract

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Veraticus/weightbot/internal/model"
	"github.com/Veraticus/weightbot/internal/units"
	"golang.org/x/text/unicode/norm"
)

const number = `(\d+(?:\.\d+)?)`

// Unit groups come from the conversion tables so every token matched here converts.
var (
	lengthUnit = unitGroup(units.LengthUnits)
	massUnit   = unitGroup(units.MassUnits)
)

// Plausible product box axis range in centimeters for the fuzzy scan.
const (
	MinPlausibleCm = 5.0
	MaxPlausibleCm = 300.0
	dedupeCm       = 1.0
)

var (
	capacityLitersRe = regexp.MustCompile(number + `\s*(l|리터|升)`)
	capacityMilliRe  = regexp.MustCompile(number + `\s*(ml|毫升)`)
	weightRe         = regexp.MustCompile(number + `\s*` + massUnit)
	kilowattRe       = regexp.MustCompile(number + `kw`)
	wattRe           = regexp.MustCompile(number + `w`)
	strictDimsRe     = regexp.MustCompile(number + `\s*[x*]\s*` + number + `\s*[x*]\s*` + number + `(?:\s*` + lengthUnit + `)?`)
	longFormDimsRe   = regexp.MustCompile(`长\s*` + number + `\s*` + lengthUnit + `?\s*宽\s*` + number + `\s*` + lengthUnit + `?\s*高\s*` + number + `\s*` + lengthUnit + `?`)
	lengthTokenRe    = regexp.MustCompile(number + `\s*` + lengthUnit)
	separatorFolder  = strings.NewReplacer("×", "x", "✕", "x")
)

// unitGroup builds a capturing alternation in table order, so longer tokens listed
// first ("mm" before "m") win.
func unitGroup(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return "(" + strings.Join(quoted, "|") + ")"
}

// Normalize folds compatibility characters (full-width digits and separators, ㎝, ℓ)
// into their plain forms and lower-cases the text.
func Normalize(text string) string {
	return strings.ToLower(separatorFolder.Replace(norm.NFKC.String(text)))
}

// CapacityLiters returns the first liter (or milliliter) quantity in text, in liters.
func CapacityLiters(text string) float64 {
	t := Normalize(text)
	if m := capacityLitersRe.FindStringSubmatch(t); m != nil {
		return parseFloat(m[1])
	}
	if m := capacityMilliRe.FindStringSubmatch(t); m != nil {
		return parseFloat(m[1]) / 1000.0
	}
	return 0
}

// Weight returns the first explicit mass in text, in kilograms rounded to 2 decimals.
func Weight(text string) (float64, bool) {
	m := weightRe.FindStringSubmatch(Normalize(text))
	if m == nil {
		return 0, false
	}
	return round(units.MassToKg(parseFloat(m[1]), m[2]), 2), true
}

// PowerKW returns the first power rating in text, in kilowatts. Kilowatt tokens win over
// watt tokens.
func PowerKW(text string) float64 {
	t := strings.ReplaceAll(Normalize(text), " ", "")
	if t == "" {
		return 0
	}
	if m := kilowattRe.FindStringSubmatch(t); m != nil {
		return parseFloat(m[1])
	}
	if m := wattRe.FindStringSubmatch(t); m != nil {
		return units.PowerToKW(parseFloat(m[1]), "w")
	}
	return 0
}

// DimensionsStrict looks for an explicit "A x B x C [unit]" box or the long form
// "长A宽B高C". Values are converted to centimeters and sorted descending.
func DimensionsStrict(text string) (model.Dimensions, bool) {
	t := Normalize(text)
	if m := strictDimsRe.FindStringSubmatch(t); m != nil {
		unit := m[4]
		if unit == "" {
			unit = "cm"
		}
		return model.NewDimensions(
			units.LengthToCm(parseFloat(m[1]), unit),
			units.LengthToCm(parseFloat(m[2]), unit),
			units.LengthToCm(parseFloat(m[3]), unit),
		), true
	}
	if m := longFormDimsRe.FindStringSubmatch(t); m != nil {
		return model.NewDimensions(
			units.LengthToCm(parseFloat(m[1]), orCm(m[2])),
			units.LengthToCm(parseFloat(m[3]), orCm(m[4])),
			units.LengthToCm(parseFloat(m[5]), orCm(m[6])),
		), true
	}
	return model.Dimensions{}, false
}

// DimensionsFuzzy scans text for every length quantity, keeps the plausible ones,
// drops near duplicates and returns the three largest.
func DimensionsFuzzy(text string) (model.Dimensions, bool) {
	matches := lengthTokenRe.FindAllStringSubmatch(Normalize(text), -1)
	if len(matches) < 3 {
		return model.Dimensions{}, false
	}

	vals := make([]float64, 0, len(matches))
	for _, m := range matches {
		cm := units.LengthToCm(parseFloat(m[1]), m[2])
		if cm >= MinPlausibleCm && cm <= MaxPlausibleCm {
			vals = append(vals, cm)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(vals)))

	kept := make([]float64, 0, 3)
	for _, v := range vals {
		if !nearAny(v, kept) {
			kept = append(kept, v)
		}
	}
	if len(kept) < 3 {
		return model.Dimensions{}, false
	}
	return model.Dimensions{Length: kept[0], Width: kept[1], Height: kept[2]}, true
}

// Dimensions tries the strict pattern first and falls back to the fuzzy scan.
func Dimensions(text string) (model.Dimensions, bool) {
	if d, ok := DimensionsStrict(text); ok {
		return d, true
	}
	return DimensionsFuzzy(text)
}

func nearAny(v float64, kept []float64) bool {
	for _, k := range kept {
		if math.Abs(v-k) < dedupeCm {
			return true
		}
	}
	return false
}

func orCm(unit string) string {
	if unit == "" {
		return "cm"
	}
	return unit
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
