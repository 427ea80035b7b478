package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/weightbot/internal/classification"
	"github.com/Veraticus/weightbot/internal/extract"
	"github.com/Veraticus/weightbot/internal/model"
	"github.com/Veraticus/weightbot/internal/report"
	"github.com/Veraticus/weightbot/internal/service"
)

// MaxOptions caps the number of options expanded for one product.
const MaxOptions = 200

// ErrInvalidRequest is returned for requests that cannot be estimated.
var ErrInvalidRequest = errors.New("invalid estimate request")

// Request describes one product and its options.
type Request struct {
	ProductCode     string           `json:"product_code"`
	ProductName     string           `json:"product_name"`
	SpecText        string           `json:"spec_text"`
	OptionNames     []string         `json:"option_names"`
	ManualDims      model.Dimensions `json:"manual_dims"`
	OptionCount     int              `json:"option_count"`
	ManualCapacityL float64          `json:"manual_capacity_l"`
	AllowanceCm     float64          `json:"allowance_cm"`
	PowerKW         float64          `json:"power_kw"`
}

// Validate rejects negative quantities and unreasonable option counts.
func (r Request) Validate() error {
	if r.OptionCount < 0 || r.OptionCount > MaxOptions {
		return fmt.Errorf("%w: option count must be between 0 and %d", ErrInvalidRequest, MaxOptions)
	}
	if len(r.OptionNames) > MaxOptions {
		return fmt.Errorf("%w: at most %d option names", ErrInvalidRequest, MaxOptions)
	}
	if r.ManualCapacityL < 0 || r.AllowanceCm < 0 || r.PowerKW < 0 {
		return fmt.Errorf("%w: capacity, allowance and power must not be negative", ErrInvalidRequest)
	}
	if r.ManualDims.Length < 0 || r.ManualDims.Width < 0 || r.ManualDims.Height < 0 {
		return fmt.Errorf("%w: box dimensions must not be negative", ErrInvalidRequest)
	}
	return nil
}

// RequestFromProduct converts a batch input line into a request.
func RequestFromProduct(p report.Product) Request {
	return Request{
		ProductCode:     p.Code,
		ProductName:     p.Name,
		SpecText:        p.SpecText,
		OptionNames:     p.OptionNames,
		OptionCount:     p.OptionCount,
		ManualCapacityL: p.CapacityL,
		ManualDims:      model.Dimensions{Length: p.BoxL, Width: p.BoxW, Height: p.BoxH},
		AllowanceCm:     p.AllowanceCm,
		PowerKW:         p.PowerKW,
	}
}

// Output is the estimate for every option of a product.
type Output struct {
	Category  model.Category         `json:"category"`
	Box       model.Dimensions       `json:"box"`
	Rows      []model.ResultRow      `json:"rows"`
	Results   []model.EstimateResult `json:"results"`
	CapacityL float64                `json:"capacity_l"`
}

// Pipeline expands a product request into per-option estimates.
type Pipeline struct {
	estimator     *Estimator
	classifier    *classification.Classifier
	logger        *slog.Logger
	now           func() time.Time
	extraConstant float64
	allowanceCm   float64
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithExtraConstant sets the extra kilograms added by most formulas.
func WithExtraConstant(kg float64) PipelineOption {
	return func(p *Pipeline) { p.extraConstant = kg }
}

// WithDefaultAllowance sets the packing allowance used when a request has none.
func WithDefaultAllowance(cm float64) PipelineOption {
	return func(p *Pipeline) { p.allowanceCm = cm }
}

// WithPipelineClock overrides the row timestamp source.
func WithPipelineClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = logger }
}

// NewPipeline creates a pipeline. A nil classifier uses the built-in dictionary.
func NewPipeline(estimator *Estimator, classifier *classification.Classifier, opts ...PipelineOption) *Pipeline {
	if estimator == nil {
		estimator = NewEstimator()
	}
	if classifier == nil {
		classifier = classification.NewDefaultClassifier()
	}
	p := &Pipeline{
		estimator:     estimator,
		classifier:    classifier,
		logger:        slog.Default(),
		now:           time.Now,
		extraConstant: DefaultExtraKg,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Classifier returns the classifier used for product names.
func (p *Pipeline) Classifier() *classification.Classifier {
	return p.classifier
}

// Estimator returns the underlying estimator.
func (p *Pipeline) Estimator() *Estimator {
	return p.estimator
}

// Run estimates every option of req.
func (p *Pipeline) Run(req Request, deltas service.DeltaSource) (Output, error) {
	if err := req.Validate(); err != nil {
		return Output{}, err
	}

	category := p.classifier.Classify(req.ProductName)
	capacity := firstPositive(
		extract.CapacityLiters(req.ProductName),
		extract.CapacityLiters(req.SpecText),
		req.ManualCapacityL,
	)
	box := p.resolveBox(req)

	out := Output{Category: category, Box: box, CapacityL: capacity}
	now := p.now()

	for i, opt := range expandOptions(req) {
		power := req.PowerKW
		if power <= 0 {
			power = extract.PowerKW(opt.name)
		}
		optCapacity := firstPositive(extract.CapacityLiters(opt.name), capacity)

		in := Input{
			ProductText:   req.ProductName,
			Category:      category,
			Dims:          box,
			CapacityL:     optCapacity,
			PowerKW:       power,
			ExtraConstant: p.extraConstant,
		}
		if w, ok := extract.Weight(opt.name); ok {
			in.NetOverride = &w
		}

		result := p.estimator.Estimate(in, deltas)
		out.Results = append(out.Results, result)
		out.Rows = append(out.Rows, report.BuildRow(report.RowIDs{
			ProductCode: req.ProductCode,
			OptionCode:  opt.code,
			OptionName:  opt.name,
			ProductName: req.ProductName,
		}, optCapacity, box, result, now))

		p.logger.Debug("estimated option",
			"index", i+1,
			"option_code", opt.code,
			"category", category,
			"net_kg", result.NetKg,
			"gross_kg", result.GrossKg,
			"override", in.NetOverride != nil)
	}

	return out, nil
}

// resolveBox picks the base box from the spec text or the default, lets manual axes
// win, re-sorts the merged axes, then pads every axis by the allowance.
func (p *Pipeline) resolveBox(req Request) model.Dimensions {
	base, ok := extract.Dimensions(req.SpecText)
	if !ok {
		base = model.DefaultDimensions
	}
	merged := req.ManualDims.WithFallback(base)
	box := model.NewDimensions(merged.Length, merged.Width, merged.Height)

	allowance := req.AllowanceCm
	if allowance <= 0 {
		allowance = p.allowanceCm
	}
	return box.Pad(allowance)
}

type option struct {
	code string
	name string
}

// expandOptions names the product's options. Without explicit names, OptionCount
// placeholders are generated (at least one).
func expandOptions(req Request) []option {
	names := make([]string, 0, len(req.OptionNames))
	for _, n := range req.OptionNames {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}

	total := len(names)
	if total == 0 {
		total = max(1, req.OptionCount)
	}

	opts := make([]option, 0, total)
	for i := 1; i <= total; i++ {
		code := OptionCode(req.ProductCode, i)
		name := AutoOptionName(code)
		if len(names) > 0 {
			name = names[i-1]
		}
		opts = append(opts, option{code: code, name: name})
	}
	return opts
}

// OptionCode returns "<product>-NN", or "OPT-NN" without a product code.
func OptionCode(productCode string, index int) string {
	productCode = strings.TrimSpace(productCode)
	if productCode == "" {
		return fmt.Sprintf("OPT-%02d", index)
	}
	return fmt.Sprintf("%s-%02d", productCode, index)
}

// AutoOptionName is the placeholder name of an unnamed option.
func AutoOptionName(code string) string {
	return "(자동)" + code
}

// SplitOptionNames splits option text on newlines or "|", dropping blank names.
func SplitOptionNames(text string) []string {
	var names []string
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '|' }) {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names
}

func firstPositive(vals ...float64) float64 {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
