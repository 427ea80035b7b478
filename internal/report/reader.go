package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for input files that are neither csv nor xlsx.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Product is one line of a batch input file.
type Product struct {
	Code        string
	Name        string
	SpecText    string
	OptionNames []string
	BoxL        float64
	BoxW        float64
	BoxH        float64
	OptionCount int
	CapacityL   float64
	AllowanceCm float64
	PowerKW     float64
	Line        int
}

// Recognized input columns. Only product_name is required.
const (
	colCode        = "product_code"
	colName        = "product_name"
	colSpec        = "spec_text"
	colOptions     = "option_names"
	colOptionCount = "option_count"
	colCapacity    = "capacity_l"
	colBoxL        = "box_l"
	colBoxW        = "box_w"
	colBoxH        = "box_h"
	colAllowance   = "allowance_cm"
	colPower       = "power_kw"
)

// ReadProducts reads a batch input file. The format follows the extension: .csv or
// .xlsx (first sheet).
func ReadProducts(path string) ([]Product, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path) //nolint:gosec // path is user supplied on purpose
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		return ReadProductsCSV(f)
	case ".xlsx":
		f, err := os.Open(path) //nolint:gosec // path is user supplied on purpose
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		return ReadProductsXLSX(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ReadProductsCSV parses products from CSV with a header line.
func ReadProductsCSV(r io.Reader) ([]Product, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return parseRecords(records)
}

// ReadProductsXLSX parses products from the first sheet of a workbook.
func ReadProductsXLSX(r io.Reader) ([]Product, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return parseRecords(rows)
}

func parseRecords(records [][]string) ([]Product, error) {
	if len(records) == 0 {
		return nil, nil
	}

	index := make(map[string]int)
	for i, h := range records[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := index[colName]; !ok {
		return nil, fmt.Errorf("missing required column %q", colName)
	}

	products := make([]Product, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		get := func(col string) string {
			j, ok := index[col]
			if !ok || j >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[j])
		}

		if get(colName) == "" && get(colCode) == "" {
			continue
		}

		p := Product{
			Line:        line,
			Code:        get(colCode),
			Name:        get(colName),
			SpecText:    get(colSpec),
			OptionNames: splitOptions(get(colOptions)),
		}

		var err error
		fields := []struct {
			dst *float64
			col string
		}{
			{&p.CapacityL, colCapacity},
			{&p.BoxL, colBoxL},
			{&p.BoxW, colBoxW},
			{&p.BoxH, colBoxH},
			{&p.AllowanceCm, colAllowance},
			{&p.PowerKW, colPower},
		}
		for _, fld := range fields {
			if *fld.dst, err = parseNumber(get(fld.col)); err != nil {
				return nil, fmt.Errorf("line %d: column %s: %w", line, fld.col, err)
			}
		}
		count, err := parseNumber(get(colOptionCount))
		if err != nil {
			return nil, fmt.Errorf("line %d: column %s: %w", line, colOptionCount, err)
		}
		p.OptionCount = int(count)

		products = append(products, p)
	}
	return products, nil
}

// splitOptions accepts option names separated by newlines or "|".
func splitOptions(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == '\n' })
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
