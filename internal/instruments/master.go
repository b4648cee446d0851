// Package instruments loads the broker scripmaster and resolves symbols
// to tokens, tick sizes and price precision.
package instruments

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	apperrors "noren-desk/internal/errors"
	"noren-desk/internal/models"
)

// Scripmaster column layouts. The file is headerless and tab separated;
// the two revisions in circulation differ by one column, so the loader
// autodetects on width. Row widths other than these are rejected.
const (
	columns14 = 14
	columns15 = 15
)

// row index -> meaning, shared between the two revisions. The 15-column
// revision inserts price precision at index 8 and shifts company to 9.
const (
	colSegment      = 0
	colToken        = 1
	colSymbol       = 3
	colSymbolSeries = 4
	colInstrument   = 5
	colSeries       = 6
	colTickSize     = 7
	colPricePrec15  = 8
	colCompany15    = 9
	colCompany14    = 8
)

// Master is the in-memory scripmaster. Loaded once, immutable for the
// process lifetime.
type Master struct {
	bySymbol       map[string]models.Instrument
	bySymbolSeries map[string]models.Instrument
	byInstrument   map[string]models.Instrument
	count          int
}

// Load reads a headerless tab-separated scripmaster file.
func Load(path string) (*Master, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scripmaster: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads scripmaster rows from a reader.
func Parse(r io.Reader) (*Master, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1 // width validated per row

	m := &Master{
		bySymbol:       make(map[string]models.Instrument),
		bySymbolSeries: make(map[string]models.Instrument),
		byInstrument:   make(map[string]models.Instrument),
	}

	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading scripmaster row %d: %w", line+1, err)
		}
		line++

		inst, keys, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("scripmaster row %d: %w", line, err)
		}

		segKey := strings.ToLower(string(inst.Segment)) + ":"
		if keys.symbol != "" {
			m.bySymbol[segKey+keys.symbol] = inst
		}
		if keys.symbolSeries != "" {
			m.bySymbolSeries[segKey+keys.symbolSeries] = inst
		}
		if keys.instrument != "" {
			m.byInstrument[segKey+keys.instrument] = inst
		}
		m.count++
	}

	return m, nil
}

type rowKeys struct {
	symbol       string
	symbolSeries string
	instrument   string
}

func parseRow(record []string) (models.Instrument, rowKeys, error) {
	var companyIdx int
	pricePrec := models.DefaultPricePrecision

	switch len(record) {
	case columns15:
		companyIdx = colCompany15
		if v, err := strconv.Atoi(strings.TrimSpace(record[colPricePrec15])); err == nil && v >= 0 {
			pricePrec = v
		}
	case columns14:
		companyIdx = colCompany14
	default:
		return models.Instrument{}, rowKeys{}, fmt.Errorf("unexpected column count %d", len(record))
	}

	segment, ok := models.ParseSegment(record[colSegment])
	if !ok {
		return models.Instrument{}, rowKeys{}, fmt.Errorf("unknown segment %q", record[colSegment])
	}

	tickSize := models.DefaultTickSize
	if v, err := strconv.ParseFloat(strings.TrimSpace(record[colTickSize]), 64); err == nil && v > 0 {
		tickSize = v
	}

	inst := models.Instrument{
		Segment:        segment,
		Token:          strings.TrimSpace(record[colToken]),
		Symbol:         strings.TrimSpace(record[colSymbol]),
		Series:         strings.TrimSpace(record[colSeries]),
		TickSize:       tickSize,
		PricePrecision: pricePrec,
		Company:        strings.TrimSpace(record[companyIdx]),
	}

	keys := rowKeys{
		symbol:       strings.ToLower(inst.Symbol),
		symbolSeries: strings.ToLower(strings.TrimSpace(record[colSymbolSeries])),
		instrument:   strings.ToLower(strings.TrimSpace(record[colInstrument])),
	}

	return inst, keys, nil
}

// Count returns the number of loaded instruments.
func (m *Master) Count() int {
	return m.count
}

// Resolve looks up an instrument by symbol and segment. It tries the
// symbol column, then the symbol_series column (index pseudo-symbols),
// then the legacy instrument column; first non-empty match wins.
// Matching is case-insensitive after trimming. A miss returns
// ErrInstrumentNotFound, which callers treat as "cannot trade/chart this
// instrument", not a fatal error.
func (m *Master) Resolve(symbol string, segment models.Segment) (models.Instrument, error) {
	seg, ok := models.ParseSegment(string(segment))
	if !ok {
		return models.Instrument{}, apperrors.ErrInstrumentNotFound
	}

	key := strings.ToLower(string(seg)) + ":" + strings.ToLower(strings.TrimSpace(symbol))

	if inst, ok := m.bySymbol[key]; ok {
		return inst, nil
	}
	if inst, ok := m.bySymbolSeries[key]; ok {
		return inst, nil
	}
	if inst, ok := m.byInstrument[key]; ok {
		return inst, nil
	}

	return models.Instrument{}, apperrors.ErrInstrumentNotFound
}
