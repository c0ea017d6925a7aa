package market

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/atmx/stock-game/internal/model"
)

// ErrInvalidCSV is returned for any malformed market import file.
var ErrInvalidCSV = errors.New("market: invalid csv")

// CSV column headers. Matching is case-insensitive.
const (
	ColName        = "Company Name"
	ColTicker      = "Ticker Symbol"
	ColSector      = "Sector"
	ColDescription = "Description"
)

func dayColumn(day int) string { return fmt.Sprintf("Day %d", day) }

// ParseCSV reads a market import file: a header row followed by one row per
// company. Required columns are Company Name, Ticker Symbol and Day 1..Day 5;
// Sector and Description are optional. The returned state is meant to replace
// the current companies and price data wholesale.
func ParseCSV(r io.Reader) (model.MarketState, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return model.MarketState{}, fmt.Errorf("%w: empty file", ErrInvalidCSV)
	}
	if err != nil {
		return model.MarketState{}, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	required := []string{ColName, ColTicker}
	for day := model.FirstDay; day <= model.LastDay; day++ {
		required = append(required, dayColumn(day))
	}
	for _, name := range required {
		if _, ok := cols[strings.ToLower(name)]; !ok {
			return model.MarketState{}, fmt.Errorf("%w: missing column %q", ErrInvalidCSV, name)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[strings.ToLower(name)]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var state model.MarketState
	seen := make(map[string]int)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.MarketState{}, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
		line, _ := cr.FieldPos(0)
		if isBlank(rec) {
			continue
		}

		name := field(rec, ColName)
		if name == "" {
			return model.MarketState{}, fmt.Errorf("%w: line %d: empty company name", ErrInvalidCSV, line)
		}
		ticker, err := NormalizeTicker(field(rec, ColTicker))
		if err != nil {
			return model.MarketState{}, fmt.Errorf("%w: line %d: %v", ErrInvalidCSV, line, err)
		}
		if prev, dup := seen[ticker]; dup {
			return model.MarketState{}, fmt.Errorf("%w: line %d: ticker %s already defined on line %d", ErrInvalidCSV, line, ticker, prev)
		}
		seen[ticker] = line

		prices := make([]decimal.Decimal, model.LastDay)
		for day := model.FirstDay; day <= model.LastDay; day++ {
			raw := field(rec, dayColumn(day))
			if raw == "" {
				return model.MarketState{}, fmt.Errorf("%w: line %d: missing %s price", ErrInvalidCSV, line, dayColumn(day))
			}
			p, err := decimal.NewFromString(raw)
			if err != nil {
				return model.MarketState{}, fmt.Errorf("%w: line %d: %s price %q is not a number", ErrInvalidCSV, line, dayColumn(day), raw)
			}
			if p.IsNegative() {
				return model.MarketState{}, fmt.Errorf("%w: line %d: %s price is negative", ErrInvalidCSV, line, dayColumn(day))
			}
			prices[day-1] = p
		}

		state.Companies = append(state.Companies, model.Company{
			ID:          ticker,
			Name:        name,
			Ticker:      ticker,
			Sector:      field(rec, ColSector),
			Description: field(rec, ColDescription),
		})
		state.PriceData = append(state.PriceData, model.PriceRow{
			CompanyID: ticker,
			Day1Price: prices[0],
			Day2Price: prices[1],
			Day3Price: prices[2],
			Day4Price: prices[3],
			Day5Price: prices[4],
		})
	}

	if len(state.Companies) == 0 {
		return model.MarketState{}, fmt.Errorf("%w: no companies", ErrInvalidCSV)
	}
	return state, nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
