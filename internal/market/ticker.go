package market

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// tickerRegex matches exchange symbols such as EMAAR, ADNOCDIST or BRK.B.
var tickerRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,11}$`)

var ErrInvalidTicker = errors.New("market: invalid ticker symbol")

// ValidateTicker reports whether ticker is already a well-formed,
// upper-case symbol.
func ValidateTicker(ticker string) error {
	if !tickerRegex.MatchString(ticker) {
		return fmt.Errorf("%w: %q (expected 1-12 letters, digits, '.' or '-')", ErrInvalidTicker, ticker)
	}
	return nil
}

// NormalizeTicker trims and upper-cases a ticker and validates its format.
func NormalizeTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if err := ValidateTicker(t); err != nil {
		return "", err
	}
	return t, nil
}
