// Package decimalx wraps shopspring/decimal for the string-encoded numbers exchanges return.
package decimalx

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseFloat parses an exchange decimal string into a float64.
// name is used in the error message only.
func ParseFloat(name, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("field %s is empty", name)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", name, err)
	}
	return d.InexactFloat64(), nil
}

// FloatParser collects the first parse error over several fields, so a converter
// can parse a whole struct and check the error once.
type FloatParser struct {
	err error
}

func (p *FloatParser) Parse(name, s string) float64 {
	if p.err != nil {
		return 0
	}
	f, err := ParseFloat(name, s)
	if err != nil {
		p.err = err
		return 0
	}
	return f
}

func (p *FloatParser) Err() error {
	return p.err
}
