package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseNumber parses a scraped or typed numeric cell. Surrounding whitespace
// and a single trailing "%" are dropped; the numeral before "%" is kept as
// is, not divided by 100.
func ParseNumber(s string) (float64, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimSpace(strings.TrimSuffix(t, "%"))
	if t == "" {
		return 0, fmt.Errorf("empty numeric value %q", s)
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value %q", s)
	}
	return v, nil
}
