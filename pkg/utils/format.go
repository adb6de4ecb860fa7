package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatPct formats a simple return as a signed percentage.
// e.g., 0.0245 → "+2.45%", -0.0123 → "-1.23%"
func FormatPct(ret float64) string {
	if math.IsNaN(ret) || math.IsInf(ret, 0) {
		return "n/a"
	}
	pct := ret * 100
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatBasisPoints formats a change in basis points with sign and suffix.
// e.g., 5 → "+5.0 bp", -12.4 → "-12.4 bp"
func FormatBasisPoints(bp float64) string {
	if math.IsNaN(bp) || math.IsInf(bp, 0) {
		return "n/a"
	}
	if bp >= 0 {
		return fmt.Sprintf("+%.1f bp", bp)
	}
	return fmt.Sprintf("%.1f bp", bp)
}

// FormatValue formats a level with up to 4 decimal places, removing
// trailing zeros.
func FormatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	s := fmt.Sprintf("%.4f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}
