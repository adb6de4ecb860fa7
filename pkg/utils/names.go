package utils

import (
	"strings"
)

// Spellings seen in registries for the tracked rate series, keyed by the
// upper-cased normalized form.
var assetAliases = map[string]string{
	"€STER":          "€STER",
	"ESTER":          "€STER",
	"ESTR":           "€STER",
	"EURO STR":       "€STER",
	"EONIA":          "EONIA",
	"LIBOR 3M (USD)": "Libor 3M (USD)",
	"USD LIBOR 3M":   "Libor 3M (USD)",
	"EURIBOR 3M":     "Euribor 3M",
	"EURIBOR 3 M":    "Euribor 3M",
	"BRENT $/BBL":    "Brent $/bbl",
	"GOLD SPOT $/OZ": "Gold Spot $/oz",
}

// NormalizeAssetName cleans an asset name as read from a spreadsheet cell:
// non-breaking spaces become spaces, surrounding whitespace is trimmed and
// internal runs of whitespace collapse to one space.
func NormalizeAssetName(name string) string {
	name = strings.ReplaceAll(name, "\u00a0", " ")
	return strings.Join(strings.Fields(name), " ")
}

// CanonicalAssetName maps a known alias to the canonical series name. Unknown
// names are returned normalized but otherwise unchanged.
func CanonicalAssetName(name string) string {
	name = NormalizeAssetName(name)
	if canonical, ok := assetAliases[strings.ToUpper(name)]; ok {
		return canonical
	}
	return name
}
