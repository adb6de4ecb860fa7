package datasource

import (
	"strings"

	"github.com/seenimoa/marketweek/pkg/models"
	"github.com/seenimoa/marketweek/pkg/utils"
)

// Asset-name sets selecting the non-default HTML strategies.
var (
	rateTableAssets = map[string]bool{
		"€STER":          true,
		"EONIA":          true,
		"Libor 3M (USD)": true,
		"Euribor 3M":     true,
	}
	commodityQuoteAssets = map[string]bool{
		"Brent $/bbl":    true,
		"Gold Spot $/oz": true,
	}
)

// ResolveStrategy picks the extraction strategy for an asset. A non-empty
// override (the registry's Strategy column) wins; otherwise the strategy is
// chosen by membership of the canonical asset name in the fixed sets, with
// the index table as the default.
func ResolveStrategy(name, override string) (models.Strategy, error) {
	if strings.TrimSpace(override) != "" {
		return models.ParseStrategy(override)
	}

	canonical := utils.CanonicalAssetName(name)
	switch {
	case rateTableAssets[canonical]:
		return models.StrategyRateTable, nil
	case commodityQuoteAssets[canonical]:
		return models.StrategyCommodityQuote, nil
	default:
		return models.StrategyIndexTable, nil
	}
}
