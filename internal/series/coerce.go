package series

import (
	"fmt"

	"github.com/seenimoa/marketweek/pkg/models"
	"github.com/seenimoa/marketweek/pkg/utils"
)

// Coerce converts a scraped cell to float64. Floats pass through unchanged,
// so Coerce is idempotent. Text is trimmed and a trailing "%" is dropped
// without dividing by 100. Anything non-numeric is a format error.
func Coerce(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		f, err := utils.ParseNumber(x)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", models.ErrFormat, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: unsupported value type %T", models.ErrFormat, v)
	}
}

// CoerceAll coerces every cell of a text series.
func CoerceAll(values []string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, s := range values {
		f, err := Coerce(s)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}
