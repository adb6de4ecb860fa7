package models

import (
	"errors"
	"fmt"
)

// Failure kinds. An *AssetError always wraps exactly one of these, so
// errors.Is(err, ErrNetwork) and friends work on any returned error.
var (
	ErrNetwork    = errors.New("network error")
	ErrExtraction = errors.New("extraction error")
	ErrFormat     = errors.New("format error")
	ErrConfig     = errors.New("config error")
)

// AssetError reports a failure attributed to a single asset.
type AssetError struct {
	Asset string
	Kind  error
	Err   error
}

// NewAssetError builds an AssetError of the given kind.
func NewAssetError(asset string, kind, err error) *AssetError {
	return &AssetError{Asset: asset, Kind: kind, Err: err}
}

func (e *AssetError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Asset, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Asset, e.Kind, e.Err)
}

func (e *AssetError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindName returns a short label for the error kind, used in reports and
// metric labels.
func KindName(kind error) string {
	switch {
	case errors.Is(kind, ErrNetwork):
		return "network"
	case errors.Is(kind, ErrExtraction):
		return "extraction"
	case errors.Is(kind, ErrFormat):
		return "format"
	case errors.Is(kind, ErrConfig):
		return "config"
	default:
		return "unknown"
	}
}
