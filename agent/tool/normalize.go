package tool

import (
	"fmt"
	"strings"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
)

// categoryDelimiters are the separators models are known to smuggle into a
// single type argument.
const categoryDelimiters = "|,;"

// normalizeCategory coerces the loosely-typed type/category argument into a
// single lowercase token. A collection collapses to its first element and a
// delimiter-joined string to its first segment; both cases report diagnostic
// text so the gateway can log the discarded remainder.
func normalizeCategory(raw any) (string, string, error) {
	var value string
	var diag string

	switch v := raw.(type) {
	case nil:
		return "", "", fmt.Errorf("%w: category is required", contractx.ErrInvalidArgument)
	case string:
		value = v
	case []string:
		if len(v) == 0 {
			return "", "", fmt.Errorf("%w: category list is empty", contractx.ErrInvalidArgument)
		}
		value = v[0]
		if len(v) > 1 {
			diag = fmt.Sprintf("category list collapsed to first element, dropped %d", len(v)-1)
		}
	case []any:
		if len(v) == 0 {
			return "", "", fmt.Errorf("%w: category list is empty", contractx.ErrInvalidArgument)
		}
		first, ok := v[0].(string)
		if !ok {
			return "", "", fmt.Errorf("%w: category list holds a non-string element", contractx.ErrInvalidArgument)
		}
		value = first
		if len(v) > 1 {
			diag = fmt.Sprintf("category list collapsed to first element, dropped %d", len(v)-1)
		}
	default:
		return "", "", fmt.Errorf("%w: category must be a string or list of strings", contractx.ErrInvalidArgument)
	}

	if i := strings.IndexAny(value, categoryDelimiters); i >= 0 {
		diag = fmt.Sprintf("category %q split on delimiter, kept first segment", value)
		value = value[:i]
	}

	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "", "", fmt.Errorf("%w: category is empty", contractx.ErrInvalidArgument)
	}
	return value, diag, nil
}

// clampTopK applies the default and upper bound to the requested result count.
func clampTopK(raw any, def, max int) int {
	k := def
	switch v := raw.(type) {
	case int:
		k = v
	case int64:
		k = int(v)
	case float64:
		// JSON numbers decode as float64.
		k = int(v)
	}
	if k <= 0 {
		k = def
	}
	if k > max {
		k = max
	}
	return k
}

// placeFilter reads the optional filters bag. Unknown filter keys are
// ignored so new model-side filters degrade gracefully.
func placeFilter(raw any) (contractx.PlaceFilter, error) {
	if raw == nil {
		return contractx.PlaceFilter{}, nil
	}
	bag, ok := raw.(map[string]any)
	if !ok {
		return contractx.PlaceFilter{}, fmt.Errorf("%w: filters must be an object", contractx.ErrInvalidArgument)
	}
	var filter contractx.PlaceFilter
	if tier, ok := intArg(bag, "price_tier"); ok {
		if tier < 0 {
			return contractx.PlaceFilter{}, fmt.Errorf("%w: price_tier must be non-negative", contractx.ErrInvalidArgument)
		}
		filter.PriceTier = tier
	}
	return filter, nil
}

// embeddingArg reads the optional precomputed query vector. Present but
// malformed values are an argument error, not a silent fallback to text.
func embeddingArg(raw any) ([]float32, bool, error) {
	if raw == nil {
		return nil, false, nil
	}
	elems, ok := raw.([]any)
	if !ok {
		return nil, false, fmt.Errorf("%w: query_embedding must be a number array", contractx.ErrInvalidArgument)
	}
	if len(elems) == 0 {
		return nil, false, fmt.Errorf("%w: query_embedding is empty", contractx.ErrInvalidArgument)
	}
	vec := make([]float32, len(elems))
	for i, e := range elems {
		f, ok := e.(float64)
		if !ok {
			return nil, false, fmt.Errorf("%w: query_embedding holds a non-number element", contractx.ErrInvalidArgument)
		}
		vec[i] = float32(f)
	}
	return vec, true, nil
}

// intArg reads an optional numeric argument; absent or non-numeric values
// report false.
func intArg(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// floatArg reads an optional fractional argument; absent or non-numeric
// values report false.
func floatArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// stringListArg reads an optional string array, tolerating the []any shape
// JSON decoding produces.
func stringListArg(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func requireStringArg(args map[string]any, key string) (string, error) {
	v := stringArg(args, key)
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", contractx.ErrInvalidArgument, key)
	}
	return v, nil
}
