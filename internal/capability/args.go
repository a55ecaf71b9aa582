package capability

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument marks an invocation whose arguments do not match what
// the command expects.
var ErrInvalidArgument = errors.New("invalid argument")

// String returns a required string argument.
func String(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%w: '%s' is required", ErrInvalidArgument, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: '%s' must be a string, got %T", ErrInvalidArgument, key, v)
	}
	return s, nil
}

// OptionalString returns a string argument or def when it is absent.
func OptionalString(args map[string]any, key, def string) (string, error) {
	if _, ok := args[key]; !ok {
		return def, nil
	}
	return String(args, key)
}

// OptionalBool returns a bool argument or def when it is absent.
func OptionalBool(args map[string]any, key string, def bool) (bool, error) {
	v, ok := args[key]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: '%s' must be a boolean, got %T", ErrInvalidArgument, key, v)
	}
	return b, nil
}

// OptionalInt returns an integer argument or def when it is absent. JSON
// numbers arrive as float64 and must have no fractional part and fit in
// an int.
func OptionalInt(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: '%s' must be an integer, got %v", ErrInvalidArgument, key, n)
		}
		// float64(math.MaxInt) rounds up to a power of two, hence >=.
		if n < math.MinInt || n >= math.MaxInt {
			return 0, fmt.Errorf("%w: '%s' is out of range, got %v", ErrInvalidArgument, key, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: '%s' must be a number, got %T", ErrInvalidArgument, key, v)
	}
}

// OptionalStrings returns a list of strings or nil when absent.
func OptionalStrings(args map[string]any, key string) ([]string, error) {
	v, ok := args[key]
	if !ok {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: '%s[%d]' must be a string, got %T", ErrInvalidArgument, key, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: '%s' must be a list of strings, got %T", ErrInvalidArgument, key, v)
	}
}
