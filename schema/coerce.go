package schema

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// coerceIdentity passes values through untouched. Used where the Quickbase
// wire representation already matches the interchange schema.
func coerceIdentity(v any) any {
	return v
}

func coerceString(v any) any {
	switch s := v.(type) {
	case nil:
		return nil
	case string:
		return s
	default:
		return fmt.Sprintf("%v", v)
	}
}

// coerceNumber turns numeric strings into numbers and scrubs non-finite
// values, which are valid in Quickbase responses but not in JSON.
func coerceNumber(v any) any {
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		return cleanNumber(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return n
		}
		return cleanNumber(f)
	default:
		return v
	}
}

func cleanNumber(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func coerceInteger(v any) any {
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
		return int64(n)
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return n
		}
		return i
	default:
		return v
	}
}

func coerceBool(v any) any {
	switch b := v.(type) {
	case nil:
		return nil
	case bool:
		return b
	case string:
		switch b {
		case "true", "1":
			return true
		case "false", "0":
			return false
		}
		return b
	default:
		return v
	}
}

// coerceDateTime normalizes epoch-millisecond timestamps to RFC 3339 in UTC.
// Quickbase usually sends ISO strings already; those pass through.
func coerceDateTime(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return t
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		return time.UnixMilli(int64(t)).UTC().Format(time.RFC3339)
	default:
		return v
	}
}
