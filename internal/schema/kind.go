package schema

import (
	"fmt"
	"math"
	"strconv"
)

// Kind is the storage class of a column.
type Kind int

// Column kinds.
const (
	Text Kind = iota
	Int
	Float
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Int:
		return "int"
	case Float:
		return "float"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// SQLType returns the column type used in CREATE TABLE.
func (k Kind) SQLType() string {
	switch k {
	case Int:
		return "BIGINT"
	case Float:
		return "FLOAT8"
	default:
		return "VARCHAR"
	}
}

// Coerce converts a decoded JSON value to the Go type the drivers expect for
// this kind. nil stays nil. Empty strings become nil for numeric kinds.
func (k Kind) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch k {
	case Text:
		switch x := v.(type) {
		case string:
			return x, nil
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64), nil
		case int64:
			return strconv.FormatInt(x, 10), nil
		case int:
			return strconv.Itoa(x), nil
		case bool:
			return strconv.FormatBool(x), nil
		}

	case Int:
		switch x := v.(type) {
		case float64:
			if math.IsNaN(x) || math.IsInf(x, 0) {
				break
			}
			return int64(math.Round(x)), nil
		case int64:
			return x, nil
		case int:
			return int64(x), nil
		case string:
			if x == "" {
				return nil, nil
			}
			if n, err := strconv.ParseInt(x, 10, 64); err == nil {
				return n, nil
			}
			if f, err := strconv.ParseFloat(x, 64); err == nil {
				return int64(math.Round(f)), nil
			}
		}

	case Float:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int64:
			return float64(x), nil
		case int:
			return float64(x), nil
		case string:
			if x == "" {
				return nil, nil
			}
			if f, err := strconv.ParseFloat(x, 64); err == nil {
				return f, nil
			}
		}
	}

	return nil, fmt.Errorf("cannot convert %T %v to %s", v, v, k)
}
