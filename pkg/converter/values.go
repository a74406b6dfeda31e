// pkg/converter/values.go
package converter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// ToText converts a driver value to its cell text
func (c *TypeConverter) ToText(value interface{}) (string, error) {
	if c.isNull(value) {
		return c.config.NullText, nil
	}

	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case float64:
		return FormatFloat(v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, bool:
		return fmt.Sprintf("%v", v), nil
	case time.Time:
		return v.Format(c.config.TimeLayout), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		// Try JSON marshaling for complex types
		jsonBytes, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("cannot convert %T to text: %w", value, err)
		}
		return string(jsonBytes), nil
	}
}

// ToFloat64 converts a driver value to a float
func (c *TypeConverter) ToFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return ParseFloat(v)
	case []byte:
		return ParseFloat(string(v))
	case nil:
		return 0, fmt.Errorf("cannot convert NULL to numeric")
	default:
		return 0, fmt.Errorf("cannot convert %T to numeric", value)
	}
}

// isNull determines if a value should be treated as NULL
func (c *TypeConverter) isNull(value interface{}) bool {
	if value == nil {
		return true
	}

	if strVal, ok := value.(string); ok && c.config.NormalizeNullStrings {
		switch strVal {
		case "null", "NULL", "nil", "NIL":
			return true
		}
	}

	return false
}

// ParseFloat parses a numeric cell. Surrounding whitespace is ignored;
// "inf" and "nan" spellings are accepted and left to the caller to reject.
func ParseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("cannot convert string '%s' to numeric", s)
	}
	return v, nil
}

// FormatFloat renders a float with the shortest text that parses back to
// the same value
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// IsFinite reports whether v is neither NaN nor infinite
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
