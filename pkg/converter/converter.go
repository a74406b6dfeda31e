// pkg/converter/converter.go
package converter

import (
	"go.uber.org/zap"
)

// TypeConverter turns database driver values into the text cells held by a
// model.Frame and parses those cells back into floats
type TypeConverter struct {
	logger *zap.Logger
	// Configuration options
	config TypeConverterConfig
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Text written for SQL NULL
	NullText string
	// Layout for time values
	TimeLayout string
	// Whether "null"/"NIL"-style strings are normalized to NullText
	NormalizeNullStrings bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		NullText:             "",
		TimeLayout:           "2006-01-02T15:04:05Z07:00",
		NormalizeNullStrings: true,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TypeConverter{
		logger: logger,
		config: config,
	}
}

// RowToText converts one scanned row to frame cells
func (c *TypeConverter) RowToText(values []interface{}) ([]string, error) {
	cells := make([]string, len(values))
	for i, v := range values {
		text, err := c.ToText(v)
		if err != nil {
			return nil, err
		}
		cells[i] = text
	}
	return cells, nil
}
