// pkg/converter/mapping.go
package converter

import (
	"strings"
)

// getBaseType extracts the base type from a complex type definition
func getBaseType(fullType string) string {
	parts := strings.Split(fullType, "(")
	return strings.ToUpper(strings.TrimSpace(parts[0]))
}

// IsNumericType reports whether a database type name, as returned by
// sql.ColumnType.DatabaseTypeName for Postgres or Snowflake, holds numbers
func IsNumericType(dbType string) bool {
	switch getBaseType(dbType) {
	// Snowflake
	case "NUMBER", "FIXED", "REAL", "FLOAT", "DOUBLE", "DECIMAL", "INTEGER", "BIGINT":
		return true
	// PostgreSQL
	case "NUMERIC", "INT2", "INT4", "INT8", "FLOAT4", "FLOAT8", "SMALLINT", "DOUBLE PRECISION":
		return true
	default:
		return false
	}
}
