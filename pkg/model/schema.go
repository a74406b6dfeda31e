// pkg/model/schema.go
package model

import (
	"errors"
	"fmt"
	"strings"
)

// DDoS traffic export column names. The leading spaces are part of the
// header written by the flow meter and are kept verbatim.
var DDoSFeatures = []string{
	" Packet Length Std",
	" Bwd Packet Length Mean",
	"Bwd Packet Length Max",
	" Average Packet Size",
	" Packet Length Variance",
	" Packet Length Mean",
	" Max Packet Length",
	" Bwd Packet Length Std",
	" Avg Bwd Segment Size",
}

const DDoSTarget = " Label"

// Schema names the numeric feature columns and the label column
type Schema struct {
	Features []string `koanf:"features"` // Numeric input columns, in output order
	Target   string   `koanf:"target"`   // Categorical label column
}

// DefaultSchema returns the DDoS feature set
func DefaultSchema() Schema {
	return Schema{
		Features: append([]string(nil), DDoSFeatures...),
		Target:   DDoSTarget,
	}
}

// Columns returns features followed by the target
func (s Schema) Columns() []string {
	return append(append([]string(nil), s.Features...), s.Target)
}

// Validate checks for empty or duplicated names
func (s Schema) Validate() error {
	if len(s.Features) == 0 {
		return errors.New("schema must name at least one feature column")
	}
	if strings.TrimSpace(s.Target) == "" {
		return errors.New("schema target column is required")
	}

	seen := make(map[string]bool, len(s.Features)+1)
	for _, name := range s.Columns() {
		key := strings.TrimSpace(name)
		if key == "" {
			return errors.New("schema contains an empty column name")
		}
		if seen[key] {
			return fmt.Errorf("schema column %q listed twice", name)
		}
		seen[key] = true
	}
	return nil
}

// SchemaError reports an expected column absent from a table
type SchemaError struct {
	Column    string
	Available []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("column %q not found (have %d columns)", e.Column, len(e.Available))
}
