// pkg/transform/persist.go
package transform

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// FormatVersion tags the persisted preprocessor layout
const FormatVersion = "preprocessor.v1"

type persistedTransformer struct {
	Version  string            `json:"version"`
	Features []string          `json:"features"`
	Branches []persistedBranch `json:"branches"`
}

type persistedBranch struct {
	Kind     string    `json:"kind"`
	Mean     []float64 `json:"mean,omitempty"`
	Scale    []float64 `json:"scale,omitempty"`
	Validate bool      `json:"validate,omitempty"`
}

// Save writes the fitted state as JSON. Floats are written in their
// shortest exact form so Load reproduces identical output.
func (t *ColumnTransformer) Save(w io.Writer) error {
	if !t.fitted {
		return ErrNotFitted
	}

	state := persistedTransformer{
		Version:  FormatVersion,
		Features: t.features,
	}
	for _, b := range t.branches {
		switch v := b.(type) {
		case *StandardScaler:
			state.Branches = append(state.Branches, persistedBranch{Kind: v.Name(), Mean: v.Mean, Scale: v.Scale})
		case *CubeRoot:
			state.Branches = append(state.Branches, persistedBranch{Kind: v.Name(), Validate: v.Validate})
		default:
			return fmt.Errorf("cannot persist branch %s", b.Name())
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}

// Load restores a fitted transformer written by Save
func Load(r io.Reader, logger *zap.Logger) (*ColumnTransformer, error) {
	var state persistedTransformer
	if err := json.NewDecoder(r).Decode(&state); err != nil {
		return nil, fmt.Errorf("failed to decode preprocessor: %w", err)
	}
	if state.Version != FormatVersion {
		return nil, fmt.Errorf("preprocessor version %q not supported (want %s)", state.Version, FormatVersion)
	}

	t, err := NewColumnTransformer(state.Features, logger)
	if err != nil {
		return nil, err
	}

	branches := make([]Transformer, 0, len(state.Branches))
	for _, pb := range state.Branches {
		switch pb.Kind {
		case "standard_scaler":
			if len(pb.Mean) != len(state.Features) || len(pb.Scale) != len(state.Features) {
				return nil, fmt.Errorf("standard scaler state does not match %d features", len(state.Features))
			}
			branches = append(branches, &StandardScaler{Mean: pb.Mean, Scale: pb.Scale})
		case "cube_root":
			branches = append(branches, &CubeRoot{Validate: pb.Validate, Columns: t.features})
		default:
			return nil, fmt.Errorf("unknown preprocessor branch %q", pb.Kind)
		}
	}
	if len(branches) == 0 {
		return nil, fmt.Errorf("preprocessor has no branches")
	}

	t.branches = branches
	t.fitted = true
	return t, nil
}
