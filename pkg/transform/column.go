// pkg/transform/column.go
package transform

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/David-Botos/ddos-prep/pkg/converter"
	"github.com/David-Botos/ddos-prep/pkg/model"
)

// ColumnTransformer selects a fixed list of numeric feature columns from a
// frame and feeds the same selection to every branch. Branch outputs are
// concatenated left to right; all other columns are dropped.
type ColumnTransformer struct {
	features []string
	branches []Transformer
	fitted   bool
	logger   *zap.Logger
}

// NewColumnTransformer builds the scaler | cube-root pair over features
func NewColumnTransformer(features []string, logger *zap.Logger) (*ColumnTransformer, error) {
	if len(features) == 0 {
		return nil, errors.New("column transformer needs at least one feature")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	names := append([]string(nil), features...)
	return &ColumnTransformer{
		features: names,
		branches: []Transformer{
			NewStandardScaler(),
			&CubeRoot{Validate: true, Columns: names},
		},
		logger: logger,
	}, nil
}

// Features returns the selected input columns
func (t *ColumnTransformer) Features() []string {
	return append([]string(nil), t.features...)
}

// OutputWidth is len(features) times the number of branches
func (t *ColumnTransformer) OutputWidth() int {
	return len(t.features) * len(t.branches)
}

// Fitted reports whether Fit has completed
func (t *ColumnTransformer) Fitted() bool {
	return t.fitted
}

// Fit learns every branch from frame. Call it with training data only.
func (t *ColumnTransformer) Fit(frame *model.Frame) error {
	x, err := t.Matrix(frame)
	if err != nil {
		return err
	}

	for _, b := range t.branches {
		if err := b.Fit(x); err != nil {
			return fmt.Errorf("failed to fit %s: %w", b.Name(), err)
		}
	}

	t.fitted = true
	rows, _ := x.Dims()
	t.logger.Info("Fitted column transformer",
		zap.Int("rows", rows),
		zap.Int("features", len(t.features)),
		zap.Int("output_width", t.OutputWidth()))
	return nil
}

// Transform applies the fitted branches without refitting
func (t *ColumnTransformer) Transform(frame *model.Frame) (*mat.Dense, error) {
	if !t.fitted {
		return nil, ErrNotFitted
	}

	x, err := t.Matrix(frame)
	if err != nil {
		return nil, err
	}
	return t.TransformMatrix(x)
}

// FitTransform fits on frame and transforms it
func (t *ColumnTransformer) FitTransform(frame *model.Frame) (*mat.Dense, error) {
	if err := t.Fit(frame); err != nil {
		return nil, err
	}
	return t.Transform(frame)
}

// TransformMatrix applies the fitted branches to an already selected
// feature matrix whose columns follow Features()
func (t *ColumnTransformer) TransformMatrix(x mat.Matrix) (*mat.Dense, error) {
	if !t.fitted {
		return nil, ErrNotFitted
	}

	rows, cols := x.Dims()
	if cols != len(t.features) {
		return nil, fmt.Errorf("expected %d feature columns, got %d", len(t.features), cols)
	}

	out := mat.NewDense(rows, t.OutputWidth(), nil)
	for k, b := range t.branches {
		part, err := b.Transform(x)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		out.Slice(0, rows, k*cols, (k+1)*cols).(*mat.Dense).Copy(part)
	}
	return out, nil
}

// Matrix parses the feature columns of frame into a rows x features
// matrix. Non-numeric cells are rejected with a ValidationError.
func (t *ColumnTransformer) Matrix(frame *model.Frame) (*mat.Dense, error) {
	if frame.Len() == 0 {
		return nil, errors.New("column transformer: frame has no rows")
	}

	idx := make([]int, len(t.features))
	for j, name := range t.features {
		i, err := frame.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		idx[j] = i
	}

	data := make([]float64, frame.Len()*len(t.features))
	for i, row := range frame.Rows {
		for j, col := range idx {
			v, err := converter.ParseFloat(row[col])
			if err != nil {
				return nil, &ValidationError{
					Column: t.features[j],
					Row:    i,
					Value:  row[col],
					Reason: "input must be numeric",
				}
			}
			data[i*len(idx)+j] = v
		}
	}
	return mat.NewDense(frame.Len(), len(idx), data), nil
}
