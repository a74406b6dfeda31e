// pkg/cleaner/clipper.go
package cleaner

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/David-Botos/ddos-prep/pkg/converter"
	"github.com/David-Botos/ddos-prep/pkg/model"
)

// DataError reports a column that cannot be interpreted as numeric data.
// Row is -1 when the column as a whole is unusable.
type DataError struct {
	Column string
	Row    int
	Value  string
}

func (e *DataError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("column %q contains no numeric data", e.Column)
	}
	return fmt.Sprintf("column %q row %d: non-numeric value %q", e.Column, e.Row, e.Value)
}

// OutlierClipper winsorizes numeric columns to [Q1 - m*IQR, Q3 + m*IQR]
type OutlierClipper struct {
	multiplier float64
	logger     *zap.Logger
}

// NewOutlierClipper creates a clipper with the given IQR multiplier
func NewOutlierClipper(multiplier float64, logger *zap.Logger) (*OutlierClipper, error) {
	if multiplier <= 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return nil, errors.New("IQR multiplier must be a positive finite number")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OutlierClipper{
		multiplier: multiplier,
		logger:     logger,
	}, nil
}

// Clip winsorizes one column of frame in place. Bounds come from this frame
// only. Cells already inside the bounds keep their original text.
func (c *OutlierClipper) Clip(frame *model.Frame, column string, split model.Split) (model.ClipOperation, error) {
	idx, err := frame.ColumnIndex(column)
	if err != nil {
		return model.ClipOperation{}, err
	}

	values := make([]float64, frame.Len())
	for i, row := range frame.Rows {
		v, err := converter.ParseFloat(row[idx])
		if err != nil {
			return model.ClipOperation{}, &DataError{Column: column, Row: i, Value: row[idx]}
		}
		values[i] = v
	}

	q1, q3, ok := quartiles(values)
	if !ok {
		return model.ClipOperation{}, &DataError{Column: column, Row: -1}
	}

	iqr := q3 - q1
	op := model.ClipOperation{
		Column: column,
		Split:  split,
		Q1:     q1,
		Q3:     q3,
		Lower:  q1 - c.multiplier*iqr,
		Upper:  q3 + c.multiplier*iqr,
	}

	for i, v := range values {
		switch {
		case v > op.Upper:
			frame.Rows[i][idx] = converter.FormatFloat(op.Upper)
			op.ClippedHigh++
		case v < op.Lower:
			frame.Rows[i][idx] = converter.FormatFloat(op.Lower)
			op.ClippedLow++
		}
	}

	c.logger.Debug("Clipped column",
		zap.String("column", column),
		zap.String("split", string(split)),
		zap.Float64("lower", op.Lower),
		zap.Float64("upper", op.Upper),
		zap.Int("clipped_low", op.ClippedLow),
		zap.Int("clipped_high", op.ClippedHigh))

	return op, nil
}

// ClipColumns clips each column independently and returns one audit record
// per column. The first failing column aborts the pass.
func (c *OutlierClipper) ClipColumns(frame *model.Frame, columns []string, split model.Split) ([]model.ClipOperation, error) {
	ops := make([]model.ClipOperation, 0, len(columns))
	total := 0

	for _, column := range columns {
		op, err := c.Clip(frame, column, split)
		if err != nil {
			return ops, fmt.Errorf("failed to clip %s column %q: %w", split, column, err)
		}
		ops = append(ops, op)
		total += op.Clipped()
	}

	c.logger.Info("Outlier clipping complete",
		zap.String("split", string(split)),
		zap.Int("columns", len(columns)),
		zap.Int("rows", frame.Len()),
		zap.Int("cells_clipped", total))

	return ops, nil
}
