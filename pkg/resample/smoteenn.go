// pkg/resample/smoteenn.go
package resample

import (
	"fmt"
	"math/rand"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/David-Botos/ddos-prep/pkg/config"
)

// SMOTEENN balances a labeled matrix: SMOTE on the minority class, then ENN
// over every class of the oversampled set
type SMOTEENN struct {
	cfg    config.ResampleConfig
	logger *zap.Logger
}

// NewSMOTEENN validates cfg and returns a resampler
func NewSMOTEENN(cfg config.ResampleConfig, logger *zap.Logger) (*SMOTEENN, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMOTEENN{cfg: cfg, logger: logger}, nil
}

// Resample returns a new balanced matrix and labels. Each call seeds its own
// generator, so identical input gives identical output.
func (s *SMOTEENN) Resample(x *mat.Dense, y []int) (*mat.Dense, []int, error) {
	before := lo.CountValues(y)

	smote := &SMOTE{K: s.cfg.Neighbors, Rand: rand.New(rand.NewSource(s.cfg.Seed))}
	xs, ys, err := smote.FitResample(x, y)
	if err != nil {
		return nil, nil, fmt.Errorf("smote: %w", err)
	}
	oversampled := len(ys)

	enn := &ENN{K: s.cfg.EditNeighbors, Kind: s.cfg.Kind}
	xr, yr, err := enn.FitResample(xs, ys)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Resampled dataset",
		zap.Int("rows_in", len(y)),
		zap.Int("rows_oversampled", oversampled),
		zap.Int("rows_out", len(yr)),
		zap.Any("classes_before", before),
		zap.Any("classes_after", lo.CountValues(yr)))

	return xr, yr, nil
}
