package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/David-Botos/ddos-prep/pkg/artifact"
	"github.com/David-Botos/ddos-prep/pkg/cleaner"
	"github.com/David-Botos/ddos-prep/pkg/config"
	"github.com/David-Botos/ddos-prep/pkg/encoder"
	"github.com/David-Botos/ddos-prep/pkg/ingestion"
	"github.com/David-Botos/ddos-prep/pkg/model"
	"github.com/David-Botos/ddos-prep/pkg/resample"
	"github.com/David-Botos/ddos-prep/pkg/transform"
)

// DataTransformation turns the ingested train/test CSVs into model-ready
// arrays plus the fitted preprocessor and label encoder
type DataTransformation struct {
	cfg    config.Config
	runID  string
	logger *zap.Logger
	report *RunReport
}

// NewDataTransformation creates the transformation stage for one run
func NewDataTransformation(cfg config.Config, runID string, logger *zap.Logger) *DataTransformation {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataTransformation{
		cfg:    cfg,
		runID:  runID,
		logger: logger.Named("transformation"),
		report: NewRunReport(runID),
	}
}

// WithReport records stage results into report instead of a private one
func (t *DataTransformation) WithReport(report *RunReport) *DataTransformation {
	t.report = report
	return t
}

// Report returns the report the stage records into
func (t *DataTransformation) Report() *RunReport {
	return t.report
}

// split carries one partition through the stage
type split struct {
	name   model.Split
	frame  *model.Frame
	labels []int
	x      *mat.Dense
	result SplitResult
}

// Run executes the stage. On failure every file this call wrote is removed
// and the error is a *StageError.
func (t *DataTransformation) Run(
	ctx context.Context,
	in model.DataIngestionArtifact,
) (out model.DataTransformationArtifact, err error) {
	t.logger.Info("Entered the data transformation stage", zap.String("run_id", t.runID))

	var written []string
	defer func() {
		if err == nil {
			return
		}
		if rmErr := artifact.Remove(written...); rmErr != nil {
			t.logger.Warn("Failed to remove partial artifacts", zap.Error(rmErr))
		}
		t.logger.Error("Data transformation failed", zap.Error(err))
	}()

	features := t.cfg.Schema.Features
	target := t.cfg.Schema.Target
	train := &split{name: model.SplitTrain}
	test := &split{name: model.SplitTest}

	if err := t.stage(ctx, StageReadData, func() error {
		var err error
		if train.frame, err = ingestion.ReadCSV(in.TrainFilePath); err != nil {
			return err
		}
		if test.frame, err = ingestion.ReadCSV(in.TestFilePath); err != nil {
			return err
		}
		for _, s := range []*split{train, test} {
			if err := s.frame.RequireColumns(t.cfg.Schema.Columns()...); err != nil {
				return err
			}
			s.result = SplitResult{Split: s.name, RowsIn: s.frame.Len()}
		}
		t.logger.Info("Read train and test data completed",
			zap.Int("train_rows", train.frame.Len()),
			zap.Int("test_rows", test.frame.Len()))
		return nil
	}); err != nil {
		return out, err
	}

	if err := t.stage(ctx, StageClip, func() error {
		clipper, err := cleaner.NewOutlierClipper(t.cfg.Outlier.Multiplier, t.logger)
		if err != nil {
			return err
		}
		for _, s := range []*split{train, test} {
			ops, err := clipper.ClipColumns(s.frame, features, s.name)
			if err != nil {
				return err
			}
			t.report.Clips = append(t.report.Clips, ops...)
		}
		return nil
	}); err != nil {
		return out, err
	}

	enc := encoder.NewLabelEncoder()
	if err := t.stage(ctx, StageEncode, func() error {
		trainLabels, err := train.frame.Column(target)
		if err != nil {
			return err
		}
		if train.labels, err = enc.FitTransform(trainLabels); err != nil {
			return err
		}
		testLabels, err := test.frame.Column(target)
		if err != nil {
			return err
		}
		if test.labels, err = enc.Transform(testLabels); err != nil {
			return err
		}
		t.report.Classes = enc.Classes()
		t.logger.Info("Encoded target labels", zap.Strings("classes", enc.Classes()))
		return nil
	}); err != nil {
		return out, err
	}

	preprocessor, err := transform.NewColumnTransformer(features, t.logger)
	if err != nil {
		return out, NewStageError(t.runID, StageTransform, err)
	}
	if err := t.stage(ctx, StageTransform, func() error {
		t.logger.Info("Applying preprocessing object on training and testing data")
		var err error
		if train.x, err = preprocessor.FitTransform(train.frame); err != nil {
			return err
		}
		if test.x, err = preprocessor.Transform(test.frame); err != nil {
			return err
		}
		return nil
	}); err != nil {
		return out, err
	}

	if err := t.stage(ctx, StageResample, func() error {
		balancer, err := resample.NewSMOTEENN(t.cfg.Resample, t.logger)
		if err != nil {
			return err
		}
		for _, s := range []*split{train, test} {
			s.result.ClassesBefore = classCounts(enc, s.labels)
			if s.name == model.SplitTest && !t.cfg.Resample.BalanceTest {
				s.result.ClassesAfter = s.result.ClassesBefore
				continue
			}
			x, y, err := balancer.Resample(s.x, s.labels)
			if err != nil {
				return fmt.Errorf("%s split: %w", s.name, err)
			}
			s.x, s.labels = x, y
			s.result.ClassesAfter = classCounts(enc, y)
			s.result.Resampled = true
		}
		return nil
	}); err != nil {
		return out, err
	}

	paths := t.cfg.Transformation
	if err := t.stage(ctx, StagePersist, func() error {
		arrays := []struct {
			s    *split
			path string
		}{
			{train, paths.TransformedTrainPath},
			{test, paths.TransformedTestPath},
		}
		for _, a := range arrays {
			labeled, err := artifact.LabeledMatrix(a.s.x, a.s.labels)
			if err != nil {
				return err
			}
			if err := artifact.SaveArray(a.path, labeled); err != nil {
				return err
			}
			written = append(written, a.path)
			a.s.result.RowsOut, a.s.result.Features = a.s.x.Dims()
		}

		sinks := []string{paths.PreprocessorPath, paths.FinalPreprocessorPath}
		if err := artifact.WriteSinks(sinks, preprocessor.Save); err != nil {
			return err
		}
		written = append(written, sinks...)
		t.logger.Info("Saved preprocessing object", zap.Strings("paths", sinks))

		sinks = []string{paths.LabelEncoderPath, paths.FinalLabelEncoderPath}
		if err := artifact.WriteSinks(sinks, enc.Save); err != nil {
			return err
		}
		written = append(written, sinks...)

		manifest, err := artifact.BuildManifest(t.runID, written...)
		if err != nil {
			return err
		}
		if err := artifact.SaveManifest(paths.ManifestPath, manifest); err != nil {
			return err
		}
		written = append(written, paths.ManifestPath)
		return nil
	}); err != nil {
		return out, err
	}

	t.report.Splits = append(t.report.Splits, train.result, test.result)

	out = model.DataTransformationArtifact{
		TransformedTrainFilePath: paths.TransformedTrainPath,
		TransformedTestFilePath:  paths.TransformedTestPath,
		PreprocessorFilePath:     paths.PreprocessorPath,
		LabelEncoderFilePath:     paths.LabelEncoderPath,
		ManifestFilePath:         paths.ManifestPath,
	}
	t.report.Artifacts = &out

	t.logger.Info("Data transformation completed",
		zap.Int("train_rows", train.result.RowsOut),
		zap.Int("test_rows", test.result.RowsOut),
		zap.Int("features", train.result.Features))
	return out, nil
}

// stage runs fn as one named step, recording its timing and wrapping its
// error. A canceled context stops the run before the step starts.
func (t *DataTransformation) stage(ctx context.Context, name Stage, fn func() error) error {
	return runStage(ctx, t.report, t.runID, name, t.logger, fn)
}

func runStage(
	ctx context.Context,
	report *RunReport,
	runID string,
	name Stage,
	logger *zap.Logger,
	fn func() error,
) error {
	start := time.Now()
	err := ctx.Err()
	if err == nil {
		err = fn()
	}
	report.AddStage(name, start, err == nil)
	if err != nil {
		return NewStageError(runID, name, err)
	}
	logger.Debug("Stage completed",
		zap.String("stage", string(name)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// classCounts counts labels by class name
func classCounts(enc *encoder.LabelEncoder, codes []int) map[string]int {
	classes := enc.Classes()
	return lo.CountValuesBy(codes, func(code int) string {
		if code >= 0 && code < len(classes) {
			return classes[code]
		}
		return fmt.Sprintf("code_%d", code)
	})
}
