package pipeline

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/David-Botos/ddos-prep/pkg/artifact"
	"github.com/David-Botos/ddos-prep/pkg/config"
	"github.com/David-Botos/ddos-prep/pkg/ingestion"
	"github.com/David-Botos/ddos-prep/pkg/model"
)

// Steps selects which stages a TrainingPipeline run executes
type Steps struct {
	Ingest    bool
	Transform bool
}

// AllSteps runs ingestion followed by transformation
var AllSteps = Steps{Ingest: true, Transform: true}

// TrainingPipeline sequences ingestion and transformation for one run and
// writes the run report and metrics
type TrainingPipeline struct {
	cfg    config.Config
	logger *zap.Logger
	source ingestion.Source
}

// NewTrainingPipeline creates a pipeline for cfg
func NewTrainingPipeline(cfg config.Config, logger *zap.Logger) *TrainingPipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrainingPipeline{
		cfg:    cfg,
		logger: logger,
	}
}

// WithSource overrides the source selected by the configuration
func (p *TrainingPipeline) WithSource(source ingestion.Source) *TrainingPipeline {
	p.source = source
	return p
}

// IngestionArtifactFromConfig describes the ingestion outputs of a previous
// run, for running transformation on its own
func IngestionArtifactFromConfig(cfg config.Config) model.DataIngestionArtifact {
	return model.DataIngestionArtifact{
		RawFilePath:   cfg.Ingestion.RawDataPath,
		TrainFilePath: cfg.Ingestion.TrainDataPath,
		TestFilePath:  cfg.Ingestion.TestDataPath,
	}
}

// Run executes ingestion then transformation
func (p *TrainingPipeline) Run(ctx context.Context) (*RunReport, error) {
	return p.RunSteps(ctx, AllSteps)
}

// RunSteps executes the selected stages. The returned report is never nil;
// it is also written to the configured report and metrics paths, whether or
// not the run succeeded.
func (p *TrainingPipeline) RunSteps(ctx context.Context, steps Steps) (report *RunReport, err error) {
	runID := uuid.New().String()
	logger := p.logger.With(zap.String("run_id", runID))
	report = NewRunReport(runID)

	logger.Info("Starting pipeline run",
		zap.Bool("ingest", steps.Ingest),
		zap.Bool("transform", steps.Transform))

	defer func() {
		report.Complete(err)
		if writeErr := p.writeReport(report, logger); writeErr != nil {
			logger.Warn("Failed to write run report", zap.Error(writeErr))
		}
		if err != nil {
			logger.Error("Pipeline run failed", zap.Error(err), zap.Duration("duration", report.Duration))
			return
		}
		logger.Info("Pipeline run completed", zap.Duration("duration", report.Duration))
	}()

	ingested := IngestionArtifactFromConfig(p.cfg)
	if steps.Ingest {
		if ingested, err = p.ingest(ctx, runID, report, logger); err != nil {
			return report, err
		}
	}

	if steps.Transform {
		transformation := NewDataTransformation(p.cfg, runID, logger).WithReport(report)
		if _, err = transformation.Run(ctx, ingested); err != nil {
			return report, err
		}
	}

	return report, nil
}

func (p *TrainingPipeline) ingest(
	ctx context.Context,
	runID string,
	report *RunReport,
	logger *zap.Logger,
) (out model.DataIngestionArtifact, err error) {
	source := p.source
	closeSource := func() error { return nil }
	if source == nil {
		source, closeSource, err = ingestion.OpenSource(ctx, p.cfg, logger)
		if err != nil {
			return out, NewStageError(runID, StageIngestion, err)
		}
	}
	defer func() {
		if closeErr := closeSource(); closeErr != nil {
			logger.Warn("Failed to close source", zap.Error(closeErr))
		}
	}()

	stage := ingestion.NewDataIngestion(p.cfg, source, logger)
	err = runStage(ctx, report, runID, StageIngestion, logger, func() error {
		var err error
		out, err = stage.Run(ctx)
		return err
	})
	if err != nil {
		return out, err
	}

	summary := stage.Summary()
	report.Ingestion = &summary
	report.IngestionFiles = &out
	return out, nil
}

// writeReport persists the JSON report and the metrics textfile
func (p *TrainingPipeline) writeReport(report *RunReport, logger *zap.Logger) error {
	var err error
	if path := p.cfg.Report.ReportPath; path != "" {
		err = multierr.Append(err, artifact.SaveJSON(path, report))
	}
	if path := p.cfg.Report.MetricsPath; path != "" {
		metrics := NewRunMetrics(logger)
		metrics.Observe(report)
		err = multierr.Append(err, metrics.WriteTextfile(path))
	}
	return err
}

// IsCategory reports whether err is a StageError of the given category
func IsCategory(err error, category ErrorCategory) bool {
	var stageErr *StageError
	return errors.As(err, &stageErr) && stageErr.Category == category
}
