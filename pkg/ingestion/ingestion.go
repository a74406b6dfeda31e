// pkg/ingestion/ingestion.go
package ingestion

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/ddos-prep/pkg/config"
	"github.com/David-Botos/ddos-prep/pkg/model"
)

// Summary describes what one ingestion run read and wrote
type Summary struct {
	SourceRows int `json:"source_rows"`
	Duplicates int `json:"duplicates"`
	TrainRows  int `json:"train_rows"`
	TestRows   int `json:"test_rows"`
}

// DataIngestion loads the raw dataset, deduplicates it and writes the
// raw/train/test CSV artifacts
type DataIngestion struct {
	cfg     config.Config
	source  Source
	logger  *zap.Logger
	summary Summary
}

// NewDataIngestion creates an ingestion stage reading from source
func NewDataIngestion(cfg config.Config, source Source, logger *zap.Logger) *DataIngestion {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataIngestion{
		cfg:    cfg,
		source: source,
		logger: logger.Named("ingestion"),
	}
}

// Summary returns the counts from the last successful Run
func (d *DataIngestion) Summary() Summary {
	return d.summary
}

// Run executes the stage and returns the paths it wrote
func (d *DataIngestion) Run(ctx context.Context) (model.DataIngestionArtifact, error) {
	d.logger.Info("Entered the data ingestion stage")

	frame, err := d.source.Load(ctx)
	if err != nil {
		return model.DataIngestionArtifact{}, err
	}
	d.logger.Info("Read the dataset",
		zap.Int("rows", frame.Len()),
		zap.Int("columns", len(frame.Columns)))

	if err := frame.RequireColumns(d.cfg.Schema.Columns()...); err != nil {
		return model.DataIngestionArtifact{}, err
	}

	deduped, dropped := DropDuplicates(frame)
	d.logger.Info("Dropped duplicate rows",
		zap.Int("duplicates", dropped),
		zap.Int("rows", deduped.Len()))

	if err := ctx.Err(); err != nil {
		return model.DataIngestionArtifact{}, err
	}

	paths := d.cfg.Ingestion
	if err := WriteCSV(paths.RawDataPath, deduped); err != nil {
		return model.DataIngestionArtifact{}, err
	}

	train, test, err := TrainTestSplit(deduped, d.cfg.Split.TestRatio, d.cfg.Split.Seed)
	if err != nil {
		return model.DataIngestionArtifact{}, fmt.Errorf("train test split failed: %w", err)
	}
	d.logger.Info("Train test split completed",
		zap.Int("train_rows", train.Len()),
		zap.Int("test_rows", test.Len()),
		zap.Int64("seed", d.cfg.Split.Seed))

	if err := WriteCSV(paths.TrainDataPath, train); err != nil {
		return model.DataIngestionArtifact{}, err
	}
	if err := WriteCSV(paths.TestDataPath, test); err != nil {
		return model.DataIngestionArtifact{}, err
	}

	d.summary = Summary{
		SourceRows: frame.Len(),
		Duplicates: dropped,
		TrainRows:  train.Len(),
		TestRows:   test.Len(),
	}

	d.logger.Info("Data ingestion completed",
		zap.String("raw", paths.RawDataPath),
		zap.String("train", paths.TrainDataPath),
		zap.String("test", paths.TestDataPath))

	return model.DataIngestionArtifact{
		RawFilePath:   paths.RawDataPath,
		TrainFilePath: paths.TrainDataPath,
		TestFilePath:  paths.TestDataPath,
	}, nil
}
