// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/David-Botos/ddos-prep/pkg/model"
)

// EnvPrefix is the prefix for environment overrides. Nested keys use "__",
// e.g. DDOSPREP__SPLIT__TEST_RATIO=0.25.
const EnvPrefix = "DDOSPREP__"

// Source kinds
const (
	SourceCSV       = "csv"
	SourcePostgres  = "postgres"
	SourceSnowflake = "snowflake"
)

// Edited-nearest-neighbour selection kinds
const (
	KindMode = "mode"
	KindAll  = "all"
)

// Config represents the pipeline configuration
type Config struct {
	Root string `koanf:"root"` // Base directory the default paths were built from

	Ingestion      IngestionConfig      `koanf:"ingestion"`
	Transformation TransformationConfig `koanf:"transformation"`
	Report         ReportConfig         `koanf:"report"`
	Schema         model.Schema         `koanf:"schema"`
	Source         SourceConfig         `koanf:"source"`

	Split    SplitConfig    `koanf:"split"`
	Outlier  OutlierConfig  `koanf:"outlier"`
	Resample ResampleConfig `koanf:"resample"`

	Log LogConfig `koanf:"log"`
}

// IngestionConfig holds the ingestion input and output paths
type IngestionConfig struct {
	SourcePath    string `koanf:"source_path"`
	RawDataPath   string `koanf:"raw_data_path"`
	TrainDataPath string `koanf:"train_data_path"`
	TestDataPath  string `koanf:"test_data_path"`
}

// TransformationConfig holds the transformation output paths. The
// preprocessor and label encoder are each written to two sinks.
type TransformationConfig struct {
	PreprocessorPath      string `koanf:"preprocessor_path"`
	LabelEncoderPath      string `koanf:"label_encoder_path"`
	FinalPreprocessorPath string `koanf:"final_preprocessor_path"`
	FinalLabelEncoderPath string `koanf:"final_label_encoder_path"`
	TransformedTrainPath  string `koanf:"transformed_train_path"`
	TransformedTestPath   string `koanf:"transformed_test_path"`
	ManifestPath          string `koanf:"manifest_path"`
}

// ReportConfig holds the run report outputs. Empty paths disable them.
type ReportConfig struct {
	ReportPath  string `koanf:"report_path"`
	MetricsPath string `koanf:"metrics_path"`
}

// SourceConfig selects where the raw dataset is read from
type SourceConfig struct {
	Kind         string        `koanf:"kind"`   // csv|postgres|snowflake
	Driver       string        `koanf:"driver"` // pgx|postgres, Postgres only
	Query        string        `koanf:"query"`
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// SplitConfig controls the train/test partition
type SplitConfig struct {
	TestRatio float64 `koanf:"test_ratio"`
	Seed      int64   `koanf:"seed"`
}

// OutlierConfig controls IQR clipping
type OutlierConfig struct {
	Multiplier float64 `koanf:"multiplier"`
}

// ResampleConfig controls SMOTE oversampling and ENN cleaning
type ResampleConfig struct {
	Neighbors     int    `koanf:"neighbors"`      // SMOTE k
	EditNeighbors int    `koanf:"edit_neighbors"` // ENN k
	Kind          string `koanf:"kind"`           // mode|all
	Seed          int64  `koanf:"seed"`
	BalanceTest   bool   `koanf:"balance_test"`
}

// LogConfig controls the root logger
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json|console
}

// Default builds a configuration whose paths live under root
func Default(root string) Config {
	artifactDir := filepath.Join(root, "artifact")
	finalDir := filepath.Join(root, "final_object")

	return Config{
		Root: root,
		Ingestion: IngestionConfig{
			SourcePath:    filepath.Join(root, "Network_Traffic_data", "DDos_final.csv"),
			RawDataPath:   filepath.Join(artifactDir, "ddos_raw.csv"),
			TrainDataPath: filepath.Join(artifactDir, "ddos_train.csv"),
			TestDataPath:  filepath.Join(artifactDir, "ddos_test.csv"),
		},
		Transformation: TransformationConfig{
			PreprocessorPath:      filepath.Join(artifactDir, "preprocessor.json"),
			LabelEncoderPath:      filepath.Join(artifactDir, "label_encoder.json"),
			FinalPreprocessorPath: filepath.Join(finalDir, "preprocessor.json"),
			FinalLabelEncoderPath: filepath.Join(finalDir, "label_encoder.json"),
			TransformedTrainPath:  filepath.Join(artifactDir, "train.npy"),
			TransformedTestPath:   filepath.Join(artifactDir, "test.npy"),
			ManifestPath:          filepath.Join(artifactDir, "manifest.json"),
		},
		Report: ReportConfig{
			ReportPath:  filepath.Join(artifactDir, "run_report.json"),
			MetricsPath: filepath.Join(artifactDir, "metrics.prom"),
		},
		Schema: model.DefaultSchema(),
		Source: SourceConfig{
			Kind:         SourceCSV,
			Driver:       "pgx",
			QueryTimeout: 5 * time.Minute,
		},
		Split: SplitConfig{
			TestRatio: 0.2,
			Seed:      42,
		},
		Outlier: OutlierConfig{
			Multiplier: 1.5,
		},
		Resample: ResampleConfig{
			Neighbors:     5,
			EditNeighbors: 3,
			Kind:          KindMode,
			Seed:          42,
			BalanceTest:   true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load merges a YAML file (optional) and DDOSPREP__ environment variables
// over Default(root). The root key itself may be overridden by either
// source; an empty root means the working directory.
func Load(path string) (Config, error) {
	return LoadWithOverrides(path, nil)
}

// LoadWithOverrides is Load with a final layer of dotted keys, e.g.
// {"log.level": "debug"}, applied after the environment
func LoadWithOverrides(path string, overrides map[string]interface{}) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}

	for key, value := range overrides {
		if err := k.Set(key, value); err != nil {
			return Config{}, fmt.Errorf("failed to apply override %s: %w", key, err)
		}
	}

	root := k.String("root")
	if root == "" {
		root = "."
	}
	cfg := Default(root)

	// Slices are decoded element-wise, so an override list must replace
	// the default one rather than overlay it.
	if k.Exists("schema.features") {
		cfg.Schema.Features = nil
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Validate ensures all required configuration is present and valid
func (c Config) Validate() error {
	if err := c.Schema.Validate(); err != nil {
		return err
	}

	paths := map[string]string{
		"ingestion.raw_data_path":                 c.Ingestion.RawDataPath,
		"ingestion.train_data_path":               c.Ingestion.TrainDataPath,
		"ingestion.test_data_path":                c.Ingestion.TestDataPath,
		"transformation.preprocessor_path":        c.Transformation.PreprocessorPath,
		"transformation.label_encoder_path":       c.Transformation.LabelEncoderPath,
		"transformation.final_preprocessor_path":  c.Transformation.FinalPreprocessorPath,
		"transformation.final_label_encoder_path": c.Transformation.FinalLabelEncoderPath,
		"transformation.transformed_train_path":   c.Transformation.TransformedTrainPath,
		"transformation.transformed_test_path":    c.Transformation.TransformedTestPath,
		"transformation.manifest_path":            c.Transformation.ManifestPath,
	}
	for key, value := range paths {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required", key)
		}
	}

	switch c.Source.Kind {
	case SourceCSV:
		if c.Ingestion.SourcePath == "" {
			return errors.New("ingestion.source_path is required for csv sources")
		}
	case SourcePostgres, SourceSnowflake:
		if strings.TrimSpace(c.Source.Query) == "" {
			return fmt.Errorf("source.query is required for %s sources", c.Source.Kind)
		}
		if c.Source.Kind == SourcePostgres && c.Source.Driver != "pgx" && c.Source.Driver != "postgres" {
			return fmt.Errorf("unsupported postgres driver %q", c.Source.Driver)
		}
	default:
		return fmt.Errorf("unsupported source kind %q", c.Source.Kind)
	}

	if c.Split.TestRatio <= 0 || c.Split.TestRatio >= 1 {
		return errors.New("split.test_ratio must be between 0 and 1")
	}

	if c.Outlier.Multiplier <= 0 {
		return errors.New("outlier.multiplier must be positive")
	}

	return c.Resample.Validate()
}

// Validate checks the resampler knobs
func (r ResampleConfig) Validate() error {
	if r.Neighbors < 1 {
		return errors.New("resample.neighbors must be at least 1")
	}
	if r.EditNeighbors < 1 {
		return errors.New("resample.edit_neighbors must be at least 1")
	}
	if r.Kind != KindMode && r.Kind != KindAll {
		return fmt.Errorf("resample.kind must be %q or %q, got %q", KindMode, KindAll, r.Kind)
	}
	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
