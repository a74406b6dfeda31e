package main

import (
	"fmt"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/David-Botos/ddos-prep/pkg/config"
	"github.com/David-Botos/ddos-prep/pkg/pipeline"
)

const (
	flagConfig    = "config"
	flagEnvFile   = "env-file"
	flagRoot      = "root"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
)

var app = &cli.App{
	Name:            "ddosprep",
	Usage:           "prepare the DDoS traffic dataset for model training",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Value:   "ddosprep.yaml",
			Usage:   "load configuration from `FILE`",
		},
		&cli.StringFlag{
			Name:  flagEnvFile,
			Value: ".env",
			Usage: "load environment variables from `FILE` before reading the configuration",
		},
		&cli.StringFlag{
			Name:  flagRoot,
			Usage: "base `DIR` for the default input and artifact paths",
		},
		&cli.StringFlag{
			Name:  flagLogLevel,
			Usage: "log level (debug, info, warn, error)",
		},
		&cli.StringFlag{
			Name:  flagLogFormat,
			Usage: "log format (json, console)",
		},
	},
	Commands: []*cli.Command{
		{
			Name:   "run",
			Usage:  "ingest the raw dataset and transform it",
			Action: runAction(pipeline.AllSteps),
		},
		{
			Name:   "ingest",
			Usage:  "deduplicate and split the raw dataset into train and test CSVs",
			Action: runAction(pipeline.Steps{Ingest: true}),
		},
		{
			Name:   "transform",
			Usage:  "clip, encode, transform and balance the train and test CSVs",
			Action: runAction(pipeline.Steps{Transform: true}),
		},
		{
			Name:   "verify",
			Usage:  "check persisted arrays and objects against the manifest",
			Action: verifyAction,
		},
	},
}

// loadConfig reads the env file, the config file and the flag overrides
func loadConfig(c *cli.Context) (config.Config, error) {
	if err := config.LoadEnvFile(c.String(flagEnvFile)); err != nil {
		return config.Config{}, err
	}

	overrides := map[string]interface{}{}
	if c.IsSet(flagRoot) {
		overrides["root"] = c.String(flagRoot)
	}
	if c.IsSet(flagLogLevel) {
		overrides["log.level"] = c.String(flagLogLevel)
	}
	if c.IsSet(flagLogFormat) {
		overrides["log.format"] = c.String(flagLogFormat)
	}
	return config.LoadWithOverrides(c.String(flagConfig), overrides)
}

// newLogger builds the root logger from the log settings
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var zcfg zap.Config
	switch cfg.Format {
	case "", "json":
		zcfg = zap.NewProductionConfig()
	case "console":
		zcfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.Format)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func setup(c *cli.Context) (config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return config.Config{}, nil, err
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}

func runAction(steps pipeline.Steps) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, logger, err := setup(c)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		report, err := pipeline.NewTrainingPipeline(cfg, logger).RunSteps(ctx, steps)
		if err != nil {
			return err
		}
		if report.Artifacts != nil {
			return printJSON(c, report.Artifacts)
		}
		return printJSON(c, report.IngestionFiles)
	}
}

func verifyAction(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	report, err := pipeline.NewVerifier(cfg, logger).
		Verify(pipeline.TransformationArtifactFromConfig(cfg))
	if err != nil {
		return err
	}
	return printJSON(c, report)
}

func printJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
