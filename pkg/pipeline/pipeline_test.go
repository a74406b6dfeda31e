package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.viam.com/test"

	"github.com/David-Botos/ddos-prep/pkg/artifact"
	"github.com/David-Botos/ddos-prep/pkg/config"
	"github.com/David-Botos/ddos-prep/pkg/encoder"
	"github.com/David-Botos/ddos-prep/pkg/ingestion"
	"github.com/David-Botos/ddos-prep/pkg/model"
	"github.com/David-Botos/ddos-prep/pkg/transform"
)

// trafficRows returns benign rows around 100 and attack rows around 1000
func trafficRows(rng *rand.Rand, benign, ddos int) [][]string {
	rows := make([][]string, 0, benign+ddos)
	add := func(n int, base float64, label string) {
		for i := 0; i < n; i++ {
			row := make([]string, 0, len(model.DDoSFeatures)+1)
			for j := range model.DDoSFeatures {
				row = append(row, fmt.Sprintf("%.3f", base+float64(j)*10+rng.Float64()*5))
			}
			rows = append(rows, append(row, label))
		}
	}
	add(benign, 100, "BENIGN")
	add(ddos, 1000, "DDoS")
	rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
	return rows
}

func writeSplits(t *testing.T, cfg config.Config, mutate func(train, test [][]string)) {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	train := trafficRows(rng, 60, 30)
	testRows := trafficRows(rng, 15, 8)
	if mutate != nil {
		mutate(train, testRows)
	}

	columns := model.DefaultSchema().Columns()
	for path, rows := range map[string][][]string{
		cfg.Ingestion.TrainDataPath: train,
		cfg.Ingestion.TestDataPath:  testRows,
	} {
		frame, err := model.NewFrame(columns, rows)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ingestion.WriteCSV(path, frame), test.ShouldBeNil)
	}
}

// listFiles returns every regular file under dir, relative to dir
func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(dir, path)
			files = append(files, rel)
		}
		return nil
	})
	test.That(t, err, test.ShouldBeNil)
	return files
}

func TestDataTransformationRun(t *testing.T) {
	cfg := config.Default(t.TempDir())
	writeSplits(t, cfg, nil)

	stage := NewDataTransformation(cfg, "run-1", zap.NewNop())
	out, err := stage.Run(context.Background(), IngestionArtifactFromConfig(cfg))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldResemble, TransformationArtifactFromConfig(cfg))

	width := 2 * len(model.DDoSFeatures)
	for _, path := range []string{out.TransformedTrainFilePath, out.TransformedTestFilePath} {
		labeled, err := artifact.LoadArray(path)
		test.That(t, err, test.ShouldBeNil)
		x, labels, err := artifact.SplitLabeled(labeled)
		test.That(t, err, test.ShouldBeNil)
		_, cols := x.Dims()
		test.That(t, cols, test.ShouldEqual, width)
		for _, label := range labels {
			test.That(t, label, test.ShouldBeBetweenOrEqual, 0, 1)
		}
	}

	report := stage.Report()
	test.That(t, len(report.Stages), test.ShouldEqual, 6)
	test.That(t, len(report.Clips), test.ShouldEqual, 2*len(model.DDoSFeatures))
	test.That(t, report.Classes, test.ShouldResemble, []string{"BENIGN", "DDoS"})
	test.That(t, len(report.Splits), test.ShouldEqual, 2)

	trainSplit := report.Splits[0]
	test.That(t, trainSplit.RowsIn, test.ShouldEqual, 90)
	test.That(t, trainSplit.ClassesBefore, test.ShouldResemble, map[string]int{"BENIGN": 60, "DDoS": 30})
	test.That(t, trainSplit.ClassesAfter["DDoS"], test.ShouldBeGreaterThan, 30)
	test.That(t, trainSplit.Features, test.ShouldEqual, width)
	test.That(t, report.Splits[1].Resampled, test.ShouldBeTrue)

	// both sinks hold the same bytes
	for _, pair := range [][2]string{
		{cfg.Transformation.PreprocessorPath, cfg.Transformation.FinalPreprocessorPath},
		{cfg.Transformation.LabelEncoderPath, cfg.Transformation.FinalLabelEncoderPath},
	} {
		a, err := os.ReadFile(pair[0])
		test.That(t, err, test.ShouldBeNil)
		b, err := os.ReadFile(pair[1])
		test.That(t, err, test.ShouldBeNil)
		test.That(t, a, test.ShouldResemble, b)
	}

	verified, err := NewVerifier(cfg, nil).Verify(out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, verified.RunID, test.ShouldEqual, "run-1")
	test.That(t, verified.Features, test.ShouldEqual, width)
	test.That(t, verified.TrainRows, test.ShouldEqual, trainSplit.RowsOut)
}

func TestPersistedObjectsReproduceArrays(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.Resample.BalanceTest = false
	writeSplits(t, cfg, nil)

	out, err := NewDataTransformation(cfg, "run-2", nil).Run(context.Background(), IngestionArtifactFromConfig(cfg))
	test.That(t, err, test.ShouldBeNil)

	var preprocessor *transform.ColumnTransformer
	err = artifact.ReadFile(out.PreprocessorFilePath, func(r io.Reader) error {
		var err error
		preprocessor, err = transform.Load(r, nil)
		return err
	})
	test.That(t, err, test.ShouldBeNil)

	var enc *encoder.LabelEncoder
	err = artifact.ReadFile(out.LabelEncoderFilePath, func(r io.Reader) error {
		var err error
		enc, err = encoder.Load(r)
		return err
	})
	test.That(t, err, test.ShouldBeNil)

	// the unbalanced test array is exactly the persisted preprocessor applied
	// to the test CSV; no test cell is an outlier, so clipping changes nothing
	frame, err := ingestion.ReadCSV(cfg.Ingestion.TestDataPath)
	test.That(t, err, test.ShouldBeNil)
	want, err := preprocessor.Transform(frame)
	test.That(t, err, test.ShouldBeNil)
	labels, err := frame.Column(model.DDoSTarget)
	test.That(t, err, test.ShouldBeNil)
	codes, err := enc.Transform(labels)
	test.That(t, err, test.ShouldBeNil)

	labeled, err := artifact.LoadArray(out.TransformedTestFilePath)
	test.That(t, err, test.ShouldBeNil)
	x, gotCodes, err := artifact.SplitLabeled(labeled)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gotCodes, test.ShouldResemble, codes)
	test.That(t, x.RawMatrix().Data, test.ShouldResemble, want.RawMatrix().Data)
}

func TestDataTransformationFailures(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(train, test [][]string)
		stage    Stage
		category ErrorCategory
	}{
		{
			name:     "unknown test label",
			mutate:   func(_, test [][]string) { test[0][len(test[0])-1] = "PortScan" },
			stage:    StageEncode,
			category: ErrorCategoryUnknownLabel,
		},
		{
			name:     "non numeric feature",
			mutate:   func(train, _ [][]string) { train[4][2] = "Infinity?" },
			stage:    StageClip,
			category: ErrorCategoryData,
		},
		{
			name: "single class test split",
			mutate: func(_, test [][]string) {
				for _, row := range test {
					row[len(row)-1] = "BENIGN"
				}
			},
			stage:    StageResample,
			category: ErrorCategoryData,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := config.Default(dir)
			writeSplits(t, cfg, tc.mutate)

			_, err := NewDataTransformation(cfg, "run-x", nil).Run(context.Background(), IngestionArtifactFromConfig(cfg))
			var stageErr *StageError
			test.That(t, errors.As(err, &stageErr), test.ShouldBeTrue)
			test.That(t, stageErr.Stage, test.ShouldEqual, tc.stage)
			test.That(t, stageErr.Category, test.ShouldEqual, tc.category)
			test.That(t, stageErr.RunID, test.ShouldEqual, "run-x")
			test.That(t, IsCategory(err, tc.category), test.ShouldBeTrue)

			test.That(t, listFiles(t, filepath.Join(dir, "artifact")), test.ShouldResemble,
				[]string{"ddos_test.csv", "ddos_train.csv"})
			test.That(t, listFiles(t, filepath.Join(dir, "final_object")), test.ShouldBeEmpty)
		})
	}
}

func TestDataTransformationSchemaAndIOErrors(t *testing.T) {
	cfg := config.Default(t.TempDir())

	_, err := NewDataTransformation(cfg, "run-io", nil).Run(context.Background(), IngestionArtifactFromConfig(cfg))
	test.That(t, IsCategory(err, ErrorCategoryIO), test.ShouldBeTrue)
	test.That(t, errors.Is(err, fs.ErrNotExist), test.ShouldBeTrue)

	cfg.Schema.Target = " Attack"
	writeSplits(t, cfg, nil)
	_, err = NewDataTransformation(cfg, "run-schema", nil).Run(context.Background(), IngestionArtifactFromConfig(cfg))
	var schemaErr *model.SchemaError
	test.That(t, errors.As(err, &schemaErr), test.ShouldBeTrue)
	test.That(t, schemaErr.Column, test.ShouldEqual, " Attack")
	test.That(t, IsCategory(err, ErrorCategorySchema), test.ShouldBeTrue)
}

func TestDataTransformationRollsBackOnPersistFailure(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default(dir)
	writeSplits(t, cfg, nil)

	// a regular file where a directory is needed
	blocker := filepath.Join(dir, "blocker")
	test.That(t, os.WriteFile(blocker, []byte("x"), 0o644), test.ShouldBeNil)
	cfg.Transformation.FinalLabelEncoderPath = filepath.Join(blocker, "label_encoder.json")

	_, err := NewDataTransformation(cfg, "run-rb", nil).Run(context.Background(), IngestionArtifactFromConfig(cfg))
	var stageErr *StageError
	test.That(t, errors.As(err, &stageErr), test.ShouldBeTrue)
	test.That(t, stageErr.Stage, test.ShouldEqual, StagePersist)

	test.That(t, listFiles(t, filepath.Join(dir, "artifact")), test.ShouldResemble,
		[]string{"ddos_test.csv", "ddos_train.csv"})
	test.That(t, listFiles(t, filepath.Join(dir, "final_object")), test.ShouldBeEmpty)
}

func TestDataTransformationCanceled(t *testing.T) {
	cfg := config.Default(t.TempDir())
	writeSplits(t, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDataTransformation(cfg, "run-c", nil).Run(ctx, IngestionArtifactFromConfig(cfg))
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)

	var stageErr *StageError
	test.That(t, errors.As(err, &stageErr), test.ShouldBeTrue)
	test.That(t, stageErr.Stage, test.ShouldEqual, StageReadData)
}

func TestVerifierDetectsTampering(t *testing.T) {
	cfg := config.Default(t.TempDir())
	writeSplits(t, cfg, nil)
	out, err := NewDataTransformation(cfg, "run-t", nil).Run(context.Background(), IngestionArtifactFromConfig(cfg))
	test.That(t, err, test.ShouldBeNil)

	test.That(t, os.WriteFile(cfg.Transformation.FinalPreprocessorPath, []byte("{}"), 0o644), test.ShouldBeNil)

	_, err = NewVerifier(cfg, nil).Verify(out)
	var mismatch *artifact.MismatchError
	test.That(t, errors.As(err, &mismatch), test.ShouldBeTrue)
	test.That(t, mismatch.Path, test.ShouldEqual, cfg.Transformation.FinalPreprocessorPath)
	test.That(t, IsCategory(err, ErrorCategoryValidation), test.ShouldBeTrue)
}

func TestTrainingPipelineRun(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default(dir)

	rng := rand.New(rand.NewSource(3))
	rows := trafficRows(rng, 90, 40)
	rows = append(rows, rows[0], rows[1], rows[2])
	frame, err := model.NewFrame(model.DefaultSchema().Columns(), rows)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ingestion.WriteCSV(cfg.Ingestion.SourcePath, frame), test.ShouldBeNil)

	report, err := NewTrainingPipeline(cfg, zap.NewNop()).Run(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.Success, test.ShouldBeTrue)
	test.That(t, report.Error, test.ShouldBeNil)
	test.That(t, report.Ingestion.Duplicates, test.ShouldEqual, 3)
	test.That(t, report.Ingestion.TrainRows, test.ShouldEqual, 104)
	test.That(t, report.Ingestion.TestRows, test.ShouldEqual, 26)
	test.That(t, report.Stages[0].Stage, test.ShouldEqual, StageIngestion)
	test.That(t, report.Artifacts, test.ShouldNotBeNil)

	var saved RunReport
	test.That(t, artifact.LoadJSON(cfg.Report.ReportPath, &saved), test.ShouldBeNil)
	test.That(t, saved.RunID, test.ShouldEqual, report.RunID)
	test.That(t, saved.Success, test.ShouldBeTrue)

	metrics, err := os.ReadFile(cfg.Report.MetricsPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(metrics), test.ShouldContainSubstring, "ddosprep_last_run_success 1")
	test.That(t, string(metrics), test.ShouldContainSubstring, "ddosprep_duplicate_rows_dropped 3")
	test.That(t, string(metrics), test.ShouldContainSubstring, `ddosprep_stage_duration_seconds{stage="resampling"}`)
}

func TestTrainingPipelineReportsFailure(t *testing.T) {
	cfg := config.Default(t.TempDir())

	report, err := NewTrainingPipeline(cfg, nil).RunSteps(context.Background(), Steps{Transform: true})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, report.Success, test.ShouldBeFalse)
	test.That(t, report.Error.Stage, test.ShouldEqual, StageReadData)
	test.That(t, report.Error.Category, test.ShouldEqual, ErrorCategoryIO)

	metrics, err := os.ReadFile(cfg.Report.MetricsPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, strings.Contains(string(metrics), "ddosprep_last_run_success 0"), test.ShouldBeTrue)
}

func TestCategorizeError(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorCategory
	}{
		{nil, ErrorCategoryNone},
		{&encoder.UnknownLabelError{Label: "x"}, ErrorCategoryUnknownLabel},
		{fmt.Errorf("wrapped: %w", &model.SchemaError{Column: "c"}), ErrorCategorySchema},
		{&transform.ValidationError{Column: "c"}, ErrorCategoryValidation},
		{&VerificationError{Path: "p"}, ErrorCategoryValidation},
		{&fs.PathError{Op: "open", Path: "p", Err: fs.ErrNotExist}, ErrorCategoryIO},
		{errors.New("something else"), ErrorCategoryUnclassified},
	}
	for _, tc := range cases {
		test.That(t, CategorizeError(tc.err), test.ShouldEqual, tc.want)
	}

	test.That(t, ErrorCategoryUnknownLabel.String(), test.ShouldEqual, "UnknownLabel")
	test.That(t, ErrorCategory(99).String(), test.ShouldEqual, "Unknown(99)")
}

func TestNewStageErrorKeepsInnermostStage(t *testing.T) {
	cause := errors.New("boom")
	inner := NewStageError("r", StageClip, cause)
	outer := NewStageError("r", StagePersist, fmt.Errorf("context: %w", inner))

	var stageErr *StageError
	test.That(t, errors.As(outer, &stageErr), test.ShouldBeTrue)
	test.That(t, stageErr.Stage, test.ShouldEqual, StageClip)
	test.That(t, errors.Is(outer, cause), test.ShouldBeTrue)
	test.That(t, NewStageError("r", StageClip, nil), test.ShouldBeNil)
}
