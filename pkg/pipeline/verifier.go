package pipeline

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/David-Botos/ddos-prep/pkg/artifact"
	"github.com/David-Botos/ddos-prep/pkg/config"
	"github.com/David-Botos/ddos-prep/pkg/encoder"
	"github.com/David-Botos/ddos-prep/pkg/model"
	"github.com/David-Botos/ddos-prep/pkg/transform"
)

// VerificationError describes a persisted artifact that is internally
// inconsistent
type VerificationError struct {
	Path   string
	Reason string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// VerificationReport contains the results of verifying a run's artifacts
type VerificationReport struct {
	RunID        string         `json:"run_id"`
	Files        int            `json:"files"`
	Features     int            `json:"features"`
	Classes      []string       `json:"classes"`
	TrainRows    int            `json:"train_rows"`
	TestRows     int            `json:"test_rows"`
	TrainClasses map[string]int `json:"train_classes"`
	TestClasses  map[string]int `json:"test_classes"`
}

// Verifier re-reads persisted artifacts and checks them against each other
type Verifier struct {
	cfg    config.Config
	logger *zap.Logger
}

// NewVerifier creates a new verifier
func NewVerifier(cfg config.Config, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		cfg:    cfg,
		logger: logger.Named("verifier"),
	}
}

// TransformationArtifactFromConfig describes the transformation outputs at
// the configured paths
func TransformationArtifactFromConfig(cfg config.Config) model.DataTransformationArtifact {
	paths := cfg.Transformation
	return model.DataTransformationArtifact{
		TransformedTrainFilePath: paths.TransformedTrainPath,
		TransformedTestFilePath:  paths.TransformedTestPath,
		PreprocessorFilePath:     paths.PreprocessorPath,
		LabelEncoderFilePath:     paths.LabelEncoderPath,
		ManifestFilePath:         paths.ManifestPath,
	}
}

// Verify checks, in order: manifest checksums, that each persisted object's
// two sinks hold identical bytes, that the preprocessor and encoder load, and
// that both arrays have the preprocessor's output width plus a label column
// holding valid codes.
func (v *Verifier) Verify(out model.DataTransformationArtifact) (*VerificationReport, error) {
	manifest, err := artifact.LoadManifest(out.ManifestFilePath)
	if err != nil {
		return nil, NewStageError("", StageVerify, err)
	}
	report, err := v.verify(manifest, out)
	if err != nil {
		return nil, NewStageError(manifest.RunID, StageVerify, err)
	}

	v.logger.Info("Artifacts verified",
		zap.String("run_id", report.RunID),
		zap.Int("files", report.Files),
		zap.Int("train_rows", report.TrainRows),
		zap.Int("test_rows", report.TestRows),
		zap.Strings("classes", report.Classes))
	return report, nil
}

func (v *Verifier) verify(manifest artifact.Manifest, out model.DataTransformationArtifact) (*VerificationReport, error) {
	if err := manifest.Verify(); err != nil {
		return nil, err
	}

	paths := v.cfg.Transformation
	pairs := [][2]string{
		{out.PreprocessorFilePath, paths.FinalPreprocessorPath},
		{out.LabelEncoderFilePath, paths.FinalLabelEncoderPath},
	}
	for _, pair := range pairs {
		if err := sameContent(manifest, pair[0], pair[1]); err != nil {
			return nil, err
		}
	}

	var preprocessor *transform.ColumnTransformer
	err := artifact.ReadFile(out.PreprocessorFilePath, func(r io.Reader) error {
		var err error
		preprocessor, err = transform.Load(r, v.logger)
		return err
	})
	if err != nil {
		return nil, err
	}

	var enc *encoder.LabelEncoder
	err = artifact.ReadFile(out.LabelEncoderFilePath, func(r io.Reader) error {
		var err error
		enc, err = encoder.Load(r)
		return err
	})
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		RunID:    manifest.RunID,
		Files:    len(manifest.Files),
		Features: preprocessor.OutputWidth(),
		Classes:  enc.Classes(),
	}

	arrays := []struct {
		path   string
		rows   *int
		counts *map[string]int
	}{
		{out.TransformedTrainFilePath, &report.TrainRows, &report.TrainClasses},
		{out.TransformedTestFilePath, &report.TestRows, &report.TestClasses},
	}
	for _, a := range arrays {
		if _, listed := manifest.Digest(a.path); !listed {
			return nil, &VerificationError{Path: a.path, Reason: "not listed in manifest"}
		}
		labeled, err := artifact.LoadArray(a.path)
		if err != nil {
			return nil, err
		}
		x, labels, err := artifact.SplitLabeled(labeled)
		if err != nil {
			return nil, &VerificationError{Path: a.path, Reason: err.Error()}
		}
		rows, cols := x.Dims()
		if cols != preprocessor.OutputWidth() {
			return nil, &VerificationError{
				Path:   a.path,
				Reason: fmt.Sprintf("%d feature columns, preprocessor produces %d", cols, preprocessor.OutputWidth()),
			}
		}
		if _, err := enc.InverseTransform(labels); err != nil {
			return nil, &VerificationError{Path: a.path, Reason: err.Error()}
		}
		*a.rows = rows
		*a.counts = classCounts(enc, labels)
	}

	return report, nil
}

// sameContent checks that primary is listed in the manifest and that copy
// holds the same bytes
func sameContent(manifest artifact.Manifest, primary, copyPath string) error {
	want, listed := manifest.Digest(primary)
	if !listed {
		return &VerificationError{Path: primary, Reason: "not listed in manifest"}
	}
	got, err := artifact.DigestFile(copyPath)
	if err != nil {
		return err
	}
	if got.BLAKE3 != want.BLAKE3 {
		return &artifact.MismatchError{Path: copyPath, Expected: want.BLAKE3, Actual: got.BLAKE3}
	}
	return nil
}
