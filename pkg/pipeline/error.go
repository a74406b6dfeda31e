package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/David-Botos/ddos-prep/pkg/artifact"
	"github.com/David-Botos/ddos-prep/pkg/cleaner"
	"github.com/David-Botos/ddos-prep/pkg/encoder"
	"github.com/David-Botos/ddos-prep/pkg/model"
	"github.com/David-Botos/ddos-prep/pkg/resample"
	"github.com/David-Botos/ddos-prep/pkg/transform"
)

// ErrorCategory defines categories of pipeline failures
type ErrorCategory int

const (
	ErrorCategoryNone ErrorCategory = iota
	// ErrorCategoryIO covers unreadable input and failed artifact writes
	ErrorCategoryIO
	// ErrorCategorySchema covers missing or malformed columns
	ErrorCategorySchema
	// ErrorCategoryValidation covers non-numeric or non-finite transformer input
	// and persisted artifacts that fail verification
	ErrorCategoryValidation
	// ErrorCategoryUnknownLabel covers test labels never seen in training
	ErrorCategoryUnknownLabel
	// ErrorCategoryData covers columns or classes with unusable content
	ErrorCategoryData
	ErrorCategoryUnclassified
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryIO:
		return "IO"
	case ErrorCategorySchema:
		return "Schema"
	case ErrorCategoryValidation:
		return "Validation"
	case ErrorCategoryUnknownLabel:
		return "UnknownLabel"
	case ErrorCategoryData:
		return "Data"
	case ErrorCategoryUnclassified:
		return "Unclassified"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// MarshalText lets categories appear by name in run reports
func (ec ErrorCategory) MarshalText() ([]byte, error) {
	return []byte(ec.String()), nil
}

// UnmarshalText parses a name written by MarshalText
func (ec *ErrorCategory) UnmarshalText(text []byte) error {
	for c := ErrorCategoryNone; c <= ErrorCategoryUnclassified; c++ {
		if c.String() == string(text) {
			*ec = c
			return nil
		}
	}
	return fmt.Errorf("unknown error category %q", text)
}

// Stage names a step of the pipeline
type Stage string

const (
	StageIngestion Stage = "data_ingestion"
	StageReadData  Stage = "read_data"
	StageClip      Stage = "outlier_clipping"
	StageEncode    Stage = "label_encoding"
	StageTransform Stage = "feature_transformation"
	StageResample  Stage = "resampling"
	StagePersist   Stage = "persist_artifacts"
	StageVerify    Stage = "verify_artifacts"
)

// StageError is the single error type returned by the pipeline entry points.
// errors.As and errors.Is see through it to the cause.
type StageError struct {
	Stage    Stage
	Category ErrorCategory
	RunID    string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("run %s: stage %s failed [%s]: %v", e.RunID, e.Stage, e.Category, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError classifies err and wraps it. An error that already carries a
// StageError is returned unchanged so the innermost stage is reported.
func NewStageError(runID string, stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var existing *StageError
	if errors.As(err, &existing) {
		return err
	}
	return &StageError{
		Stage:    stage,
		Category: CategorizeError(err),
		RunID:    runID,
		Err:      err,
	}
}

// CategorizeError determines the category of an error from the typed errors
// the pipeline packages return
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}

	var (
		unknownLabel *encoder.UnknownLabelError
		schemaErr    *model.SchemaError
		validation   *transform.ValidationError
		dataErr      *cleaner.DataError
		mismatch     *artifact.MismatchError
		verifyErr    *VerificationError
		parseErr     *csv.ParseError
		pathErr      *fs.PathError
		linkErr      *os.LinkError
	)

	switch {
	case errors.As(err, &unknownLabel):
		return ErrorCategoryUnknownLabel
	case errors.As(err, &schemaErr):
		return ErrorCategorySchema
	case errors.As(err, &validation), errors.As(err, &mismatch), errors.As(err, &verifyErr):
		return ErrorCategoryValidation
	case errors.As(err, &dataErr),
		errors.Is(err, resample.ErrSingleClass),
		errors.Is(err, resample.ErrTooFewSamples):
		return ErrorCategoryData
	case errors.As(err, &parseErr), errors.As(err, &pathErr), errors.As(err, &linkErr):
		return ErrorCategoryIO
	default:
		return ErrorCategoryUnclassified
	}
}

// ErrorRecord is the serializable form of a failed run's error
type ErrorRecord struct {
	Stage     Stage         `json:"stage"`
	Category  ErrorCategory `json:"category"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
	Canceled  bool          `json:"canceled,omitempty"`
}

// NewErrorRecord creates a record for err with the current timestamp
func NewErrorRecord(err error) *ErrorRecord {
	if err == nil {
		return nil
	}
	record := &ErrorRecord{
		Category:  CategorizeError(err),
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
		Canceled:  errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded),
	}
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		record.Stage = stageErr.Stage
		record.Category = stageErr.Category
	}
	return record
}
