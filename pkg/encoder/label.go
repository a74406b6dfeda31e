// pkg/encoder/label.go
package encoder

import (
	"errors"
	"fmt"
	"io"
	"slices"

	json "github.com/goccy/go-json"
	"github.com/samber/lo"
)

// FormatVersion tags the persisted label encoder layout
const FormatVersion = "label_encoder.v1"

// ErrNotFitted is returned when the encoder is used before Fit
var ErrNotFitted = errors.New("label encoder has not been fitted")

// UnknownLabelError reports a label absent from the fitted classes
type UnknownLabelError struct {
	Label string
	Index int // Position in the input slice
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("label %q at position %d was not seen during fit", e.Label, e.Index)
}

// LabelEncoder maps label strings to codes [0, K) in sorted label order
type LabelEncoder struct {
	classes []string
	codes   map[string]int
}

// NewLabelEncoder returns an unfitted encoder
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{}
}

// Fit learns the sorted set of distinct labels
func (e *LabelEncoder) Fit(labels []string) error {
	if len(labels) == 0 {
		return errors.New("label encoder: cannot fit on an empty label column")
	}

	classes := lo.Uniq(labels)
	slices.Sort(classes)
	e.setClasses(classes)
	return nil
}

// FitTransform fits on labels and encodes them
func (e *LabelEncoder) FitTransform(labels []string) ([]int, error) {
	if err := e.Fit(labels); err != nil {
		return nil, err
	}
	return e.Transform(labels)
}

// Transform encodes labels. An unseen label is an UnknownLabelError.
func (e *LabelEncoder) Transform(labels []string) ([]int, error) {
	if e.codes == nil {
		return nil, ErrNotFitted
	}

	out := make([]int, len(labels))
	for i, label := range labels {
		code, ok := e.codes[label]
		if !ok {
			return nil, &UnknownLabelError{Label: label, Index: i}
		}
		out[i] = code
	}
	return out, nil
}

// InverseTransform decodes codes back to labels
func (e *LabelEncoder) InverseTransform(codes []int) ([]string, error) {
	if e.codes == nil {
		return nil, ErrNotFitted
	}

	out := make([]string, len(codes))
	for i, code := range codes {
		if code < 0 || code >= len(e.classes) {
			return nil, fmt.Errorf("label code %d at position %d outside [0, %d)", code, i, len(e.classes))
		}
		out[i] = e.classes[code]
	}
	return out, nil
}

// Classes returns the fitted labels; the index of each is its code
func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

func (e *LabelEncoder) setClasses(classes []string) {
	e.classes = classes
	e.codes = make(map[string]int, len(classes))
	for i, c := range classes {
		e.codes[c] = i
	}
}

type persistedEncoder struct {
	Version string   `json:"version"`
	Classes []string `json:"classes"`
}

// Save writes the fitted classes as JSON
func (e *LabelEncoder) Save(w io.Writer) error {
	if e.codes == nil {
		return ErrNotFitted
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(persistedEncoder{Version: FormatVersion, Classes: e.classes})
}

// Load restores an encoder written by Save
func Load(r io.Reader) (*LabelEncoder, error) {
	var state persistedEncoder
	if err := json.NewDecoder(r).Decode(&state); err != nil {
		return nil, fmt.Errorf("failed to decode label encoder: %w", err)
	}
	if state.Version != FormatVersion {
		return nil, fmt.Errorf("label encoder version %q not supported (want %s)", state.Version, FormatVersion)
	}
	if len(state.Classes) == 0 {
		return nil, errors.New("label encoder has no classes")
	}
	if !slices.IsSorted(state.Classes) || len(lo.Uniq(state.Classes)) != len(state.Classes) {
		return nil, errors.New("label encoder classes must be sorted and distinct")
	}

	e := NewLabelEncoder()
	e.setClasses(state.Classes)
	return e, nil
}
