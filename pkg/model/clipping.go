// pkg/model/clipping.go
package model

// Split identifies which partition a stage operated on
type Split string

const (
	SplitTrain Split = "train"
	SplitTest  Split = "test"
)

// ClipOperation summarizes the winsorization of one column in one split
type ClipOperation struct {
	Column      string  `json:"column"`
	Split       Split   `json:"split"`
	Q1          float64 `json:"q1"`
	Q3          float64 `json:"q3"`
	Lower       float64 `json:"lower"`        // Q1 - m*IQR
	Upper       float64 `json:"upper"`        // Q3 + m*IQR
	ClippedLow  int     `json:"clipped_low"`  // Values raised to Lower
	ClippedHigh int     `json:"clipped_high"` // Values lowered to Upper
}

// Clipped returns the total number of modified cells
func (op ClipOperation) Clipped() int {
	return op.ClippedLow + op.ClippedHigh
}
