package pipeline

import (
	"time"

	"github.com/David-Botos/ddos-prep/pkg/ingestion"
	"github.com/David-Botos/ddos-prep/pkg/model"
)

// StageResult records the outcome of one stage
type StageResult struct {
	Stage     Stage         `json:"stage"`
	Success   bool          `json:"success"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
}

// SplitResult summarizes one partition through the transformation stage
type SplitResult struct {
	Split         model.Split    `json:"split"`
	RowsIn        int            `json:"rows_in"`
	RowsOut       int            `json:"rows_out"`
	Features      int            `json:"features"`
	ClassesBefore map[string]int `json:"classes_before"`
	ClassesAfter  map[string]int `json:"classes_after"`
	Resampled     bool           `json:"resampled"`
}

// RunReport is the record of one pipeline run
type RunReport struct {
	RunID     string        `json:"run_id"`
	Success   bool          `json:"success"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`

	Stages []StageResult `json:"stages"`

	Ingestion      *ingestion.Summary                `json:"ingestion,omitempty"`
	Splits         []SplitResult                     `json:"splits,omitempty"`
	Clips          []model.ClipOperation             `json:"clips,omitempty"`
	Classes        []string                          `json:"classes,omitempty"`
	IngestionFiles *model.DataIngestionArtifact      `json:"ingestion_artifact,omitempty"`
	Artifacts      *model.DataTransformationArtifact `json:"transformation_artifact,omitempty"`

	Error *ErrorRecord `json:"error,omitempty"`
}

// NewRunReport initializes a report for runID
func NewRunReport(runID string) *RunReport {
	return &RunReport{
		RunID:     runID,
		StartTime: time.Now().UTC(),
		Stages:    make([]StageResult, 0),
	}
}

// Complete marks the run as finished. A nil err means success.
func (r *RunReport) Complete(err error) {
	r.EndTime = time.Now().UTC()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Success = err == nil
	r.Error = NewErrorRecord(err)
}

// AddStage appends a stage result
func (r *RunReport) AddStage(stage Stage, start time.Time, success bool) {
	r.Stages = append(r.Stages, StageResult{
		Stage:     stage,
		Success:   success,
		StartTime: start.UTC(),
		Duration:  time.Since(start),
	})
}

// ClippedCells returns the number of cells rewritten by clipping in split
func (r *RunReport) ClippedCells(split model.Split) int {
	total := 0
	for _, op := range r.Clips {
		if op.Split == split {
			total += op.Clipped()
		}
	}
	return total
}
