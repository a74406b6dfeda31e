// pkg/ingestion/csv.go
package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/David-Botos/ddos-prep/pkg/artifact"
	"github.com/David-Botos/ddos-prep/pkg/model"
)

const utf8BOM = "\ufeff"

// ReadCSV loads a headered CSV file into a frame
func ReadCSV(path string) (*model.Frame, error) {
	var frame *model.Frame
	err := artifact.ReadFile(path, func(r io.Reader) error {
		var err error
		frame, err = DecodeCSV(r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return frame, nil
}

// DecodeCSV parses headered CSV. Every record must match the header width.
func DecodeCSV(r io.Reader) (*model.Frame, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv has no header")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record %d: %w", len(rows)+1, err)
		}
		rows = append(rows, record)
	}

	return model.NewFrame(header, rows)
}

// WriteCSV writes frame with its header, atomically
func WriteCSV(path string, frame *model.Frame) error {
	return artifact.WriteFileAtomic(path, func(w io.Writer) error {
		return EncodeCSV(w, frame)
	})
}

// EncodeCSV writes frame as headered CSV
func EncodeCSV(w io.Writer, frame *model.Frame) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(frame.Columns); err != nil {
		return err
	}
	if err := writer.WriteAll(frame.Rows); err != nil {
		return err
	}
	return writer.Error()
}
