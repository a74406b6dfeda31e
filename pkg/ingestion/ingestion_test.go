package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.viam.com/test"

	"github.com/David-Botos/ddos-prep/pkg/config"
	"github.com/David-Botos/ddos-prep/pkg/model"
)

// trafficFrame builds n distinct rows in the default schema plus an id column
func trafficFrame(t *testing.T, n int) *model.Frame {
	t.Helper()
	columns := append([]string{"Flow ID"}, model.DefaultSchema().Columns()...)
	rows := make([][]string, n)
	for i := range rows {
		row := []string{fmt.Sprintf("flow-%d", i)}
		for j := 0; j < len(model.DDoSFeatures); j++ {
			row = append(row, fmt.Sprintf("%d", i*10+j))
		}
		label := "BENIGN"
		if i%5 == 0 {
			label = "DDoS"
		}
		rows[i] = append(row, label)
	}
	frame, err := model.NewFrame(columns, rows)
	test.That(t, err, test.ShouldBeNil)
	return frame
}

func ids(t *testing.T, frame *model.Frame) []string {
	t.Helper()
	col, err := frame.Column("Flow ID")
	test.That(t, err, test.ShouldBeNil)
	sort.Strings(col)
	return col
}

func TestCSVRoundTrip(t *testing.T) {
	in := "\ufeff Flow Duration, Label\n12,BENIGN\n\"3,5\",DDoS\n"
	frame, err := DecodeCSV(strings.NewReader(in))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frame.Columns, test.ShouldResemble, []string{" Flow Duration", " Label"})
	test.That(t, frame.Rows, test.ShouldResemble, [][]string{{"12", "BENIGN"}, {"3,5", "DDoS"}})

	var buf bytes.Buffer
	test.That(t, EncodeCSV(&buf, frame), test.ShouldBeNil)
	// encoding/csv quotes fields with leading whitespace
	test.That(t, buf.String(), test.ShouldEqual, "\" Flow Duration\",\" Label\"\n12,BENIGN\n\"3,5\",DDoS\n")

	again, err := DecodeCSV(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again, test.ShouldResemble, frame)
}

func TestDecodeCSVErrors(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader(""))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = DecodeCSV(strings.NewReader("a,b\n1,2\n3\n"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDropDuplicatesKeepsFirst(t *testing.T) {
	frame, err := model.NewFrame([]string{"x", "y"}, [][]string{
		{"a", "1"}, {"b", "2"}, {"a", "1"}, {"c", "3"}, {"b", "2"}, {"a", "2"},
	})
	test.That(t, err, test.ShouldBeNil)

	out, dropped := DropDuplicates(frame)
	test.That(t, dropped, test.ShouldEqual, 2)
	test.That(t, out.Rows, test.ShouldResemble, [][]string{
		{"a", "1"}, {"b", "2"}, {"c", "3"}, {"a", "2"},
	})
	// input untouched
	test.That(t, frame.Len(), test.ShouldEqual, 6)
}

func TestRowKeySeparatesCells(t *testing.T) {
	test.That(t, rowKey([]string{"ab", "c"}), test.ShouldNotResemble, rowKey([]string{"a", "bc"}))
	test.That(t, rowKey([]string{"a", "b"}), test.ShouldResemble, rowKey([]string{"a", "b"}))
}

func TestTrainTestSplitPartitions(t *testing.T) {
	for _, n := range []int{10, 11, 57} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			frame := trafficFrame(t, n)
			train, testSet, err := TrainTestSplit(frame, 0.2, 42)
			test.That(t, err, test.ShouldBeNil)

			wantTest := (n*2 + 9) / 10 // ceil(0.2n)
			test.That(t, testSet.Len(), test.ShouldEqual, wantTest)
			test.That(t, train.Len(), test.ShouldEqual, n-wantTest)

			all := append(ids(t, train), ids(t, testSet)...)
			sort.Strings(all)
			test.That(t, all, test.ShouldResemble, ids(t, frame))
		})
	}
}

func TestTrainTestSplitIsDeterministic(t *testing.T) {
	frame := trafficFrame(t, 40)
	a, _, err := TrainTestSplit(frame, 0.2, 42)
	test.That(t, err, test.ShouldBeNil)
	b, _, err := TrainTestSplit(frame, 0.2, 42)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, a.Rows, test.ShouldResemble, b.Rows)

	c, _, err := TrainTestSplit(frame, 0.2, 7)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Rows, test.ShouldNotResemble, a.Rows)
}

func TestTrainTestSplitErrors(t *testing.T) {
	_, _, err := TrainTestSplit(trafficFrame(t, 10), 0, 42)
	test.That(t, err, test.ShouldNotBeNil)
	_, _, err = TrainTestSplit(trafficFrame(t, 10), 1, 42)
	test.That(t, err, test.ShouldNotBeNil)
	_, _, err = TrainTestSplit(trafficFrame(t, 1), 0.2, 42)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDataIngestionRun(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default(dir)

	frame := trafficFrame(t, 50)
	frame.Rows = append(frame.Rows, frame.Rows[3], frame.Rows[7])
	test.That(t, WriteCSV(cfg.Ingestion.SourcePath, frame), test.ShouldBeNil)

	stage := NewDataIngestion(cfg, CSVSource{Path: cfg.Ingestion.SourcePath}, zap.NewNop())
	out, err := stage.Run(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.RawFilePath, test.ShouldEqual, cfg.Ingestion.RawDataPath)

	raw, err := ReadCSV(out.RawFilePath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, raw.Len(), test.ShouldEqual, 50)

	train, err := ReadCSV(out.TrainFilePath)
	test.That(t, err, test.ShouldBeNil)
	testSet, err := ReadCSV(out.TestFilePath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, train.Len(), test.ShouldEqual, 40)
	test.That(t, testSet.Len(), test.ShouldEqual, 10)
	test.That(t, train.Columns, test.ShouldResemble, frame.Columns)

	test.That(t, stage.Summary(), test.ShouldResemble, Summary{
		SourceRows: 52, Duplicates: 2, TrainRows: 40, TestRows: 10,
	})
}

func TestDataIngestionMissingColumn(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default(dir)

	frame, err := model.NewFrame([]string{" Label"}, [][]string{{"BENIGN"}, {"DDoS"}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, WriteCSV(cfg.Ingestion.SourcePath, frame), test.ShouldBeNil)

	_, err = NewDataIngestion(cfg, CSVSource{Path: cfg.Ingestion.SourcePath}, nil).Run(context.Background())
	var schemaErr *model.SchemaError
	test.That(t, errors.As(err, &schemaErr), test.ShouldBeTrue)

	_, statErr := os.Stat(cfg.Ingestion.RawDataPath)
	test.That(t, os.IsNotExist(statErr), test.ShouldBeTrue)
}

type stubQuerier struct {
	frame *model.Frame
	query string
}

func (s *stubQuerier) QueryFrame(_ context.Context, query string) (*model.Frame, error) {
	s.query = query
	if s.frame == nil {
		return nil, errors.New("relation does not exist")
	}
	return s.frame, nil
}

func TestSQLSource(t *testing.T) {
	q := &stubQuerier{frame: trafficFrame(t, 3)}
	src := SQLSource{Querier: q, Query: "SELECT * FROM ddos_final"}

	frame, err := src.Load(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frame.Len(), test.ShouldEqual, 3)
	test.That(t, q.query, test.ShouldEqual, "SELECT * FROM ddos_final")

	_, err = SQLSource{Querier: &stubQuerier{}, Query: "SELECT 1"}.Load(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "relation does not exist")
}

func TestOpenSourceCSV(t *testing.T) {
	cfg := config.Default(t.TempDir())
	src, closeFn, err := OpenSource(context.Background(), cfg, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, closeFn(), test.ShouldBeNil)
	test.That(t, src, test.ShouldResemble, CSVSource{Path: filepath.Join(cfg.Root, "Network_Traffic_data", "DDos_final.csv")})

	cfg.Source.Kind = "parquet"
	_, _, err = OpenSource(context.Background(), cfg, nil)
	test.That(t, err, test.ShouldNotBeNil)
}
