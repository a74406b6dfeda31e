package main

import (
	"bytes"
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"github.com/David-Botos/ddos-prep/pkg/config"
	"github.com/David-Botos/ddos-prep/pkg/ingestion"
	"github.com/David-Botos/ddos-prep/pkg/model"
)

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		logger, err := newLogger(config.LogConfig{Level: "debug", Format: format})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, logger, test.ShouldNotBeNil)
	}

	_, err := newLogger(config.LogConfig{Level: "loud", Format: "json"})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = newLogger(config.LogConfig{Level: "info", Format: "xml"})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestAppCommands(t *testing.T) {
	var names []string
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	test.That(t, names, test.ShouldResemble, []string{"run", "ingest", "transform", "verify"})
}

func TestRunThenVerify(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(5))

	var rows [][]string
	for i := 0; i < 120; i++ {
		base, label := 50.0, "BENIGN"
		if i%3 == 0 {
			base, label = 900.0, "DDoS"
		}
		row := make([]string, 0, len(model.DDoSFeatures)+1)
		for j := range model.DDoSFeatures {
			row = append(row, fmt.Sprintf("%.2f", base+float64(j)+rng.Float64()*4))
		}
		rows = append(rows, append(row, label))
	}
	frame, err := model.NewFrame(model.DefaultSchema().Columns(), rows)
	test.That(t, err, test.ShouldBeNil)
	source := filepath.Join(dir, "Network_Traffic_data", "DDos_final.csv")
	test.That(t, ingestion.WriteCSV(source, frame), test.ShouldBeNil)

	var out bytes.Buffer
	app.Writer = &out
	base := []string{"ddosprep", "--config", "", "--env-file", "", "--root", dir, "--log-level", "error"}

	test.That(t, app.Run(append(base, "run")), test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldContainSubstring, "train.npy")

	out.Reset()
	test.That(t, app.Run(append(base, "verify")), test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldContainSubstring, `"classes"`)
}
