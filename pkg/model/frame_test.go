package model

import (
	"errors"
	"testing"

	"go.viam.com/test"
)

func sampleFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := NewFrame(
		[]string{" Packet Length Std", " Label"},
		[][]string{{"1.5", "BENIGN"}, {"2", "DDoS"}, {"3", "BENIGN"}},
	)
	test.That(t, err, test.ShouldBeNil)
	return f
}

func TestNewFrameRejectsRaggedRows(t *testing.T) {
	_, err := NewFrame([]string{"a", "b"}, [][]string{{"1", "2"}, {"3"}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "row 1")

	_, err = NewFrame(nil, nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestColumnIndexFallsBackToTrimmedName(t *testing.T) {
	f := sampleFrame(t)

	idx, err := f.ColumnIndex(" Label")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, idx, test.ShouldEqual, 1)

	idx, err = f.ColumnIndex("Packet Length Std")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, idx, test.ShouldEqual, 0)

	_, err = f.ColumnIndex("Flow Duration")
	var schemaErr *SchemaError
	test.That(t, errors.As(err, &schemaErr), test.ShouldBeTrue)
	test.That(t, schemaErr.Column, test.ShouldEqual, "Flow Duration")
}

func TestColumnAndSetColumn(t *testing.T) {
	f := sampleFrame(t)

	labels, err := f.Column("Label")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, labels, test.ShouldResemble, []string{"BENIGN", "DDoS", "BENIGN"})

	labels[0] = "changed"
	test.That(t, f.Rows[0][1], test.ShouldEqual, "BENIGN")

	test.That(t, f.SetColumn(" Label", []string{"a", "b", "c"}), test.ShouldBeNil)
	test.That(t, f.Rows[2][1], test.ShouldEqual, "c")

	test.That(t, f.SetColumn(" Label", []string{"a"}), test.ShouldNotBeNil)
}

func TestSubsetCopiesRows(t *testing.T) {
	f := sampleFrame(t)

	sub := f.Subset([]int{2, 0})
	test.That(t, sub.Len(), test.ShouldEqual, 2)
	test.That(t, sub.Rows[0][0], test.ShouldEqual, "3")

	sub.Rows[0][0] = "99"
	test.That(t, f.Rows[2][0], test.ShouldEqual, "3")

	clone := f.Clone()
	test.That(t, clone.Rows, test.ShouldResemble, f.Rows)
}

func TestSchemaValidate(t *testing.T) {
	s := DefaultSchema()
	test.That(t, s.Validate(), test.ShouldBeNil)
	test.That(t, s.Columns(), test.ShouldHaveLength, 10)
	test.That(t, s.Columns()[9], test.ShouldEqual, " Label")

	dup := Schema{Features: []string{" a", "a"}, Target: "y"}
	test.That(t, dup.Validate(), test.ShouldNotBeNil)

	test.That(t, Schema{Target: "y"}.Validate(), test.ShouldNotBeNil)
	test.That(t, Schema{Features: []string{"a"}}.Validate(), test.ShouldNotBeNil)
}
