package table

import (
	"errors"
	"testing"
)

func sampleTable() *Table {
	tbl := New("kernel", "stride", "misalign", "gflops")
	for _, row := range [][]string{
		{"saxpy", "1", "0", "10"},
		{"saxpy", "1.0", "1", "9"},
		{"saxpy", "2", "0", "8"},
		{"dot", "1", "0", "7"},
	} {
		tbl.AppendRow(row)
	}
	return tbl
}

func TestFilterEquality(t *testing.T) {
	out, err := sampleTable().Filter(Eq("kernel", "saxpy"), false)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if out.Len() != 3 {
		t.Errorf("expected 3 saxpy rows, got %d", out.Len())
	}
}

func TestFilterNumericEquality(t *testing.T) {
	// "1" must match the cell "1.0".
	out, err := sampleTable().Filter(Eq("stride", "1"), false)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if out.Len() != 3 {
		t.Errorf("expected 3 stride=1 rows (including 1.0), got %d", out.Len())
	}
}

func TestFilterSetMembership(t *testing.T) {
	out, err := sampleTable().Filter(Predicates{"stride": {"1", "2"}}, false)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if out.Len() != 4 {
		t.Errorf("expected all 4 rows, got %d", out.Len())
	}
}

func TestFilterUnknownField(t *testing.T) {
	tbl := sampleTable()

	out, err := tbl.Filter(Eq("ghost", "1"), false)
	if err != nil {
		t.Fatalf("tolerant mode must ignore unknown fields: %v", err)
	}
	if out.Len() != tbl.Len() {
		t.Errorf("tolerant unknown predicate must keep every row, got %d", out.Len())
	}

	_, err = tbl.Filter(Eq("ghost", "1"), true)
	if !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("strict mode must reject unknown fields, got %v", err)
	}
}

func TestFilterIdempotent(t *testing.T) {
	preds := Predicates{"kernel": {"saxpy"}, "misalign": {"0"}}
	once, err := sampleTable().Filter(preds, false)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	twice, err := once.Filter(preds, false)
	if err != nil {
		t.Fatalf("second Filter failed: %v", err)
	}
	if once.Len() != twice.Len() {
		t.Fatalf("filtering twice changed the row count: %d vs %d", once.Len(), twice.Len())
	}
	for row := 0; row < once.Len(); row++ {
		for _, col := range once.Columns() {
			if once.String(col, row) != twice.String(col, row) {
				t.Fatalf("row %d column %s differs after refiltering", row, col)
			}
		}
	}
}

func TestJoinInner(t *testing.T) {
	left := New("key", "v")
	left.AppendRow([]string{"A", "1"})
	left.AppendRow([]string{"B", "2"})
	right := New("key", "v")
	right.AppendRow([]string{"B", "20"})
	right.AppendRow([]string{"C", "30"})

	out := Join(left, right, []string{"key"}, "_l", "_r")
	if out.Len() != 1 {
		t.Fatalf("inner join of {A,B} and {B,C} must keep only B, got %d rows", out.Len())
	}
	if got := out.String("key", 0); got != "B" {
		t.Errorf("expected key B, got %q", got)
	}
	if out.Float("v_l", 0) != 2 || out.Float("v_r", 0) != 20 {
		t.Errorf("colliding columns must carry suffixes: v_l=%v v_r=%v",
			out.Float("v_l", 0), out.Float("v_r", 0))
	}
}

func TestJoinNumericKeys(t *testing.T) {
	left := New("n", "a")
	left.AppendRow([]string{"1024", "1"})
	right := New("n", "b")
	right.AppendRow([]string{"1024.0", "2"})

	out := Join(left, right, []string{"n"}, "_l", "_r")
	if out.Len() != 1 {
		t.Fatalf("numeric keys must join across formatting, got %d rows", out.Len())
	}
	if !out.Has("a") || !out.Has("b") {
		t.Errorf("non-colliding columns must keep their names, got %v", out.Columns())
	}
}

func TestJoinEmptySide(t *testing.T) {
	left := New("key", "v")
	right := New("key", "w")
	right.AppendRow([]string{"A", "1"})

	out := Join(left, right, []string{"key"}, "_l", "_r")
	if out.Len() != 0 {
		t.Fatalf("empty side must produce an empty join, got %d rows", out.Len())
	}
	if !out.Has("key") || !out.Has("v") || !out.Has("w") {
		t.Errorf("empty join must keep its structure, columns: %v", out.Columns())
	}
}
