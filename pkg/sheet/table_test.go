package sheet

import (
	"reflect"
	"testing"
)

func TestTable_SampleIdentifiers(t *testing.T) {
	table := searchTable(t)

	got := table.SampleIdentifiers(3)
	want := []string{"111111111111111", "222222222222222", ""}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SampleIdentifiers(3) = %v, want %v", got, want)
	}

	if n := len(table.SampleIdentifiers(100)); n != table.Rows() {
		t.Errorf("oversized sample = %d values, want %d", n, table.Rows())
	}
}

func TestTable_RowOutOfRange(t *testing.T) {
	table := searchTable(t)
	if rec := table.Row(-1); rec != nil {
		t.Errorf("Row(-1) = %v, want nil", rec)
	}
	if rec := table.Row(table.Rows()); rec != nil {
		t.Errorf("Row(len) = %v, want nil", rec)
	}
}

func TestTable_NilSafe(t *testing.T) {
	var table *Table
	if table.Rows() != 0 {
		t.Error("nil table Rows != 0")
	}
	if table.Columns() != nil {
		t.Error("nil table Columns != nil")
	}
	if table.HasColumn(IMEIColumn) {
		t.Error("nil table HasColumn = true")
	}
	if _, ok := table.Column(IMEIColumn); ok {
		t.Error("nil table Column ok = true")
	}
}
