package reports

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestDiffWriter_HeaderWrittenAtOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	w, err := NewDiffWriter(path)
	if err != nil {
		t.Fatalf("NewDiffWriter: %v", err)
	}
	// Header must be on disk before any row is appended, so an interrupted
	// run still leaves a readable file.
	rows := readCSV(t, path)
	if len(rows) != 1 || strings.Join(rows[0], ",") != strings.Join(DiffHeader, ",") {
		t.Fatalf("expected only the header row, got %v", rows)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestDiffWriter_RowFlushedPerAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	w, err := NewDiffWriter(path)
	if err != nil {
		t.Fatalf("NewDiffWriter: %v", err)
	}
	defer w.Close()

	rec := DiffRecord{
		OrderId:          "ORD-9",
		OrderItemId:      9,
		ExistingProfit:   decimal.RequireFromString("4.00"),
		CalculatedProfit: decimal.RequireFromString("6.50"),
		Difference:       decimal.RequireFromString("2.50"),
		CalculatedMargin: decimal.NewNullDecimal(decimal.RequireFromString("13.00")),
	}
	if err := w.Append(rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Read back without closing: the append already flushed.
	rows := readCSV(t, path)
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(rows))
	}
	got := rows[1]
	want := []string{"ORD-9", "9", "4.00", "6.50", "2.50", "NULL", "13.00", "NULL", "NULL"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("column %s expected %q, got %q", DiffHeader[i], want[i], got[i])
		}
	}
}

func TestNullableMoneyString(t *testing.T) {
	if got := NullableMoneyString(decimal.NullDecimal{}); got != "NULL" {
		t.Fatalf("null expected NULL token, got %q", got)
	}
	zero := decimal.NewNullDecimal(decimal.Zero)
	if got := NullableMoneyString(zero); got != "0.00" {
		t.Fatalf("zero expected 0.00, got %q", got)
	}
	neg := decimal.NewNullDecimal(decimal.RequireFromString("-6"))
	if got := NullableMoneyString(neg); got != "-6.00" {
		t.Fatalf("expected -6.00, got %q", got)
	}
}

func TestWriteSupplierOrders_HeaderOnEmptyInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := WriteSupplierOrders(path, nil); err != nil {
		t.Fatalf("WriteSupplierOrders: %v", err)
	}
	rows := readCSV(t, path)
	if len(rows) != 1 || rows[0][0] != "order_item_id" {
		t.Fatalf("expected header-only file, got %v", rows)
	}
}
