package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/rpattn/reportql/internal/domain"
)

func sampleRows() []domain.OutputRow {
	return []domain.OutputRow{
		{
			{Label: "Nome", Value: "Alpha"},
			{Label: "Total", Value: int64(3)},
		},
		{
			{Label: "Nome", Value: nil},
			{Label: "Total", Value: int64(0)},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRows()); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	want := "Nome,Total\nAlpha,3\n,0\n"
	if buf.String() != want {
		t.Fatalf("unexpected CSV:\n got %q\nwant %q", buf.String(), want)
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected empty output, got %q", buf.String())
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleRows()); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook failed: %v", err)
	}
	defer f.Close()

	header, err := f.GetCellValue(sheetName, "A1")
	if err != nil {
		t.Fatalf("read header cell failed: %v", err)
	}
	if header != "Nome" {
		t.Fatalf("expected header Nome, got %q", header)
	}
	value, err := f.GetCellValue(sheetName, "A2")
	if err != nil {
		t.Fatalf("read value cell failed: %v", err)
	}
	if value != "Alpha" {
		t.Fatalf("expected Alpha, got %q", value)
	}
	total, err := f.GetCellValue(sheetName, "B2")
	if err != nil {
		t.Fatalf("read total cell failed: %v", err)
	}
	if total != "3" {
		t.Fatalf("expected 3, got %q", total)
	}
	empty, err := f.GetCellValue(sheetName, "A3")
	if err != nil {
		t.Fatalf("read empty cell failed: %v", err)
	}
	if empty != "" {
		t.Fatalf("null cells export as blank, got %q", empty)
	}
}
