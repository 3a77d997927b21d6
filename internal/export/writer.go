package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rpattn/reportql/internal/domain"
)

const sheetName = "Relatório"

// WriteXLSX writes the report rows as a single-sheet workbook. The header
// row carries the column labels; formatted values are written as-is.
func WriteXLSX(w io.Writer, rows []domain.OutputRow) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	if len(rows) > 0 {
		for i, label := range rows[0].Labels() {
			cell, err := excelize.CoordinatesToCellName(i+1, 1)
			if err != nil {
				return fmt.Errorf("header cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, label); err != nil {
				return fmt.Errorf("write header: %w", err)
			}
		}
	}
	for r, row := range rows {
		for c, cell := range row {
			name, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, name, exportValue(cell.Value)); err != nil {
				return fmt.Errorf("write row %d: %w", r+1, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteCSV writes the report rows as comma-separated text with a label
// header.
func WriteCSV(w io.Writer, rows []domain.OutputRow) error {
	writer := csv.NewWriter(w)
	if len(rows) > 0 {
		if err := writer.Write(rows[0].Labels()); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	line := make([]string, 0, 8)
	for _, row := range rows {
		line = line[:0]
		for _, cell := range row {
			line = append(line, formatCSVValue(cell.Value))
		}
		if err := writer.Write(line); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush rows: %w", err)
	}
	return nil
}

// exportValue passes scalars through so spreadsheet cells keep their native
// type. Display formatting upstream already turned dates and booleans into
// strings.
func exportValue(value any) any {
	if value == nil {
		return ""
	}
	return value
}

func formatCSVValue(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v)
	}
}
