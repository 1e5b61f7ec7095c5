package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/doc-extractor/internal/batch"
)

// SheetName is the worksheet holding the batch table.
const SheetName = "Extraction"

// RenderXLSX writes the batch table (same columns as Render) to a workbook.
// A second sheet lists document names and batch warnings.
func RenderXLSX(b *batch.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(SheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	idx, _ := f.GetSheetIndex(SheetName)
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	headers, rows := Table(b)
	write := func(sheet string, col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, v)
	}

	for i, h := range headers {
		if err := write(SheetName, i+1, 1, h); err != nil {
			return nil, fmt.Errorf("xlsx header: %w", err)
		}
	}
	for r, row := range rows {
		for c, v := range row {
			if err := write(SheetName, c+1, r+2, v); err != nil {
				return nil, fmt.Errorf("xlsx row %d: %w", r+1, err)
			}
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return nil, fmt.Errorf("xlsx column: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", lastCol, 14); err != nil {
		return nil, fmt.Errorf("xlsx column width: %w", err)
	}

	const docsSheet = "Documents"
	if _, err := f.NewSheet(docsSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	for i, h := range []string{"Row", "Document", "Pages", "Found", "Not found", "Ambiguous"} {
		if err := write(docsSheet, i+1, 1, h); err != nil {
			return nil, fmt.Errorf("xlsx documents header: %w", err)
		}
	}
	for r, res := range b.Results {
		values := []any{r + 1, res.Document, res.PageCount, res.FoundCount(), res.NotFoundCount(), res.AmbiguousCount()}
		for c, v := range values {
			if err := write(docsSheet, c+1, r+2, v); err != nil {
				return nil, fmt.Errorf("xlsx documents row %d: %w", r+1, err)
			}
		}
	}
	next := len(b.Results) + 3
	for i, w := range b.Warnings {
		if err := write(docsSheet, 1, next+i, "Warning"); err != nil {
			return nil, fmt.Errorf("xlsx warning %d: %w", i+1, err)
		}
		if err := write(docsSheet, 2, next+i, w); err != nil {
			return nil, fmt.Errorf("xlsx warning %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(docsSheet, "B", "B", 48); err != nil {
		return nil, fmt.Errorf("xlsx column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
