package excel

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"difcregistry/internal/errors"
)

// Row is one spreadsheet row as an open key-value mapping.
type Row map[string]any

// Workbook accumulates named sheets of open-map rows and renders them as
// one xlsx blob. No schema is pre-declared: each sheet's columns are the
// union of keys across its rows.
type Workbook struct {
	sheets []sheet
}

type sheet struct {
	name      string
	rows      []Row
	preferred []string
}

// NewWorkbook creates an empty workbook.
func NewWorkbook() *Workbook {
	return &Workbook{}
}

// AddSheet appends a sheet. preferred fixes the leading column order;
// preferred columns always appear (so a zero-row sheet with preferred
// columns renders header-only), remaining union keys follow sorted.
// Sheets appear in the workbook in AddSheet order.
func (w *Workbook) AddSheet(name string, rows []Row, preferred []string) {
	w.sheets = append(w.sheets, sheet{name: name, rows: rows, preferred: preferred})
}

// Bytes renders the workbook into an in-memory xlsx blob.
func (w *Workbook) Bytes() ([]byte, error) {
	if len(w.sheets) == 0 {
		return nil, errors.InvalidInput("workbook has no sheets")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range w.sheets {
		if i == 0 {
			// Rename the default sheet rather than leaving an empty Sheet1.
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return nil, errors.Wrapf(err, "failed to name sheet %s", sh.name)
			}
		} else {
			if _, err := f.NewSheet(sh.name); err != nil {
				return nil, errors.Wrapf(err, "failed to add sheet %s", sh.name)
			}
		}

		columns := sh.columns()
		for c, header := range columns {
			cell, _ := excelize.CoordinatesToCellName(c+1, 1)
			if err := f.SetCellValue(sh.name, cell, header); err != nil {
				return nil, errors.Wrapf(err, "failed to write header %s", header)
			}
		}
		for r, row := range sh.rows {
			for c, col := range columns {
				v, ok := row[col]
				if !ok || v == nil {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
				if err := f.SetCellValue(sh.name, cell, cellValue(v)); err != nil {
					return nil, errors.Wrapf(err, "failed to write cell %s!%s", sh.name, cell)
				}
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "failed to render workbook")
	}
	return buf.Bytes(), nil
}

// columns resolves the sheet's column order: preferred first, then the
// remaining union of row keys sorted for determinism (map iteration order
// would otherwise shuffle columns between runs).
func (s sheet) columns() []string {
	seen := make(map[string]bool, len(s.preferred))
	columns := make([]string, 0, len(s.preferred))
	for _, col := range s.preferred {
		if !seen[col] {
			seen[col] = true
			columns = append(columns, col)
		}
	}

	var rest []string
	for _, row := range s.rows {
		for key := range row {
			if !seen[key] {
				seen[key] = true
				rest = append(rest, key)
			}
		}
	}
	sort.Strings(rest)
	return append(columns, rest...)
}

// cellValue converts a decoded JSON value into something excelize writes
// faithfully. Nested structures that bypassed upstream flattening are
// JSON-stringified rather than left to fmt's map formatting.
func cellValue(v any) any {
	switch t := v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	default:
		return v
	}
}
