package sink

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/awards-cli/internal/awards"
)

// SheetName is the worksheet that holds the rows.
const SheetName = "Awards"

// XLSX writes rows to a single-sheet spreadsheet in the reference layout.
type XLSX struct {
	path string
}

// NewXLSX returns an XLSX sink writing to path.
func NewXLSX(path string) *XLSX {
	return &XLSX{path: path}
}

func (x *XLSX) Name() string { return "xlsx" }

func (x *XLSX) Path() string { return x.path }

func (x *XLSX) Write(ctx context.Context, rows []awards.Row) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	addRow(sheet, awards.Columns)
	for i, r := range rows {
		if i%1000 == 0 && ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "xlsx: cancelled")
		}
		addRow(sheet, r.Values())
	}

	if err := f.Save(x.path); err != nil {
		return eris.Wrap(err, "xlsx: save file")
	}
	return nil
}

// Cells stay strings so currency and date display values are kept verbatim.
func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
