package loader

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"

	"github.com/JonMunkholm/payrecon/internal/core"
)

// loadXLS reads every sheet of a legacy BIFF workbook.
func loadXLS(data []byte) (tables []core.RawTable, err error) {
	// The BIFF parser panics on some truncated files.
	defer func() {
		if r := recover(); r != nil {
			tables, err = nil, fmt.Errorf("read workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}

	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}

		rows := make([][]core.Cell, 0, int(sheet.MaxRow)+1)
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]core.Cell, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells = append(cells, rawCell(row.Col(c)))
			}
			rows = append(rows, cells)
		}
		tables = append(tables, core.RawTable{Name: sheet.Name, Rows: trimRows(rows)})
	}
	return tables, nil
}
