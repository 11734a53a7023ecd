package loader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/payrecon/internal/core"
)

// loadXLSX reads every sheet of an Office Open XML workbook. Raw cell values
// are requested so dates arrive as Excel serial numbers instead of locale
// formatted strings.
func loadXLSX(data []byte) ([]core.RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	tables := make([]core.RawTable, 0, len(sheets))
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read workbook: sheet %q: %w", sheet, err)
		}
		tables = append(tables, core.RawTable{Name: sheet, Rows: trimRows(rawRows(rows))})
	}
	return tables, nil
}

func rawRows(rows [][]string) [][]core.Cell {
	out := make([][]core.Cell, len(rows))
	for i, row := range rows {
		cells := make([]core.Cell, len(row))
		for j, v := range row {
			cells[j] = rawCell(v)
		}
		out[i] = cells
	}
	return out
}

// rawCell keeps identifiers with leading zeros as text.
func rawCell(v string) core.Cell {
	s := strings.TrimSpace(v)
	if s == "" {
		return core.Cell{}
	}
	if len(s) > 1 && s[0] == '0' && s[1] != '.' {
		return core.TextCell(v)
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return core.NumberCell(d)
	}
	return core.TextCell(v)
}
