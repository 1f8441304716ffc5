package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the workbook WriteWorkbook produces.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var columnWidths = map[string]float64{
	SheetSummary:  28,
	SheetIncomes:  18,
	SheetExpenses: 18,
	SheetGoals:    18,
}

// WriteWorkbook writes the report as an .xlsx file with one sheet per table.
func WriteWorkbook(w io.Writer, d Data) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("amount style: %w", err)
	}

	for i, t := range Tables(d) {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.Name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("create sheet %s: %w", t.Name, err)
		}
		if err := writeTable(f, t, header, money); err != nil {
			return fmt.Errorf("sheet %s: %w", t.Name, err)
		}
	}

	if d.Owner != "" {
		_ = f.SetDocProps(&excelize.DocProperties{
			Creator: "OrganizaPay",
			Title:   "Relatório financeiro de " + d.Owner,
			Created: d.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, t Table, headerStyle, moneyStyle int) error {
	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(t.Header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(t.Name, "A1", last, headerStyle); err != nil {
		return err
	}

	for r, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.Name, cell, &row); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(t.Header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(t.Name, "A", lastCol, columnWidths[t.Name]); err != nil {
		return err
	}

	if len(t.Rows) == 0 {
		return nil
	}
	for _, col := range t.Amounts {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		top := fmt.Sprintf("%s2", name)
		bottom := fmt.Sprintf("%s%d", name, len(t.Rows)+1)
		if err := f.SetCellStyle(t.Name, top, bottom, moneyStyle); err != nil {
			return err
		}
	}
	return nil
}
