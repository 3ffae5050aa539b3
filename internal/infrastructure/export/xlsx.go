package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"rikoadmin/internal/domain/service"
)

const (
	SheetOrders  = "Órdenes"
	SheetSummary = "Resumen Financiero"
	SheetDebtors = "Deudores"

	WorkbookFileName = "ordenes_con_resumen.xlsx"
	WorkbookMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// OrdersWorkbook is the content of an orders export.
type OrdersWorkbook struct {
	Rows    []service.ReportRow
	Summary service.Summary
	Debtors []service.DebtorRow
}

type sheetLayout struct {
	name        string
	headers     []string
	widths      []float64
	headerColor string
	autoFilter  bool
}

var (
	ordersLayout = sheetLayout{
		name:        SheetOrders,
		headers:     service.OrderColumns,
		widths:      []float64{20, 15, 30, 15, 20, 30},
		headerColor: "FFFF00",
		autoFilter:  true,
	}
	summaryLayout = sheetLayout{
		name:        SheetSummary,
		headers:     service.SummaryColumns,
		widths:      []float64{40, 20},
		headerColor: "00FF00",
	}
	debtorsLayout = sheetLayout{
		name:        SheetDebtors,
		headers:     service.DebtorColumns,
		widths:      []float64{20, 30, 20},
		headerColor: "FF0000",
	}
)

// WriteOrdersWorkbook renders the three export sheets as xlsx into w.
func WriteOrdersWorkbook(w io.Writer, wb OrdersWorkbook) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetOrders); err != nil {
		return fmt.Errorf("failed to name orders sheet: %w", err)
	}

	orderRows := make([][]interface{}, 0, len(wb.Rows))
	for _, r := range wb.Rows {
		orderRows = append(orderRows, r.Values())
	}
	if err := writeSheet(f, ordersLayout, orderRows); err != nil {
		return err
	}

	if err := writeSheet(f, summaryLayout, wb.Summary.Rows()); err != nil {
		return err
	}

	debtorRows := make([][]interface{}, 0, len(wb.Debtors))
	for _, d := range wb.Debtors {
		debtorRows = append(debtorRows, d.Values())
	}
	if err := writeSheet(f, debtorsLayout, debtorRows); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, layout sheetLayout, rows [][]interface{}) error {
	if idx, _ := f.GetSheetIndex(layout.name); idx < 0 {
		if _, err := f.NewSheet(layout.name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", layout.name, err)
		}
	}

	headers := make([]interface{}, len(layout.headers))
	for i, h := range layout.headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(layout.name, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write %s header: %w", layout.name, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(layout.name, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", layout.name, i+1, err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{layout.headerColor}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(layout.headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(layout.name, "A1", lastCol+"1", style); err != nil {
		return fmt.Errorf("failed to style %s header: %w", layout.name, err)
	}

	for i, width := range layout.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(layout.name, col, col, width); err != nil {
			return fmt.Errorf("failed to size %s column %s: %w", layout.name, col, err)
		}
	}

	if layout.autoFilter {
		ref := fmt.Sprintf("A1:%s%d", lastCol, len(rows)+1)
		if err := f.AutoFilter(layout.name, ref, nil); err != nil {
			return fmt.Errorf("failed to add autofilter to %s: %w", layout.name, err)
		}
	}

	return nil
}
