package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/motel-occupancy/internal/model"
)

// SalesSheet is the name of the worksheet written by WriteSalesWorkbook.
const SalesSheet = "Sales"

var salesHeaders = []string{"Room", "Guest", "Check-in", "Check-out", "Status", "Payment Method", "Payment Amount"}

var salesColumnWidths = []float64{8, 28, 12, 12, 12, 16, 16}

// WriteSalesWorkbook renders the bookings of a sales window as an xlsx
// workbook: a header row, one row per booking and a closing total row.
// Amounts are written in minor units as stored.
func WriteSalesWorkbook(periodStart time.Time, rows []model.BookingDetail) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SalesSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, h := range salesHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(SalesSheet, cell, h); err != nil {
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(SalesSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("set header style: %w", err)
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SalesSheet, col, col, salesColumnWidths[i]); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	var total int64
	for i, b := range rows {
		total += b.PaymentAmount
		values := []any{
			b.RoomNumber,
			b.FullName,
			b.CheckIn.Format(model.DateLayout),
			b.CheckOut.Format(model.DateLayout),
			string(b.Status),
			b.PaymentMethod,
			b.PaymentAmount,
		}
		if err := setRow(f, i+2, values); err != nil {
			return nil, err
		}
	}

	footer := len(rows) + 2
	since := fmt.Sprintf("Total since %s", periodStart.Format(time.RFC3339))
	if err := setRow(f, footer, []any{nil, since, nil, nil, nil, nil, total}); err != nil {
		return nil, err
	}

	if err := f.SetPanes(SalesSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []any) error {
	for col, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SalesSheet, cell, v); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	return nil
}
