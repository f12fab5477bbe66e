package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportDiffXLSX renders the divergence rows as a spreadsheet for the ops
// people who review the report in Excel rather than grepping the CSV.
func ExportDiffXLSX(filename string, rows []DiffRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"

	// Add headers
	for i, h := range DiffHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheet, cell, h)
	}

	// Add data
	for i, r := range rows {
		rowNo := fmt.Sprint(i + 2)
		f.SetCellValue(sheet, "A"+rowNo, r.OrderId)
		f.SetCellValue(sheet, "B"+rowNo, r.OrderItemId)
		f.SetCellValue(sheet, "C"+rowNo, r.ExistingProfit.StringFixed(2))
		f.SetCellValue(sheet, "D"+rowNo, r.CalculatedProfit.StringFixed(2))
		f.SetCellValue(sheet, "E"+rowNo, r.Difference.StringFixed(2))
		f.SetCellValue(sheet, "F"+rowNo, NullableMoneyString(r.ExistingMargin))
		f.SetCellValue(sheet, "G"+rowNo, NullableMoneyString(r.CalculatedMargin))
		f.SetCellValue(sheet, "H"+rowNo, NullableMoneyString(r.ExistingRoi))
		f.SetCellValue(sheet, "I"+rowNo, NullableMoneyString(r.CalculatedRoi))
	}

	return f.SaveAs(filename)
}
