package exporter

import (
	"log/slog"

	"github.com/xuri/excelize/v2"

	apperrors "somacli/internal/errors"
	"somacli/internal/soma"
)

// excelSheetName is the worksheet the aggregate table lands on.
const excelSheetName = "Soma Analysis"

// WriteXLSX writes the aggregate table to an Excel workbook with the
// same columns as the CSV report. The header row is bold with a
// frozen pane so long tables stay readable.
func (w *ReportWriter) WriteXLSX(path string, aggregates []soma.SampleAggregate) error {
	headers, records := BuildTable(aggregates)

	w.logger.Info("writing Excel report",
		slog.String("path", path),
		slog.Int("sample_count", len(records)))

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(excelSheetName)
	if err != nil {
		return apperrors.NewStorageError("failed to create worksheet", path, err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return apperrors.NewStorageError("failed to remove default worksheet", path, err)
	}

	headerRow := make([]interface{}, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(excelSheetName, "A1", &headerRow); err != nil {
		return apperrors.NewStorageError("failed to write header row", path, err)
	}

	for i, record := range records {
		row := make([]interface{}, len(record))
		for j, cell := range record {
			row[j] = cell
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.NewStorageError("failed to compute cell reference", path, err)
		}
		if err := f.SetSheetRow(excelSheetName, cellRef, &row); err != nil {
			return apperrors.NewStorageError("failed to write data row", path, err)
		}
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		endCell, cellErr := excelize.CoordinatesToCellName(len(headers), 1)
		if cellErr == nil {
			f.SetCellStyle(excelSheetName, "A1", endCell, boldStyle)
		}
	}
	if err := f.SetPanes(excelSheetName, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return apperrors.NewStorageError("failed to freeze header pane", path, err)
	}

	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError("failed to save Excel report", path, err)
	}
	return nil
}
