package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// Exporter renders a register into a downloadable document.
type Exporter interface {
	Export(title, format string, headers []string, rows [][]string) ([]byte, string, string, error)
}

type exporter struct{}

func NewExporter() Exporter {
	return &exporter{}
}

// Export renders the rows and returns the payload, a filename and the
// content type for the download response.
func (e *exporter) Export(title, format string, headers []string, rows [][]string) ([]byte, string, string, error) {
	switch format {
	case FormatCSV:
		data, err := e.exportCSV(headers, rows)
		if err != nil {
			return nil, "", "", err
		}
		return data, title + ".csv", "text/csv", nil

	case FormatExcel:
		data, err := e.exportExcel(title, headers, rows)
		if err != nil {
			return nil, "", "", err
		}
		return data, title + ".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil

	case FormatPDF:
		data, err := e.exportPDF(title, headers, rows)
		if err != nil {
			return nil, "", "", err
		}
		return data, title + ".pdf", "application/pdf", nil

	default:
		return nil, "", "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func (e *exporter) exportCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(headers); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *exporter) exportExcel(title string, headers []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	sheet := title
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		f.SetCellValue(sheet, cell, h)
	}

	for rIdx, row := range rows {
		for cIdx, value := range row {
			cell, err := excelize.CoordinatesToCellName(cIdx+1, rIdx+2)
			if err != nil {
				return nil, err
			}
			f.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *exporter) exportPDF(title string, headers []string, rows [][]string) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, title)
	pdf.Ln(12)

	// Split the printable width evenly across the columns
	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colWidth := (pageWidth - left - right) / float64(len(headers))

	pdf.SetFont("Arial", "B", 9)
	for _, h := range headers {
		pdf.CellFormat(colWidth, 8, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range rows {
		for _, value := range row {
			if len(value) > 40 {
				value = value[:37] + "..."
			}
			pdf.CellFormat(colWidth, 7, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
