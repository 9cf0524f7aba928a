// Package export renders the Entries result list as downloadable documents.
// It never fetches: callers pass the rows currently on display.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	"github.com/celerix-dev/guardup-admin/pkg/schema"
)

// File names offered for download.
const (
	PDFFilename  = "entries.pdf"
	XLSXFilename = "entries.xlsx"
)

// TimestampLayout is the display format for entry and report timestamps.
const TimestampLayout = "January 2, 2006 at 3:04 PM"

var columns = []string{"User Email", "Building Code", "Timestamp"}

// FormatTimestamp renders t in loc. The zero time renders as "".
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(TimestampLayout)
}

func rows(entries []schema.Entry, loc *time.Location) [][]string {
	out := make([][]string, len(entries))
	for i, e := range entries {
		out[i] = []string{e.UserEmail, e.BuildingCode, FormatTimestamp(e.Timestamp, loc)}
	}
	return out
}

// --- PDF ---

var pdfWidths = []float64{75, 40, 65}

// WritePDF lays out entries as a three-column table.
func WritePDF(w io.Writer, entries []schema.Entry, loc *time.Location) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Entries", true)
	pdf.SetCreator("guardup-admin", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Entries", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for i, c := range columns {
			pdf.CellFormat(pdfWidths[i], 8, c, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 10)
	}

	header()
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range rows(entries, loc) {
		if pdf.GetY()+7 > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		for i, cell := range row {
			pdf.CellFormat(pdfWidths[i], 7, tr(cell), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// --- XLSX ---

const sheetName = "Entries"

// WriteXLSX writes entries as a single-sheet workbook with a header row.
func WriteXLSX(w io.Writer, entries []schema.Entry, loc *time.Location) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerRow := make([]any, len(columns))
	for i, c := range columns {
		headerRow[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &headerRow); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, row := range rows(entries, loc) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{row[0], row[1], row[2]}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "C", 32); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
