// Package report renders classified tickets into a formatted xlsx report.
package report

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"ticketbot/internal/domain"
)

const sheetName = "Classified Tickets"

type column struct {
	header string
	width  float64
}

var columns = []column{
	{"Request ID", 12},
	{"Short Description", 40},
	{"Long Description", 60},
	{"Requester Email", 30},
	{"Category", 25},
	{"Request Type", 35},
	{"SLA Value", 12},
	{"SLA Unit", 12},
}

// SortTickets orders tickets by (category, request type, short description),
// all ascending, case-sensitive lexicographic. Returns a new slice.
func SortTickets(tickets []domain.Ticket) []domain.Ticket {
	sorted := make([]domain.Ticket, len(tickets))
	copy(sorted, tickets)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.RequestType != b.RequestType {
			return a.RequestType < b.RequestType
		}
		return a.ShortDescription < b.ShortDescription
	})
	return sorted
}

func ticketRow(t domain.Ticket) []any {
	return []any{
		t.ID,
		t.ShortDescription,
		t.LongDescription,
		t.RequesterEmail,
		t.Category,
		t.RequestType,
		t.SLA.Value,
		t.SLA.Unit,
	}
}

// Generate writes the sorted report to path, creating parent directories.
func Generate(tickets []domain.Ticket, path string) error {
	sorted := SortTickets(tickets)
	log.Printf("report sorted=%d path=%s", len(sorted), path)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	if err := writeHeaders(f); err != nil {
		return err
	}
	if err := writeData(f, sorted); err != nil {
		return err
	}

	for i, col := range columns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, name, name, col.width); err != nil {
			return fmt.Errorf("setting column width: %w", err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header row: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving report: %w", err)
	}

	log.Printf("report saved path=%s", path)
	return nil
}

func writeHeaders(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2F5496"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorder(),
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, col.header); err != nil {
			return fmt.Errorf("writing header %s: %w", col.header, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
			return fmt.Errorf("styling header %s: %w", col.header, err)
		}
	}
	return f.SetRowHeight(sheetName, 1, 30)
}

func writeData(f *excelize.File, tickets []domain.Ticket) error {
	styleOdd, err := dataStyle(f, "F2F2F2")
	if err != nil {
		return err
	}
	styleEven, err := dataStyle(f, "FFFFFF")
	if err != nil {
		return err
	}

	for i, ticket := range tickets {
		row := i + 2
		style := styleEven
		if row%2 == 0 {
			style = styleOdd
		}
		for j, value := range ticketRow(ticket) {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
			if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
				return fmt.Errorf("styling row %d: %w", row, err)
			}
		}
	}
	return nil
}

func dataStyle(f *excelize.File, fill string) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}},
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		Border:    thinBorder(),
	})
	if err != nil {
		return 0, fmt.Errorf("creating data style: %w", err)
	}
	return style, nil
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "D0D0D0", Style: 1},
		{Type: "right", Color: "D0D0D0", Style: 1},
		{Type: "top", Color: "D0D0D0", Style: 1},
		{Type: "bottom", Color: "D0D0D0", Style: 1},
	}
}
