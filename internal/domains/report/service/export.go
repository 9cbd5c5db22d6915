package service

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	loanModel "library-lite/internal/domains/loan/model"
)

const loanSheet = "Loans"

var loanHeaders = []string{
	"Loan ID",
	"Borrower",
	"Email",
	"Book",
	"ISBN",
	"Borrow Date",
	"Due Date",
	"Return Date",
	"Status",
	"Fine",
	"Days Overdue",
}

func buildLoansWorkbook(loans []loanModel.Loan) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", loanSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	// Row 1: Header
	for col, header := range loanHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(loanSheet, cell, header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(loanHeaders), 1)
		_ = f.SetCellStyle(loanSheet, "A1", last, style)
	}

	// Data rows bắt đầu từ row 2
	for i, l := range loans {
		row := make([]interface{}, 0, len(loanHeaders))
		row = append(row, l.ID.String())
		if l.User != nil {
			row = append(row, l.User.FullName, l.User.Email)
		} else {
			row = append(row, "", "")
		}
		if l.Book != nil {
			row = append(row, l.Book.Title, l.Book.ISBN)
		} else {
			row = append(row, l.BookID.String(), "")
		}
		row = append(row,
			l.BorrowDate.Format("2006-01-02 15:04"),
			l.DueDate.Format("2006-01-02 15:04"),
		)
		if l.ReturnDate != nil {
			row = append(row, l.ReturnDate.Format("2006-01-02 15:04"))
		} else {
			row = append(row, "")
		}

		amount := l.Fine
		days := 0
		if l.CalculatedFine != nil {
			amount = *l.CalculatedFine
		}
		if l.DaysOverdue != nil {
			days = *l.DaysOverdue
		}
		row = append(row, l.Status, amount.InexactFloat64(), days)

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(loanSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
