package service

import (
	"fmt"
	"strings"

	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/ikkim/bizmarket-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const quoteExportSheet = "Quotes"

var quoteExportHeaders = []string{
	"Quote ID", "Business", "Status", "Customer", "Email", "Phone",
	"Location", "Items", "Quoted Amount", "Owner Notes", "Created At",
}

// ExportOwnerQuotes renders the actor's quotes as an xlsx workbook.
func (s *quoteService) ExportOwnerQuotes(actor Actor, status model.QuoteStatus) ([]byte, error) {
	quotes, err := s.OwnerQuotes(actor, status)
	if err != nil {
		return nil, err
	}

	data, err := BuildQuoteWorkbook(quotes)
	if err != nil {
		logger.Error("Failed to build quote export", err, map[string]interface{}{
			"user_id": actor.UserID,
		})
		return nil, err
	}

	logger.Info("Quote export generated", map[string]interface{}{
		"user_id": actor.UserID,
		"rows":    len(quotes),
		"bytes":   len(data),
	})
	return data, nil
}

func summarizeItems(items []model.QuoteServiceItem) string {
	parts := make([]string, 0, len(items))
	for i := range items {
		parts = append(parts, fmt.Sprintf("%d x %s", items[i].Quantity, items[i].DisplayName()))
	}
	return strings.Join(parts, "; ")
}

// BuildQuoteWorkbook writes one header row plus one row per quote.
func BuildQuoteWorkbook(quotes []model.QuoteRequest) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), quoteExportSheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(quoteExportSheet, "A1", &quoteExportHeaders); err != nil {
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(quoteExportHeaders))
	if err := f.SetCellStyle(quoteExportSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, err
	}

	for i, q := range quotes {
		location := ""
		if q.Location != nil {
			location = q.Location.String()
		}
		var amount interface{}
		if q.QuotedAmount != nil {
			amount = *q.QuotedAmount
		}

		row := []interface{}{
			q.ID,
			q.Business.Name,
			q.Status.Label(),
			q.FullName,
			q.Email,
			q.Phone,
			location,
			summarizeItems(q.Items),
			amount,
			q.OwnerNotes,
			q.CreatedAt.Format("2006-01-02 15:04"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(quoteExportSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
