package controller

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/ikkim/bizmarket-backend/internal/app/service"
	apperrors "github.com/ikkim/bizmarket-backend/internal/errors"
	"github.com/ikkim/bizmarket-backend/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type OwnerController struct {
	quoteService service.QuoteService
}

func NewOwnerController(quoteService service.QuoteService) *OwnerController {
	return &OwnerController{
		quoteService: quoteService,
	}
}

// UpdateQuoteRequest takes quoted_amount as a JSON number or string.
type UpdateQuoteRequest struct {
	Status       string      `json:"status"`
	QuotedAmount interface{} `json:"quoted_amount"`
	OwnerNotes   string      `json:"owner_notes"`
}

func amountString(v interface{}) (string, bool) {
	switch a := v.(type) {
	case nil:
		return "", true
	case string:
		return a, true
	case float64:
		return strconv.FormatFloat(a, 'f', -1, 64), true
	}
	return "", false
}

// Dashboard lists the owner's businesses and latest quote requests
// GET /api/v1/owner/dashboard
func (ctrl *OwnerController) Dashboard(c *gin.Context) {
	dashboard, err := ctrl.quoteService.OwnerDashboard(currentActor(c))
	if err != nil {
		respondServiceError(c, err, "load dashboard")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// GetQuote shows one of the owner's quote requests
// GET /api/v1/owner/quotes/:id
func (ctrl *OwnerController) GetQuote(c *gin.Context) {
	quoteID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	quote, err := ctrl.quoteService.OwnerQuote(currentActor(c), quoteID)
	if err != nil {
		respondServiceError(c, err, "view quote")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"quote":    quote,
		"statuses": model.QuoteStatuses,
	})
}

// UpdateQuote sets status, amount and notes on a quote request
// PUT /api/v1/owner/quotes/:id
func (ctrl *OwnerController) UpdateQuote(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	quoteID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateQuoteRequest
	if !bindJSON(c, &req) {
		return
	}
	amount, ok := amountString(req.QuotedAmount)
	if !ok {
		log.Warn("Quoted amount has unsupported type", map[string]interface{}{
			"quote_id": quoteID,
		})
		apperrors.BadRequest(c, apperrors.QuoteInvalidAmount, "Quoted amount must be a non-negative number")
		return
	}

	quote, err := ctrl.quoteService.SetStatus(currentActor(c), quoteID, service.QuoteUpdate{
		Status:       req.Status,
		QuotedAmount: amount,
		OwnerNotes:   req.OwnerNotes,
	})
	if err != nil {
		respondServiceError(c, err, "update quote")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Quote request updated",
		"quote":   quote,
	})
}

// ExportQuotes downloads the owner's quote requests as a workbook
// GET /api/v1/owner/quotes/export?status=
func (ctrl *OwnerController) ExportQuotes(c *gin.Context) {
	status := model.QuoteStatus(c.Query("status"))

	data, err := ctrl.quoteService.ExportOwnerQuotes(currentActor(c), status)
	if err != nil {
		respondServiceError(c, err, "export quotes")
		return
	}

	filename := fmt.Sprintf("quotes-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
