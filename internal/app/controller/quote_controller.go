package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizmarket-backend/internal/app/service"
	"github.com/ikkim/bizmarket-backend/internal/middleware"
)

type QuoteController struct {
	quoteService service.QuoteService
}

func NewQuoteController(quoteService service.QuoteService) *QuoteController {
	return &QuoteController{
		quoteService: quoteService,
	}
}

// GetQuoteForm returns the prefilled contact form, the cart and the
// business's locations
// GET /api/v1/businesses/:id/quote-form
func (ctrl *QuoteController) GetQuoteForm(c *gin.Context) {
	businessID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	view, err := ctrl.quoteService.Prefill(c.Request.Context(), middleware.GetSessionID(c), currentActor(c), businessID)
	if err != nil {
		respondServiceError(c, err, "load quote form")
		return
	}

	c.JSON(http.StatusOK, view)
}

// SubmitQuote turns the session cart into a quote request
// POST /api/v1/businesses/:id/quotes
func (ctrl *QuoteController) SubmitQuote(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	businessID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var form service.QuoteForm
	if !bindJSON(c, &form) {
		return
	}

	quote, err := ctrl.quoteService.Submit(c.Request.Context(), middleware.GetSessionID(c), currentActor(c), businessID, form)
	if err != nil {
		respondServiceError(c, err, "submit quote")
		return
	}

	log.Info("Quote request created", map[string]interface{}{
		"quote_id":    quote.ID,
		"business_id": businessID,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message": "Quote request sent",
		"quote":   quote,
	})
}

// GetQuote shows a quote to its customer, the business owner or a superuser
// GET /api/v1/quotes/:id
func (ctrl *QuoteController) GetQuote(c *gin.Context) {
	quoteID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	quote, err := ctrl.quoteService.ViewQuote(currentActor(c), quoteID)
	if err != nil {
		respondServiceError(c, err, "view quote")
		return
	}

	c.JSON(http.StatusOK, gin.H{"quote": quote})
}
