package api

import (
	"net/http"
	"time"

	"inventory-service/internal/apperr"
	"inventory-service/internal/models"

	"github.com/gin-gonic/gin"
)

// saleView adds the display reference to a sale
type saleView struct {
	*models.Sale
	SaleNumber string `json:"saleNumber"`
}

func viewOf(s *models.Sale) saleView {
	return saleView{Sale: s, SaleNumber: s.SaleNumber()}
}

// parseDate accepts RFC 3339 or a bare date. A bare end date covers the
// whole day.
func parseDate(field, value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, apperr.Validation("Invalid date",
			apperr.FieldError{Field: field, Message: "must be YYYY-MM-DD or RFC 3339"})
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func dateRange(c *gin.Context) (models.DateRange, error) {
	start, err := parseDate("startDate", c.Query("startDate"), false)
	if err != nil {
		return models.DateRange{}, err
	}
	end, err := parseDate("endDate", c.Query("endDate"), true)
	if err != nil {
		return models.DateRange{}, err
	}
	return models.DateRange{Start: start, End: end}, nil
}

func (h *Handler) listSales(c *gin.Context) {
	var filter models.SaleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.respondError(c, bindError(err))
		return
	}
	r, err := dateRange(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	filter.StartDate, filter.EndDate = r.Start, r.End

	sales, pagination, err := h.sales.ListSales(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	views := make([]saleView, 0, len(sales))
	for i := range sales {
		views = append(views, viewOf(&sales[i]))
	}
	respond(c, http.StatusOK, gin.H{
		"count":      len(views),
		"pagination": pagination,
		"sales":      views,
	})
}

func (h *Handler) getSale(c *gin.Context) {
	sale, err := h.sales.GetSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"sale": viewOf(sale)})
}

func (h *Handler) createSale(c *gin.Context) {
	var in models.CreateSaleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	sale, err := h.sales.CreateSale(c.Request.Context(), &in, c.GetHeader("Idempotency-Key"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{
		"message": "Sale recorded successfully",
		"sale":    viewOf(sale),
	})
}

func (h *Handler) deleteSale(c *gin.Context) {
	if err := h.sales.DeleteSale(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Sale deleted and stock restored successfully"})
}
