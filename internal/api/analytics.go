package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) salesAnalytics(c *gin.Context) {
	r, err := dateRange(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	summary, err := h.analytics.SalesAnalytics(c.Request.Context(), r)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"analytics": summary})
}

func (h *Handler) inventoryAnalytics(c *gin.Context) {
	summary, err := h.analytics.InventoryAnalytics(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"analytics": summary})
}

func (h *Handler) dashboard(c *gin.Context) {
	r, err := dateRange(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	dash, err := h.analytics.Dashboard(c.Request.Context(), r)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"analytics": dash})
}
