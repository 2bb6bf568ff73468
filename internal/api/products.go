package api

import (
	"net/http"

	"inventory-service/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listProducts(c *gin.Context) {
	var filter models.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	products, pagination, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"count":      len(products),
		"pagination": pagination,
		"products":   products,
	})
}

func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"product": product})
}

func (h *Handler) createProduct(c *gin.Context) {
	var in models.CreateProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	product, err := h.products.Create(c.Request.Context(), &in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"product": product})
}

func (h *Handler) updateProduct(c *gin.Context) {
	var in models.UpdateProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	product, err := h.products.Update(c.Request.Context(), c.Param("id"), &in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"product": product})
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

func (h *Handler) updateStock(c *gin.Context) {
	var in models.StockAdjustmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	product, err := h.products.AdjustStock(c.Request.Context(), c.Param("id"), &in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"message": "Stock updated successfully",
		"product": product,
	})
}

func (h *Handler) lowStock(c *gin.Context) {
	products, err := h.monitor.ScanAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"count":     len(products),
		"threshold": h.monitor.Threshold(),
		"products":  products,
	})
}
