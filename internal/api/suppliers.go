package api

import (
	"net/http"

	"inventory-service/internal/apperr"
	"inventory-service/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listSuppliers(c *gin.Context) {
	status := models.SupplierStatus(c.Query("status"))
	if status != "" && status != models.SupplierStatusActive && status != models.SupplierStatusInactive {
		h.respondError(c, apperr.Validation("Invalid status",
			apperr.FieldError{Field: "status", Message: "must be one of active, inactive"}))
		return
	}

	suppliers, err := h.suppliers.List(c.Request.Context(), status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"count":     len(suppliers),
		"suppliers": suppliers,
	})
}

func (h *Handler) getSupplier(c *gin.Context) {
	supplier, err := h.suppliers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"supplier": supplier})
}

func (h *Handler) createSupplier(c *gin.Context) {
	var in models.SupplierInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	supplier, err := h.suppliers.Create(c.Request.Context(), &in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"supplier": supplier})
}

func (h *Handler) updateSupplier(c *gin.Context) {
	var in models.SupplierInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	supplier, err := h.suppliers.Update(c.Request.Context(), c.Param("id"), &in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"supplier": supplier})
}

func (h *Handler) deleteSupplier(c *gin.Context) {
	if err := h.suppliers.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Supplier deleted successfully"})
}
