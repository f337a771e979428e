package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/dto"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/middleware"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/service"
)

type PaymentMethodHandler struct {
	catalogService *service.CatalogService
}

func NewPaymentMethodHandler(catalogService *service.CatalogService) *PaymentMethodHandler {
	return &PaymentMethodHandler{catalogService: catalogService}
}

func (h *PaymentMethodHandler) List(c *gin.Context) {
	activeOnly := middleware.GetUserRole(c) != model.RoleAdmin
	methods, err := h.catalogService.ListPaymentMethods(c.Request.Context(), activeOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	resp := make([]dto.PaymentMethodResponse, 0, len(methods))
	for i := range methods {
		resp = append(resp, toPaymentMethodResponse(&methods[i]))
	}
	c.JSON(http.StatusOK, gin.H{"payment_methods": resp})
}

func (h *PaymentMethodHandler) Update(c *gin.Context) {
	code := c.Param("code")

	var req dto.UpdatePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pm, err := h.catalogService.GetPaymentMethod(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrPaymentMethodNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment method not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if req.NameAr != nil {
		pm.NameAr = *req.NameAr
	}
	if req.NameEn != nil {
		pm.NameEn = *req.NameEn
	}
	if req.InstructionsAr != nil {
		pm.InstructionsAr = *req.InstructionsAr
	}
	if req.InstructionsEn != nil {
		pm.InstructionsEn = *req.InstructionsEn
	}
	if req.Details != nil {
		pm.Details = *req.Details
	}
	if req.IsActive != nil {
		pm.IsActive = *req.IsActive
	}

	if err := h.catalogService.UpdatePaymentMethod(c.Request.Context(), pm); err != nil {
		if errors.Is(err, service.ErrPaymentMethodNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment method not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, toPaymentMethodResponse(pm))
}

func toPaymentMethodResponse(pm *model.PaymentMethod) dto.PaymentMethodResponse {
	return dto.PaymentMethodResponse{
		Code:           pm.Code,
		NameAr:         pm.NameAr,
		NameEn:         pm.NameEn,
		InstructionsAr: pm.InstructionsAr,
		InstructionsEn: pm.InstructionsEn,
		Details:        pm.Details,
		IsActive:       pm.IsActive,
	}
}
