package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/dto"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/middleware"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/service"
)

type GovernorateHandler struct {
	catalogService *service.CatalogService
}

func NewGovernorateHandler(catalogService *service.CatalogService) *GovernorateHandler {
	return &GovernorateHandler{catalogService: catalogService}
}

func (h *GovernorateHandler) Create(c *gin.Context) {
	var req dto.GovernorateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gov := govFromRequest(uuid.Nil, req)
	if err := h.catalogService.CreateGovernorate(c.Request.Context(), gov); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, toGovernorateResponse(gov))
}

func (h *GovernorateHandler) List(c *gin.Context) {
	activeOnly := middleware.GetUserRole(c) != model.RoleAdmin
	govs, err := h.catalogService.ListGovernorates(c.Request.Context(), activeOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	resp := make([]dto.GovernorateResponse, 0, len(govs))
	for i := range govs {
		resp = append(resp, toGovernorateResponse(&govs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"governorates": resp})
}

func (h *GovernorateHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid governorate ID"})
		return
	}

	var req dto.GovernorateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gov := govFromRequest(id, req)
	if err := h.catalogService.UpdateGovernorate(c.Request.Context(), gov); err != nil {
		if errors.Is(err, service.ErrGovernorateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "governorate not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, toGovernorateResponse(gov))
}

// BulkUpdateShipping applies one rate to many governorates in a single
// all-or-nothing call.
func (h *GovernorateHandler) BulkUpdateShipping(c *gin.Context) {
	var req dto.BulkShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.catalogService.BulkUpdateShipping(c.Request.Context(), req.GovernorateIDs, req.ShippingCost, req.IsFreeShipping)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "bulk update failed, no rows changed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": len(req.GovernorateIDs)})
}

func govFromRequest(id uuid.UUID, req dto.GovernorateRequest) *model.Governorate {
	gov := &model.Governorate{
		ID:             id,
		NameAr:         req.NameAr,
		NameEn:         req.NameEn,
		ShippingCost:   req.ShippingCost,
		IsFreeShipping: req.IsFreeShipping,
		IsActive:       true,
	}
	if req.IsActive != nil {
		gov.IsActive = *req.IsActive
	}
	return gov
}

func toGovernorateResponse(gov *model.Governorate) dto.GovernorateResponse {
	return dto.GovernorateResponse{
		ID:             gov.ID,
		NameAr:         gov.NameAr,
		NameEn:         gov.NameEn,
		ShippingCost:   gov.ShippingCost,
		IsFreeShipping: gov.IsFreeShipping,
		IsActive:       gov.IsActive,
	}
}
