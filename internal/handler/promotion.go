package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/dto"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/service"
)

type PromotionHandler struct {
	promoService *service.PromotionService
}

func NewPromotionHandler(promoService *service.PromotionService) *PromotionHandler {
	return &PromotionHandler{promoService: promoService}
}

func (h *PromotionHandler) Create(c *gin.Context) {
	var req dto.CreatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := model.PromotionStatus(req.Status)
	if status == "" {
		status = model.PromotionStatusActive
	}
	promo := &model.Promotion{
		Title:              req.Title,
		Type:               req.Type,
		DiscountPercentage: req.DiscountPercentage,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		Status:             status,
		Priority:           req.Priority,
	}
	for _, p := range req.Products {
		promo.Products = append(promo.Products, model.PromotionProduct{
			ProductID:   p.ProductID,
			CustomPrice: p.CustomPrice,
		})
	}
	if err := h.promoService.Create(c.Request.Context(), promo); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, toPromotionResponse(promo))
}

// ListActive is the storefront view: only promotions running right now.
func (h *PromotionHandler) ListActive(c *gin.Context) {
	promos, err := h.promoService.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"promotions": toPromotionResponses(promos)})
}

func (h *PromotionHandler) List(c *gin.Context) {
	promos, err := h.promoService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"promotions": toPromotionResponses(promos)})
}

func (h *PromotionHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid promotion ID"})
		return
	}

	var req dto.UpdatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	promo, err := h.promoService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPromotionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "promotion not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if req.Title != nil {
		promo.Title = *req.Title
	}
	if req.DiscountPercentage != nil {
		promo.DiscountPercentage = req.DiscountPercentage
	}
	if req.StartDate != nil {
		promo.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		promo.EndDate = req.EndDate
	}
	if req.Status != nil {
		promo.Status = model.PromotionStatus(*req.Status)
	}
	if req.Priority != nil {
		promo.Priority = *req.Priority
	}

	if err := h.promoService.Update(c.Request.Context(), promo); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, toPromotionResponse(promo))
}

func (h *PromotionHandler) SetProducts(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid promotion ID"})
		return
	}

	var req []dto.PromotionProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	products := make([]model.PromotionProduct, 0, len(req))
	for _, p := range req {
		products = append(products, model.PromotionProduct{
			PromotionID: id,
			ProductID:   p.ProductID,
			CustomPrice: p.CustomPrice,
		})
	}

	if err := h.promoService.SetProducts(c.Request.Context(), id, products); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *PromotionHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid promotion ID"})
		return
	}

	if err := h.promoService.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func toPromotionResponses(promos []model.Promotion) []dto.PromotionResponse {
	resp := make([]dto.PromotionResponse, 0, len(promos))
	for i := range promos {
		resp = append(resp, toPromotionResponse(&promos[i]))
	}
	return resp
}

func toPromotionResponse(promo *model.Promotion) dto.PromotionResponse {
	resp := dto.PromotionResponse{
		ID:                 promo.ID,
		Title:              promo.Title,
		Type:               promo.Type,
		DiscountPercentage: promo.DiscountPercentage,
		StartDate:          promo.StartDate,
		EndDate:            promo.EndDate,
		Status:             promo.Status,
		Priority:           promo.Priority,
		Products:           make([]dto.PromotionProductResponse, 0, len(promo.Products)),
	}
	for _, p := range promo.Products {
		resp.Products = append(resp.Products, dto.PromotionProductResponse{
			ProductID:   p.ProductID,
			CustomPrice: p.CustomPrice,
		})
	}
	return resp
}
