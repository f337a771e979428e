package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/dto"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/middleware"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/repository"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/service"
)

type ProductHandler struct {
	catalogService *service.CatalogService
	promoService   *service.PromotionService
}

func NewProductHandler(catalogService *service.CatalogService, promoService *service.PromotionService) *ProductHandler {
	return &ProductHandler{catalogService: catalogService, promoService: promoService}
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := model.ProductStatus(req.Status)
	if status == "" {
		status = model.ProductStatusDraft
	}
	product := &model.Product{
		Name:           req.Name,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		Price:          req.Price,
		CompareAtPrice: req.CompareAtPrice,
		Quantity:       req.Quantity,
		TrackQuantity:  req.TrackQuantity,
		CategoryID:     req.CategoryID,
		Status:         status,
	}
	if err := h.catalogService.CreateProduct(c.Request.Context(), product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, h.toResponse(c, product))
}

func (h *ProductHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, h.toResponse(c, product))
}

func (h *ProductHandler) List(c *gin.Context) {
	var req dto.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter := repository.ProductFilter{
		Search: req.Search,
		Status: model.ProductStatus(req.Status),
		Limit:  req.Limit,
		Offset: (req.Page - 1) * req.Limit,
	}
	if req.CategoryID != "" {
		categoryID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category ID"})
			return
		}
		filter.CategoryID = &categoryID
	}
	// Drafts and archived products stay invisible to shoppers.
	if middleware.GetUserRole(c) != model.RoleAdmin {
		filter.Status = model.ProductStatusActive
	}

	page, err := h.catalogService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	rules, err := h.promoService.ActiveRules(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	resp := dto.ProductListResponse{
		Products: make([]dto.ProductResponse, 0, len(page.Products)),
		Total:    page.Total,
		Page:     req.Page,
		Limit:    req.Limit,
	}
	for i := range page.Products {
		resp.Products = append(resp.Products, toProductResponse(&page.Products[i], rules))
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.CompareAtPrice != nil {
		product.CompareAtPrice = req.CompareAtPrice
	}
	if req.Quantity != nil {
		product.Quantity = *req.Quantity
	}
	if req.TrackQuantity != nil {
		product.TrackQuantity = *req.TrackQuantity
	}
	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
	}
	if req.Status != nil {
		product.Status = model.ProductStatus(*req.Status)
	}

	if err := h.catalogService.UpdateProduct(c.Request.Context(), product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, h.toResponse(c, product))
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) toResponse(c *gin.Context, product *model.Product) dto.ProductResponse {
	rules, err := h.promoService.ActiveRules(c.Request.Context())
	if err != nil {
		rules = nil
	}
	return toProductResponse(product, rules)
}

func toProductResponse(product *model.Product, rules map[uuid.UUID]service.PriceRule) dto.ProductResponse {
	return dto.ProductResponse{
		ID:             product.ID,
		Name:           product.Name,
		Description:    product.Description,
		ImageURL:       product.ImageURL,
		Price:          product.Price,
		EffectivePrice: rules[product.ID].Apply(product.Price),
		CompareAtPrice: product.CompareAtPrice,
		Quantity:       product.Quantity,
		TrackQuantity:  product.TrackQuantity,
		CategoryID:     product.CategoryID,
		Status:         product.Status,
		CreatedAt:      product.CreatedAt,
		UpdatedAt:      product.UpdatedAt,
	}
}
