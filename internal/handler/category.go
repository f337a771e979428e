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

type CategoryHandler struct {
	catalogService *service.CatalogService
}

func NewCategoryHandler(catalogService *service.CatalogService) *CategoryHandler {
	return &CategoryHandler{catalogService: catalogService}
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := &model.Category{
		NameAr:   req.NameAr,
		NameEn:   req.NameEn,
		ImageURL: req.ImageURL,
		IsActive: true,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := h.catalogService.CreateCategory(c.Request.Context(), category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, toCategoryResponse(category))
}

func (h *CategoryHandler) List(c *gin.Context) {
	activeOnly := middleware.GetUserRole(c) != model.RoleAdmin
	categories, err := h.catalogService.ListCategories(c.Request.Context(), activeOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	resp := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		resp = append(resp, toCategoryResponse(&categories[i]))
	}
	c.JSON(http.StatusOK, gin.H{"categories": resp})
}

func (h *CategoryHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category ID"})
		return
	}

	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := &model.Category{
		ID:       id,
		NameAr:   req.NameAr,
		NameEn:   req.NameEn,
		ImageURL: req.ImageURL,
		IsActive: true,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := h.catalogService.UpdateCategory(c.Request.Context(), category); err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, toCategoryResponse(category))
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category ID"})
		return
	}

	if err := h.catalogService.DeleteCategory(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func toCategoryResponse(category *model.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:       category.ID,
		NameAr:   category.NameAr,
		NameEn:   category.NameEn,
		ImageURL: category.ImageURL,
		IsActive: category.IsActive,
	}
}
