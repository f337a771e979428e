package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/dto"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/middleware"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/service"
)

type CartHandler struct {
	cartService *service.CartService
}

func NewCartHandler(cartService *service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

func (h *CartHandler) Get(c *gin.Context) {
	cart, err := h.cartService.GetCart(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.cartService.AddItem(c.Request.Context(), middleware.GetUserID(c), req.ProductID, req.Quantity)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		if errors.Is(err, service.ErrProductUnavailable) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "product not available for sale"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	var req dto.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = h.cartService.UpdateItem(c.Request.Context(), middleware.GetUserID(c), productID, req.Quantity)
	if err != nil {
		if errors.Is(err, service.ErrCartItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	err = h.cartService.RemoveItem(c.Request.Context(), middleware.GetUserID(c), productID)
	if err != nil {
		if errors.Is(err, service.ErrCartItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.cartService.Clear(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Merge folds a device-local anonymous cart into the server cart after
// login. Unknown products are skipped, not fatal.
func (h *CartHandler) Merge(c *gin.Context) {
	var req dto.MergeCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lines := make([]service.DeviceCartLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, service.DeviceCartLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	skipped, err := h.cartService.MergeDeviceCart(c.Request.Context(), middleware.GetUserID(c), lines)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, dto.MergeCartResponse{Skipped: skipped})
}

func toCartResponse(cart *service.Cart) dto.CartResponse {
	resp := dto.CartResponse{
		Items:    make([]dto.CartLineResponse, 0, len(cart.Lines)),
		Subtotal: cart.Subtotal,
	}
	for _, line := range cart.Lines {
		resp.Items = append(resp.Items, dto.CartLineResponse{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			ImageURL:  line.Product.ImageURL,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Item.Quantity,
			LineTotal: line.LineTotal,
		})
	}
	return resp
}
