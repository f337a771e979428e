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

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := service.CreateOrderInput{
		FullName:        req.FullName,
		Phone:           req.Phone,
		Address:         req.Address,
		City:            req.City,
		GovernorateID:   req.GovernorateID,
		PaymentMethod:   req.PaymentMethod,
		PaymentProofURL: req.PaymentProofURL,
		CouponCode:      req.CouponCode,
		Declared: service.DeclaredTotals{
			Subtotal:     req.Subtotal,
			ShippingCost: req.ShippingCost,
			Discount:     req.Discount,
			TotalAmount:  req.TotalAmount,
		},
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, service.OrderItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.orderService.Create(c.Request.Context(), middleware.GetUserID(c), in)
	if err != nil {
		h.createError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) createError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message, "field": vErr.Field})
		return
	}
	if status, msg := couponRejection(err); status != 0 {
		c.JSON(status, gin.H{"error": msg})
		return
	}
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "cart is empty"})
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "product no longer available"})
	case errors.Is(err, service.ErrProductUnavailable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "product not available for sale"})
	case errors.Is(err, service.ErrGovernorateNotFound):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "governorate not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (h *OrderHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), id, middleware.GetUserID(c), middleware.GetUserRole(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, service.ErrOrderAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) ListMine(c *gin.Context) {
	orders, err := h.orderService.ListByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	resp := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, gin.H{"orders": resp})
}

func (h *OrderHandler) List(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orders, total, err := h.orderService.List(c.Request.Context(), repository.OrderFilter{
		Status: model.OrderStatus(req.Status),
		Limit:  req.Limit,
		Offset: (req.Page - 1) * req.Limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	resp := dto.OrderListResponse{
		Orders: make([]dto.OrderResponse, 0, len(orders)),
		Total:  total,
		Page:   req.Page,
		Limit:  req.Limit,
	}
	for i := range orders {
		resp.Orders = append(resp.Orders, toOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, service.ErrInvalidTransition):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) UpdatePaymentStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	var req dto.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.orderService.UpdatePaymentStatus(c.Request.Context(), id, req.PaymentStatus); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *OrderHandler) AttachPaymentProof(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	var req dto.PaymentProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = h.orderService.AttachPaymentProof(c.Request.Context(), id, middleware.GetUserID(c), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, service.ErrOrderAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func toOrderResponse(order *model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Subtotal:      order.Subtotal,
		ShippingCost:  order.ShippingCost,
		Tax:           order.Tax,
		Discount:      order.Discount,
		CouponCode:    order.CouponCode,
		TotalAmount:   order.TotalAmount,
		ShippingAddress: dto.ShippingAddressResponse{
			FullName:      order.ShippingAddress.FullName,
			Phone:         order.ShippingAddress.Phone,
			Address:       order.ShippingAddress.Address,
			City:          order.ShippingAddress.City,
			GovernorateID: order.ShippingAddress.GovernorateID,
			Governorate:   order.ShippingAddress.Governorate,
		},
		PaymentMethod:   order.PaymentMethod,
		PaymentProofURL: order.PaymentProofURL,
		Items:           make([]dto.OrderItemResponse, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductImage: item.ProductImage,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			TotalPrice:   item.TotalPrice,
		})
	}
	return resp
}
