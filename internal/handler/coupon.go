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

type CouponHandler struct {
	couponService *service.CouponService
}

func NewCouponHandler(couponService *service.CouponService) *CouponHandler {
	return &CouponHandler{couponService: couponService}
}

// Validate quotes a coupon against a prospective order total without
// spending it. The same checks run again inside checkout.
func (h *CouponHandler) Validate(c *gin.Context) {
	var req dto.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quote, err := h.couponService.Validate(c.Request.Context(), req.Code, req.OrderTotal, middleware.GetUserID(c))
	if err != nil {
		status, msg := couponRejection(err)
		if status == 0 {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, dto.CouponQuoteResponse{Code: quote.Coupon.Code, Discount: quote.Discount})
}

// couponRejection maps a validation failure to an HTTP status and a
// client-facing message. A zero status means the error is not a coupon
// rejection.
func couponRejection(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrCouponNotFound):
		return http.StatusNotFound, "coupon not found"
	case errors.Is(err, service.ErrCouponAlreadyUsed):
		return http.StatusConflict, "coupon already used"
	case errors.Is(err, service.ErrCouponInactive),
		errors.Is(err, service.ErrCouponNotStarted),
		errors.Is(err, service.ErrCouponExpired),
		errors.Is(err, service.ErrCouponExhausted),
		errors.Is(err, service.ErrCouponBelowMinimum):
		return http.StatusUnprocessableEntity, err.Error()
	}
	return 0, ""
}

func (h *CouponHandler) Create(c *gin.Context) {
	var req dto.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := model.CouponStatus(req.Status)
	if status == "" {
		status = model.CouponStatusActive
	}
	coupon := &model.Coupon{
		Code:              req.Code,
		DiscountType:      req.DiscountType,
		DiscountValue:     req.DiscountValue,
		MinPurchaseAmount: req.MinPurchaseAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		UsageLimit:        req.UsageLimit,
		ValidFrom:         req.ValidFrom,
		ValidUntil:        req.ValidUntil,
		Status:            status,
	}
	if err := h.couponService.Create(c.Request.Context(), coupon); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, toCouponResponse(coupon))
}

func (h *CouponHandler) List(c *gin.Context) {
	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	coupons, total, err := h.couponService.List(c.Request.Context(), req.Limit, (req.Page-1)*req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	resp := dto.CouponListResponse{Coupons: make([]dto.CouponResponse, 0, len(coupons)), Total: total}
	for i := range coupons {
		resp.Coupons = append(resp.Coupons, toCouponResponse(&coupons[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CouponHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coupon ID"})
		return
	}

	var req dto.UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	coupon, err := h.couponService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "coupon not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if req.DiscountType != nil {
		coupon.DiscountType = *req.DiscountType
	}
	if req.DiscountValue != nil {
		coupon.DiscountValue = *req.DiscountValue
	}
	if req.MinPurchaseAmount != nil {
		coupon.MinPurchaseAmount = req.MinPurchaseAmount
	}
	if req.MaxDiscountAmount != nil {
		coupon.MaxDiscountAmount = req.MaxDiscountAmount
	}
	if req.UsageLimit != nil {
		coupon.UsageLimit = req.UsageLimit
	}
	if req.ValidFrom != nil {
		coupon.ValidFrom = req.ValidFrom
	}
	if req.ValidUntil != nil {
		coupon.ValidUntil = req.ValidUntil
	}
	if req.Status != nil {
		coupon.Status = model.CouponStatus(*req.Status)
	}

	if err := h.couponService.Update(c.Request.Context(), coupon); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, toCouponResponse(coupon))
}

func (h *CouponHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coupon ID"})
		return
	}

	if err := h.couponService.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func toCouponResponse(coupon *model.Coupon) dto.CouponResponse {
	return dto.CouponResponse{
		ID:                coupon.ID,
		Code:              coupon.Code,
		DiscountType:      coupon.DiscountType,
		DiscountValue:     coupon.DiscountValue,
		MinPurchaseAmount: coupon.MinPurchaseAmount,
		MaxDiscountAmount: coupon.MaxDiscountAmount,
		UsageLimit:        coupon.UsageLimit,
		UsedCount:         coupon.UsedCount,
		ValidFrom:         coupon.ValidFrom,
		ValidUntil:        coupon.ValidUntil,
		Status:            coupon.Status,
		CreatedAt:         coupon.CreatedAt,
	}
}
