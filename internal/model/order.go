package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// statusRank orders the forward-moving states. Cancelled sits outside
// the rank and is handled separately.
var statusRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusConfirmed:  1,
	OrderStatusProcessing: 2,
	OrderStatusShipped:    3,
	OrderStatusDelivered:  4,
}

// CanTransition reports whether an order may move from one status to
// target. Normal flow is strictly forward; cancelled is reachable from
// any state except delivered.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return false
	}
	if from == OrderStatusCancelled {
		return false
	}
	if to == OrderStatusCancelled {
		return from != OrderStatusDelivered
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// ConfirmedOrLater reports whether inventory has already been deducted
// for an order in this status.
func ConfirmedOrLater(s OrderStatus) bool {
	rank, ok := statusRank[s]
	return ok && rank >= statusRank[OrderStatusConfirmed]
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// ShippingAddress is snapshotted onto the order at creation; later
// edits to user or governorate records never touch it.
type ShippingAddress struct {
	FullName      string
	Phone         string
	Address       string
	City          string
	GovernorateID uuid.UUID
	Governorate   string
}

type Order struct {
	ID              uuid.UUID
	OrderNumber     string
	UserID          uuid.UUID
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	Subtotal        decimal.Decimal
	ShippingCost    decimal.Decimal
	Tax             decimal.Decimal
	Discount        decimal.Decimal
	CouponCode      *string
	TotalAmount     decimal.Decimal
	ShippingAddress ShippingAddress
	PaymentMethod   string
	PaymentProofURL *string
	Items           []OrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem is a denormalized snapshot of the product at purchase time.
type OrderItem struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ProductID    uuid.UUID
	ProductName  string
	ProductImage string
	Quantity     int
	UnitPrice    decimal.Decimal
	TotalPrice   decimal.Decimal
}

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

type CouponStatus string

const (
	CouponStatusActive   CouponStatus = "active"
	CouponStatusInactive CouponStatus = "inactive"
	CouponStatusExpired  CouponStatus = "expired"
)

type Coupon struct {
	ID                uuid.UUID
	Code              string
	DiscountType      DiscountType
	DiscountValue     decimal.Decimal
	MinPurchaseAmount *decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	UsageLimit        *int
	UsedCount         int
	ValidFrom         *time.Time
	ValidUntil        *time.Time
	Status            CouponStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CouponUsage is an append-only ledger row. A (coupon_id, user_id) pair
// appears at most once; the insert is the single point where a coupon
// is spent.
type CouponUsage struct {
	ID             uuid.UUID
	CouponID       uuid.UUID
	UserID         uuid.UUID
	OrderID        uuid.UUID
	DiscountAmount decimal.Decimal
	OrderTotal     decimal.Decimal
	UsedAt         time.Time
}

type PromotionType string

const (
	PromotionTypeFeatured  PromotionType = "featured"
	PromotionTypeDeal      PromotionType = "deal"
	PromotionTypeFlashSale PromotionType = "flash_sale"
)

type PromotionStatus string

const (
	PromotionStatusActive    PromotionStatus = "active"
	PromotionStatusInactive  PromotionStatus = "inactive"
	PromotionStatusScheduled PromotionStatus = "scheduled"
	PromotionStatusExpired   PromotionStatus = "expired"
)

type Promotion struct {
	ID                 uuid.UUID
	Title              string
	Type               PromotionType
	DiscountPercentage *decimal.Decimal
	StartDate          *time.Time
	EndDate            *time.Time
	Status             PromotionStatus
	Priority           int
	Products           []PromotionProduct
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ActiveAt reports whether the promotion applies at the given instant.
func (p Promotion) ActiveAt(now time.Time) bool {
	if p.Status != PromotionStatusActive {
		return false
	}
	if p.StartDate != nil && now.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && now.After(*p.EndDate) {
		return false
	}
	return true
}

type PromotionProduct struct {
	PromotionID uuid.UUID
	ProductID   uuid.UUID
	CustomPrice *decimal.Decimal
}
