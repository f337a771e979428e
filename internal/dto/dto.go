package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
)

// PageRequest is the shared pagination query shape.
type PageRequest struct {
	Page  int `form:"page,default=1" binding:"min=1"`
	Limit int `form:"limit,default=20" binding:"min=1,max=100"`
}

// --- Auth ---

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID       uuid.UUID  `json:"id"`
	Email    string     `json:"email"`
	FullName string     `json:"full_name"`
	Phone    string     `json:"phone"`
	Role     model.Role `json:"role"`
}

// --- Product ---

type CreateProductRequest struct {
	Name           string           `json:"name" binding:"required"`
	Description    string           `json:"description"`
	ImageURL       string           `json:"image_url"`
	Price          decimal.Decimal  `json:"price" binding:"required"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
	Quantity       int              `json:"quantity" binding:"min=0"`
	TrackQuantity  bool             `json:"track_quantity"`
	CategoryID     *uuid.UUID       `json:"category_id"`
	Status         string           `json:"status" binding:"omitempty,oneof=active draft archived"`
}

type UpdateProductRequest struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	ImageURL       *string          `json:"image_url"`
	Price          *decimal.Decimal `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
	Quantity       *int             `json:"quantity"`
	TrackQuantity  *bool            `json:"track_quantity"`
	CategoryID     *uuid.UUID       `json:"category_id"`
	Status         *string          `json:"status" binding:"omitempty,oneof=active draft archived"`
}

type ListProductsRequest struct {
	Page       int    `form:"page,default=1" binding:"min=1"`
	Limit      int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search     string `form:"search"`
	CategoryID string `form:"category_id"`
	Status     string `form:"status" binding:"omitempty,oneof=active draft archived"`
}

type ProductResponse struct {
	ID             uuid.UUID           `json:"id"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	ImageURL       string              `json:"image_url"`
	Price          decimal.Decimal     `json:"price"`
	EffectivePrice decimal.Decimal     `json:"effective_price"`
	CompareAtPrice *decimal.Decimal    `json:"compare_at_price,omitempty"`
	Quantity       int                 `json:"quantity"`
	TrackQuantity  bool                `json:"track_quantity"`
	CategoryID     *uuid.UUID          `json:"category_id,omitempty"`
	Status         model.ProductStatus `json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// --- Category ---

type CategoryRequest struct {
	NameAr   string `json:"name_ar" binding:"required"`
	NameEn   string `json:"name_en" binding:"required"`
	ImageURL string `json:"image_url"`
	IsActive *bool  `json:"is_active"`
}

type CategoryResponse struct {
	ID       uuid.UUID `json:"id"`
	NameAr   string    `json:"name_ar"`
	NameEn   string    `json:"name_en"`
	ImageURL string    `json:"image_url"`
	IsActive bool      `json:"is_active"`
}

// --- Governorate ---

type GovernorateRequest struct {
	NameAr         string          `json:"name_ar" binding:"required"`
	NameEn         string          `json:"name_en" binding:"required"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	IsFreeShipping bool            `json:"is_free_shipping"`
	IsActive       *bool           `json:"is_active"`
}

type BulkShippingRequest struct {
	GovernorateIDs []uuid.UUID     `json:"governorate_ids" binding:"required,min=1"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	IsFreeShipping bool            `json:"is_free_shipping"`
}

type GovernorateResponse struct {
	ID             uuid.UUID       `json:"id"`
	NameAr         string          `json:"name_ar"`
	NameEn         string          `json:"name_en"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	IsFreeShipping bool            `json:"is_free_shipping"`
	IsActive       bool            `json:"is_active"`
}

// --- Payment methods ---

type UpdatePaymentMethodRequest struct {
	NameAr         *string `json:"name_ar"`
	NameEn         *string `json:"name_en"`
	InstructionsAr *string `json:"instructions_ar"`
	InstructionsEn *string `json:"instructions_en"`
	Details        *string `json:"details"`
	IsActive       *bool   `json:"is_active"`
}

type PaymentMethodResponse struct {
	Code           string `json:"code"`
	NameAr         string `json:"name_ar"`
	NameEn         string `json:"name_en"`
	InstructionsAr string `json:"instructions_ar"`
	InstructionsEn string `json:"instructions_en"`
	Details        string `json:"details"`
	IsActive       bool   `json:"is_active"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

type MergeCartRequest struct {
	Items []MergeCartItem `json:"items" binding:"required,dive"`
}

type MergeCartItem struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

type MergeCartResponse struct {
	Skipped []uuid.UUID `json:"skipped_product_ids"`
}

type CartLineResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartResponse struct {
	Items    []CartLineResponse `json:"items"`
	Subtotal decimal.Decimal    `json:"subtotal"`
}

// --- Coupon ---

type ValidateCouponRequest struct {
	Code       string          `json:"code" binding:"required"`
	OrderTotal decimal.Decimal `json:"order_total" binding:"required"`
}

type CouponQuoteResponse struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

type CreateCouponRequest struct {
	Code              string             `json:"code" binding:"required"`
	DiscountType      model.DiscountType `json:"discount_type" binding:"required,oneof=percentage fixed"`
	DiscountValue     decimal.Decimal    `json:"discount_value" binding:"required"`
	MinPurchaseAmount *decimal.Decimal   `json:"min_purchase_amount"`
	MaxDiscountAmount *decimal.Decimal   `json:"max_discount_amount"`
	UsageLimit        *int               `json:"usage_limit"`
	ValidFrom         *time.Time         `json:"valid_from"`
	ValidUntil        *time.Time         `json:"valid_until"`
	Status            string             `json:"status" binding:"omitempty,oneof=active inactive expired"`
}

type UpdateCouponRequest struct {
	DiscountType      *model.DiscountType `json:"discount_type" binding:"omitempty,oneof=percentage fixed"`
	DiscountValue     *decimal.Decimal    `json:"discount_value"`
	MinPurchaseAmount *decimal.Decimal    `json:"min_purchase_amount"`
	MaxDiscountAmount *decimal.Decimal    `json:"max_discount_amount"`
	UsageLimit        *int                `json:"usage_limit"`
	ValidFrom         *time.Time          `json:"valid_from"`
	ValidUntil        *time.Time          `json:"valid_until"`
	Status            *string             `json:"status" binding:"omitempty,oneof=active inactive expired"`
}

type CouponResponse struct {
	ID                uuid.UUID          `json:"id"`
	Code              string             `json:"code"`
	DiscountType      model.DiscountType `json:"discount_type"`
	DiscountValue     decimal.Decimal    `json:"discount_value"`
	MinPurchaseAmount *decimal.Decimal   `json:"min_purchase_amount,omitempty"`
	MaxDiscountAmount *decimal.Decimal   `json:"max_discount_amount,omitempty"`
	UsageLimit        *int               `json:"usage_limit,omitempty"`
	UsedCount         int                `json:"used_count"`
	ValidFrom         *time.Time         `json:"valid_from,omitempty"`
	ValidUntil        *time.Time         `json:"valid_until,omitempty"`
	Status            model.CouponStatus `json:"status"`
	CreatedAt         time.Time          `json:"created_at"`
}

type CouponListResponse struct {
	Coupons []CouponResponse `json:"coupons"`
	Total   int              `json:"total"`
}

// --- Promotion ---

type PromotionProductRequest struct {
	ProductID   uuid.UUID        `json:"product_id" binding:"required"`
	CustomPrice *decimal.Decimal `json:"custom_price"`
}

type CreatePromotionRequest struct {
	Title              string                    `json:"title" binding:"required"`
	Type               model.PromotionType       `json:"type" binding:"required,oneof=featured deal flash_sale"`
	DiscountPercentage *decimal.Decimal          `json:"discount_percentage"`
	StartDate          *time.Time                `json:"start_date"`
	EndDate            *time.Time                `json:"end_date"`
	Status             string                    `json:"status" binding:"omitempty,oneof=active inactive scheduled expired"`
	Priority           int                       `json:"priority"`
	Products           []PromotionProductRequest `json:"products" binding:"dive"`
}

type UpdatePromotionRequest struct {
	Title              *string          `json:"title"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
	StartDate          *time.Time       `json:"start_date"`
	EndDate            *time.Time       `json:"end_date"`
	Status             *string          `json:"status" binding:"omitempty,oneof=active inactive scheduled expired"`
	Priority           *int             `json:"priority"`
}

type PromotionResponse struct {
	ID                 uuid.UUID                  `json:"id"`
	Title              string                     `json:"title"`
	Type               model.PromotionType        `json:"type"`
	DiscountPercentage *decimal.Decimal           `json:"discount_percentage,omitempty"`
	StartDate          *time.Time                 `json:"start_date,omitempty"`
	EndDate            *time.Time                 `json:"end_date,omitempty"`
	Status             model.PromotionStatus      `json:"status"`
	Priority           int                        `json:"priority"`
	Products           []PromotionProductResponse `json:"products"`
}

type PromotionProductResponse struct {
	ProductID   uuid.UUID        `json:"product_id"`
	CustomPrice *decimal.Decimal `json:"custom_price,omitempty"`
}

// --- Order ---

type CreateOrderItem struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest carries the checkout form. The monetary fields are
// advisory; the server recomputes all of them.
type CreateOrderRequest struct {
	FullName        string            `json:"full_name" binding:"required"`
	Phone           string            `json:"phone" binding:"required"`
	Address         string            `json:"address" binding:"required"`
	City            string            `json:"city" binding:"required"`
	GovernorateID   uuid.UUID         `json:"governorate_id" binding:"required"`
	Items           []CreateOrderItem `json:"items" binding:"dive"`
	PaymentMethod   string            `json:"payment_method" binding:"required"`
	PaymentProofURL *string           `json:"payment_proof_url"`
	CouponCode      *string           `json:"coupon_code"`
	Subtotal        *decimal.Decimal  `json:"subtotal"`
	ShippingCost    *decimal.Decimal  `json:"shipping_cost"`
	Discount        *decimal.Decimal  `json:"discount"`
	TotalAmount     *decimal.Decimal  `json:"total_amount"`
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required,oneof=pending confirmed processing shipped delivered cancelled"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus model.PaymentStatus `json:"payment_status" binding:"required,oneof=pending paid failed refunded"`
}

type PaymentProofRequest struct {
	URL string `json:"url" binding:"required,url"`
}

type ShippingAddressResponse struct {
	FullName      string    `json:"full_name"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	GovernorateID uuid.UUID `json:"governorate_id"`
	Governorate   string    `json:"governorate"`
}

type OrderItemResponse struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

type OrderResponse struct {
	ID              uuid.UUID               `json:"id"`
	OrderNumber     string                  `json:"order_number"`
	UserID          uuid.UUID               `json:"user_id"`
	Status          model.OrderStatus       `json:"status"`
	PaymentStatus   model.PaymentStatus     `json:"payment_status"`
	Subtotal        decimal.Decimal         `json:"subtotal"`
	ShippingCost    decimal.Decimal         `json:"shipping_cost"`
	Tax             decimal.Decimal         `json:"tax"`
	Discount        decimal.Decimal         `json:"discount"`
	CouponCode      *string                 `json:"coupon_code,omitempty"`
	TotalAmount     decimal.Decimal         `json:"total_amount"`
	ShippingAddress ShippingAddressResponse `json:"shipping_address"`
	PaymentMethod   string                  `json:"payment_method"`
	PaymentProofURL *string                 `json:"payment_proof_url,omitempty"`
	Items           []OrderItemResponse     `json:"items"`
	CreatedAt       time.Time               `json:"created_at"`
}

type ListOrdersRequest struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=100"`
	Status string `form:"status" binding:"omitempty,oneof=pending confirmed processing shipped delivered cancelled"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

// --- Notifications ---

type NotificationResponse struct {
	ID        uuid.UUID              `json:"id"`
	Type      model.NotificationType `json:"type"`
	Title     model.Bilingual        `json:"title"`
	Message   model.Bilingual        `json:"message"`
	IsRead    bool                   `json:"is_read"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	Data      map[string]any         `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Total         int                    `json:"total"`
	Page          int                    `json:"page"`
	Limit         int                    `json:"limit"`
}

type BroadcastRequest struct {
	Type      string         `json:"type" binding:"omitempty,oneof=admin_message promotion"`
	TitleAr   string         `json:"title_ar" binding:"required"`
	TitleEn   string         `json:"title_en" binding:"required"`
	MessageAr string         `json:"message_ar" binding:"required"`
	MessageEn string         `json:"message_en" binding:"required"`
	Data      map[string]any `json:"data"`
}

// --- Support tickets ---

type CreateTicketRequest struct {
	Subject  string               `json:"subject" binding:"required"`
	Category string               `json:"category"`
	Priority model.TicketPriority `json:"priority" binding:"omitempty,oneof=low medium high"`
	Message  string               `json:"message" binding:"required"`
}

type TicketReplyRequest struct {
	Message    string `json:"message" binding:"required"`
	IsInternal bool   `json:"is_internal"`
}

type UpdateTicketStatusRequest struct {
	Status model.TicketStatus `json:"status" binding:"required,oneof=open in_progress resolved closed"`
}

type TicketResponse struct {
	ID        uuid.UUID            `json:"id"`
	UserID    uuid.UUID            `json:"user_id"`
	Subject   string               `json:"subject"`
	Status    model.TicketStatus   `json:"status"`
	Priority  model.TicketPriority `json:"priority"`
	Category  string               `json:"category"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

type TicketMessageResponse struct {
	ID         uuid.UUID  `json:"id"`
	SenderID   uuid.UUID  `json:"sender_id"`
	SenderRole model.Role `json:"sender_role"`
	Message    string     `json:"message"`
	IsInternal bool       `json:"is_internal,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type TicketDetailResponse struct {
	Ticket   TicketResponse          `json:"ticket"`
	Messages []TicketMessageResponse `json:"messages"`
}

// --- Uploads ---

type UploadResponse struct {
	URL string `json:"url"`
}
