package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID        uuid.UUID
	Email     string
	Password  string
	FullName  string
	Phone     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusArchived ProductStatus = "archived"
)

type Product struct {
	ID             uuid.UUID
	Name           string
	Description    string
	ImageURL       string
	Price          decimal.Decimal
	CompareAtPrice *decimal.Decimal
	Quantity       int
	TrackQuantity  bool
	CategoryID     *uuid.UUID
	Status         ProductStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Category struct {
	ID        uuid.UUID
	NameAr    string
	NameEn    string
	ImageURL  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Governorate is a top-level shipping-rate region. Effective shipping
// cost is zero when IsFreeShipping is set, otherwise ShippingCost.
type Governorate struct {
	ID             uuid.UUID
	NameAr         string
	NameEn         string
	ShippingCost   decimal.Decimal
	IsFreeShipping bool
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (g Governorate) EffectiveShippingCost() decimal.Decimal {
	if g.IsFreeShipping {
		return decimal.Zero
	}
	return g.ShippingCost
}

type PaymentMethod struct {
	ID             uuid.UUID
	Code           string
	NameAr         string
	NameEn         string
	InstructionsAr string
	InstructionsEn string
	Details        string
	IsActive       bool
	UpdatedAt      time.Time
}

type CartItem struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLine is a cart item joined with live product data. UnitPrice is
// the current promotion-adjusted catalog price, never a stored one.
type CartLine struct {
	Item      CartItem
	Product   Product
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}
