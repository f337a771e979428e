package service

import "github.com/shopspring/decimal"

// FreeShippingPolicy is the store-wide free-shipping-by-order-value
// rule. It is consulted during order assembly so the server, not the
// client, decides when shipping is waived.
type FreeShippingPolicy struct {
	Enabled   bool
	Threshold decimal.Decimal
}

// ShippingFor returns the shipping cost after the policy is applied to
// the governorate's base cost.
func (p FreeShippingPolicy) ShippingFor(subtotal, base decimal.Decimal) decimal.Decimal {
	if p.Enabled && subtotal.GreaterThanOrEqual(p.Threshold) {
		return decimal.Zero
	}
	return base
}
