package payments

import "time"

// Kind enumerates what a payment was made for.
type Kind string

const (
	KindPromotion    Kind = "promotion"
	KindListingFee   Kind = "listing_fee"
	KindSubscription Kind = "subscription"
)

// Payment is a recorded payment against an advertisement. Amounts are
// caller-supplied; pricing lives outside this system.
type Payment struct {
	ID              int64
	PayerID         int64
	AdvertisementID *int64
	Kind            Kind
	AmountCents     int64
	Currency        string
	ClientRef       string
	CreatedAt       time.Time
}

// Record carries caller-supplied payment fields.
type Record struct {
	AdvertisementID *int64
	Kind            Kind
	AmountCents     int64
	Currency        string
	ClientRef       string
}
