package monetization

import "context"

// ProductSpec describes a product to create.
type ProductSpec struct {
	Name        string
	Description string
	Metadata    map[string]string
}

// PriceSpec describes a recurring price to create.
type PriceSpec struct {
	ProductID  string
	UnitAmount int64
	Currency   string
	Interval   string
	Usage      Usage
	// DivideBy, when positive, bills the quantity divided by DivideBy, rounded up.
	DivideBy int64
}

// Platform is the payment platform surface used by the provisioner.
type Platform interface {
	CreateProduct(ctx context.Context, spec ProductSpec) (productID string, err error)
	CreatePrice(ctx context.Context, spec PriceSpec) (priceID string, err error)
	// PriceProduct returns the product a price belongs to.
	PriceProduct(ctx context.Context, priceID string) (productID string, err error)
	// DeleteProduct removes a product together with its prices.
	DeleteProduct(ctx context.Context, productID string) error
}
