package monetization

import (
	"context"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/docpublish/internal/logfields"

	derrors "git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// Transition is the lifecycle step Apply performed.
type Transition string

const (
	TransitionNone   Transition = "none"
	TransitionCreate Transition = "create"
	TransitionDelete Transition = "delete"
)

// Outcome is the result of Apply.
type Outcome struct {
	Transition Transition
	// PriceRef is the reference to store: nil leaves the record untouched, a
	// pointer to "" clears it.
	PriceRef  *string
	ProductID string
}

// Provisioner activates or tears down the premium product of an extension
// when the requested presence differs from the stored one.
type Provisioner struct {
	platform Platform
	currency string
	logger   *slog.Logger
}

// NewProvisioner returns a provisioner charging in currency (default "usd").
func NewProvisioner(platform Platform, currency string, logger *slog.Logger) *Provisioner {
	if currency == "" {
		currency = "usd"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{platform: platform, currency: strings.ToLower(currency), logger: logger}
}

// Apply drives the state machine for path:
//
//	inactive + descriptor  -> create product, create price, store price ref
//	active   + nil         -> look up product of price, delete it, clear ref
//	otherwise              -> no-op
//
// Changing the descriptor of an active tier is a no-op; presence is what is
// compared. Errors are provisioning errors; on error the returned Outcome
// leaves the record untouched.
func (p *Provisioner) Apply(ctx context.Context, path, currentRef string, desired *Descriptor) (Outcome, error) {
	active := currentRef != ""
	switch {
	case !active && desired != nil:
		return p.create(ctx, path, *desired)
	case active && desired == nil:
		return p.delete(ctx, path, currentRef)
	default:
		return Outcome{Transition: TransitionNone}, nil
	}
}

func (p *Provisioner) create(ctx context.Context, path string, d Descriptor) (Outcome, error) {
	d = d.Normalized()
	if err := d.Validate(); err != nil {
		return Outcome{Transition: TransitionNone}, derrors.WrapError(err, derrors.CategoryProvisioning, "invalid premium descriptor").
			WithContext("path", path).
			Build()
	}

	name := d.Name
	if name == "" {
		name = path
	}
	productID, err := p.platform.CreateProduct(ctx, ProductSpec{
		Name:        name,
		Description: strings.Join(d.Description, "\n"),
		Metadata:    map[string]string{"path": path},
	})
	if err != nil {
		return Outcome{Transition: TransitionNone}, derrors.WrapError(err, derrors.CategoryProvisioning, "failed to create premium product").
			WithContext("path", path).
			Build()
	}

	priceID, err := p.platform.CreatePrice(ctx, PriceSpec{
		ProductID:  productID,
		UnitAmount: d.Price,
		Currency:   p.currency,
		Interval:   d.Interval,
		Usage:      d.Usage,
		DivideBy:   d.Quantity,
	})
	if err != nil {
		// no price references the product, so nothing else can reach it
		if derr := p.platform.DeleteProduct(ctx, productID); derr != nil {
			p.logger.WarnContext(ctx, "Failed to remove orphaned premium product",
				logfields.Path(path), slog.String("product", productID), logfields.Error(derr))
		}
		return Outcome{Transition: TransitionNone}, derrors.WrapError(err, derrors.CategoryProvisioning, "failed to create premium price").
			WithContext("path", path).
			WithContext("product", productID).
			Build()
	}

	p.logger.InfoContext(ctx, "Premium tier created", logfields.Path(path), logfields.PriceRef(priceID))
	return Outcome{Transition: TransitionCreate, PriceRef: &priceID, ProductID: productID}, nil
}

func (p *Provisioner) delete(ctx context.Context, path, priceRef string) (Outcome, error) {
	productID, err := p.platform.PriceProduct(ctx, priceRef)
	if err != nil {
		return Outcome{Transition: TransitionNone}, derrors.WrapError(err, derrors.CategoryProvisioning, "failed to retrieve premium price").
			WithContext("path", path).
			WithContext("price", priceRef).
			Build()
	}
	if err := p.platform.DeleteProduct(ctx, productID); err != nil {
		return Outcome{Transition: TransitionNone}, derrors.WrapError(err, derrors.CategoryProvisioning, "failed to delete premium product").
			WithContext("path", path).
			WithContext("product", productID).
			Build()
	}

	cleared := ""
	p.logger.InfoContext(ctx, "Premium tier removed", logfields.Path(path), logfields.PriceRef(priceRef))
	return Outcome{Transition: TransitionDelete, PriceRef: &cleared, ProductID: productID}, nil
}
