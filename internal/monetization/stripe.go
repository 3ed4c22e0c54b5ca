package monetization

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeConfig configures StripePlatform.
type StripeConfig struct {
	SecretKey string
	// MaxNetworkRetries is handed to the Stripe backend; nothing above it retries.
	MaxNetworkRetries int64
	// URL overrides the API endpoint (tests, stripe-mock).
	URL    string
	Logger *slog.Logger
}

// StripePlatform implements Platform with the Stripe API.
type StripePlatform struct {
	api *client.API
}

// NewStripePlatform builds a Stripe client from cfg.
func NewStripePlatform(cfg StripeConfig) *StripePlatform {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bc := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(cfg.MaxNetworkRetries),
		LeveledLogger:     &slogLeveled{logger: logger.With(slog.String("component", "stripe"))},
	}
	if cfg.URL != "" {
		bc.URL = stripe.String(cfg.URL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, bc)
	return &StripePlatform{api: client.New(cfg.SecretKey, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})}
}

// CreateProduct creates a product and returns its id.
func (s *StripePlatform) CreateProduct(ctx context.Context, spec ProductSpec) (string, error) {
	params := &stripe.ProductParams{
		Params: stripe.Params{Context: ctx},
		Name:   stripe.String(spec.Name),
	}
	if spec.Description != "" {
		params.Description = stripe.String(spec.Description)
	}
	for k, v := range spec.Metadata {
		params.AddMetadata(k, v)
	}
	p, err := s.api.Products.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create product: %w", err)
	}
	return p.ID, nil
}

// CreatePrice creates a recurring price and returns its id.
func (s *StripePlatform) CreatePrice(ctx context.Context, spec PriceSpec) (string, error) {
	params := &stripe.PriceParams{
		Params:     stripe.Params{Context: ctx},
		Product:    stripe.String(spec.ProductID),
		UnitAmount: stripe.Int64(spec.UnitAmount),
		Currency:   stripe.String(spec.Currency),
		Recurring: &stripe.PriceRecurringParams{
			Interval:  stripe.String(spec.Interval),
			UsageType: stripe.String(string(spec.Usage)),
		},
	}
	if spec.DivideBy > 0 {
		params.TransformQuantity = &stripe.PriceTransformQuantityParams{
			DivideBy: stripe.Int64(spec.DivideBy),
			Round:    stripe.String("up"),
		}
	}
	p, err := s.api.Prices.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create price: %w", err)
	}
	return p.ID, nil
}

// PriceProduct retrieves the price and returns the id of its product.
func (s *StripePlatform) PriceProduct(ctx context.Context, priceID string) (string, error) {
	p, err := s.api.Prices.Get(priceID, &stripe.PriceParams{Params: stripe.Params{Context: ctx}})
	if err != nil {
		return "", fmt.Errorf("stripe get price %s: %w", priceID, err)
	}
	if p.Product == nil || p.Product.ID == "" {
		return "", fmt.Errorf("stripe price %s has no product", priceID)
	}
	return p.Product.ID, nil
}

// DeleteProduct deactivates the product's prices and deletes it. Stripe keeps
// products that ever had a price, so those are archived instead.
func (s *StripePlatform) DeleteProduct(ctx context.Context, productID string) error {
	iter := s.api.Prices.List(&stripe.PriceListParams{
		ListParams: stripe.ListParams{Context: ctx},
		Product:    stripe.String(productID),
		Active:     stripe.Bool(true),
	})
	for iter.Next() {
		pr := iter.Price()
		if _, err := s.api.Prices.Update(pr.ID, &stripe.PriceParams{
			Params: stripe.Params{Context: ctx},
			Active: stripe.Bool(false),
		}); err != nil {
			return fmt.Errorf("stripe deactivate price %s: %w", pr.ID, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("stripe list prices of %s: %w", productID, err)
	}

	_, err := s.api.Products.Del(productID, &stripe.ProductParams{Params: stripe.Params{Context: ctx}})
	if err == nil {
		return nil
	}
	var serr *stripe.Error
	if errors.As(err, &serr) {
		if serr.Code == stripe.ErrorCodeResourceMissing {
			return nil
		}
		if serr.HTTPStatusCode == 400 {
			_, uerr := s.api.Products.Update(productID, &stripe.ProductParams{
				Params: stripe.Params{Context: ctx},
				Active: stripe.Bool(false),
			})
			if uerr != nil {
				return fmt.Errorf("stripe archive product %s: %w", productID, uerr)
			}
			return nil
		}
	}
	return fmt.Errorf("stripe delete product %s: %w", productID, err)
}

// slogLeveled adapts slog to stripe.LeveledLoggerInterface.
type slogLeveled struct {
	logger *slog.Logger
}

func (l *slogLeveled) Debugf(format string, v ...interface{}) { l.logger.Debug(fmt.Sprintf(format, v...)) }
func (l *slogLeveled) Infof(format string, v ...interface{})  { l.logger.Debug(fmt.Sprintf(format, v...)) }
func (l *slogLeveled) Warnf(format string, v ...interface{})  { l.logger.Warn(fmt.Sprintf(format, v...)) }
func (l *slogLeveled) Errorf(format string, v ...interface{}) { l.logger.Error(fmt.Sprintf(format, v...)) }
