package monetization

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

type fakePlatform struct {
	products     map[string]ProductSpec
	prices       map[string]PriceSpec
	createCalls  int
	deleteCalls  int
	failPrice    error
	failDelete   error
	failRetrieve error
	next         int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{products: map[string]ProductSpec{}, prices: map[string]PriceSpec{}}
}

func (f *fakePlatform) id(prefix string) string {
	f.next++
	return prefix + string(rune('0'+f.next))
}

func (f *fakePlatform) CreateProduct(ctx context.Context, spec ProductSpec) (string, error) {
	f.createCalls++
	id := f.id("prod_")
	f.products[id] = spec
	return id, nil
}

func (f *fakePlatform) CreatePrice(ctx context.Context, spec PriceSpec) (string, error) {
	if f.failPrice != nil {
		return "", f.failPrice
	}
	id := f.id("price_")
	f.prices[id] = spec
	return id, nil
}

func (f *fakePlatform) PriceProduct(ctx context.Context, priceID string) (string, error) {
	if f.failRetrieve != nil {
		return "", f.failRetrieve
	}
	p, ok := f.prices[priceID]
	if !ok {
		return "", errors.New("no such price")
	}
	return p.ProductID, nil
}

func (f *fakePlatform) DeleteProduct(ctx context.Context, productID string) error {
	f.deleteCalls++
	if f.failDelete != nil {
		return f.failDelete
	}
	delete(f.products, productID)
	for id, p := range f.prices {
		if p.ProductID == productID {
			delete(f.prices, id)
		}
	}
	return nil
}

func TestApplyCreatesProductAndPrice(t *testing.T) {
	f := newFakePlatform()
	p := NewProvisioner(f, "", nil)

	out, err := p.Apply(t.Context(), "my-ext", "", &Descriptor{
		Price:       500,
		Name:        "My Ext Pro",
		Description: []string{"Unlimited runs", "Priority support"},
		Usage:       "Metered",
		Quantity:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, TransitionCreate, out.Transition)
	require.NotNil(t, out.PriceRef)

	price := f.prices[*out.PriceRef]
	assert.Equal(t, out.ProductID, price.ProductID)
	assert.Equal(t, int64(500), price.UnitAmount)
	assert.Equal(t, "usd", price.Currency)
	assert.Equal(t, "month", price.Interval)
	assert.Equal(t, UsageMetered, price.Usage)
	assert.Equal(t, int64(10), price.DivideBy)
	assert.Equal(t, "Unlimited runs\nPriority support", f.products[out.ProductID].Description)
	assert.Equal(t, "my-ext", f.products[out.ProductID].Metadata["path"])
}

func TestApplyIsIdempotent(t *testing.T) {
	f := newFakePlatform()
	p := NewProvisioner(f, "usd", nil)
	desc := &Descriptor{Price: 300}

	first, err := p.Apply(t.Context(), "my-ext", "", desc)
	require.NoError(t, err)

	second, err := p.Apply(t.Context(), "my-ext", *first.PriceRef, desc)
	require.NoError(t, err)
	assert.Equal(t, TransitionNone, second.Transition)
	assert.Nil(t, second.PriceRef)
	assert.Equal(t, 1, f.createCalls)
	assert.Equal(t, 0, f.deleteCalls)
}

func TestApplyDeletesWhenPremiumRemoved(t *testing.T) {
	f := newFakePlatform()
	p := NewProvisioner(f, "usd", nil)
	created, err := p.Apply(t.Context(), "my-ext", "", &Descriptor{Price: 300})
	require.NoError(t, err)

	out, err := p.Apply(t.Context(), "my-ext", *created.PriceRef, nil)
	require.NoError(t, err)
	assert.Equal(t, TransitionDelete, out.Transition)
	require.NotNil(t, out.PriceRef)
	assert.Equal(t, "", *out.PriceRef)
	assert.Empty(t, f.products)

	again, err := p.Apply(t.Context(), "my-ext", "", nil)
	require.NoError(t, err)
	assert.Equal(t, TransitionNone, again.Transition)
	assert.Equal(t, 1, f.deleteCalls)
}

func TestApplyPriceFailureRemovesOrphanProduct(t *testing.T) {
	f := newFakePlatform()
	f.failPrice = errors.New("card network down")
	p := NewProvisioner(f, "usd", nil)

	out, err := p.Apply(t.Context(), "my-ext", "", &Descriptor{Price: 300})
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryProvisioning))
	assert.Nil(t, out.PriceRef)
	assert.Empty(t, f.products)
}

func TestApplyDeleteFailureKeepsReference(t *testing.T) {
	f := newFakePlatform()
	p := NewProvisioner(f, "usd", nil)
	created, err := p.Apply(t.Context(), "my-ext", "", &Descriptor{Price: 300})
	require.NoError(t, err)

	f.failDelete = errors.New("stripe unavailable")
	out, err := p.Apply(t.Context(), "my-ext", *created.PriceRef, nil)
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryProvisioning))
	assert.Nil(t, out.PriceRef)
}

func TestApplyRejectsInvalidDescriptor(t *testing.T) {
	f := newFakePlatform()
	p := NewProvisioner(f, "usd", nil)

	_, err := p.Apply(t.Context(), "my-ext", "", &Descriptor{Price: 100, Usage: "per-seat"})
	require.Error(t, err)
	assert.Equal(t, 0, f.createCalls)
}
