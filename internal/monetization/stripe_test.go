package monetization

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	method string
	path   string
	form   map[string]string
}

func newStripeServer(t *testing.T, responses map[string]string) (*httptest.Server, *[]recordedCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []recordedCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form := map[string]string{}
		for k, v := range r.PostForm {
			form[k] = v[0]
		}
		mu.Lock()
		calls = append(calls, recordedCall{method: r.Method, path: r.URL.Path, form: form})
		mu.Unlock()

		body, ok := responses[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"not found"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestStripePlatformCreate(t *testing.T) {
	srv, calls := newStripeServer(t, map[string]string{
		"POST /v1/products": `{"id":"prod_123","object":"product"}`,
		"POST /v1/prices":   `{"id":"price_456","object":"price","product":"prod_123"}`,
	})
	sp := NewStripePlatform(StripeConfig{SecretKey: "sk_test_123", URL: srv.URL})

	productID, err := sp.CreateProduct(t.Context(), ProductSpec{Name: "Pro", Metadata: map[string]string{"path": "my-ext"}})
	require.NoError(t, err)
	assert.Equal(t, "prod_123", productID)

	priceID, err := sp.CreatePrice(t.Context(), PriceSpec{
		ProductID: productID, UnitAmount: 500, Currency: "usd", Interval: "month", Usage: UsageMetered, DivideBy: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "price_456", priceID)

	require.Len(t, *calls, 2)
	assert.Equal(t, "Pro", (*calls)[0].form["name"])
	assert.Equal(t, "my-ext", (*calls)[0].form["metadata[path]"])
	price := (*calls)[1].form
	assert.Equal(t, "prod_123", price["product"])
	assert.Equal(t, "500", price["unit_amount"])
	assert.Equal(t, "month", price["recurring[interval]"])
	assert.Equal(t, "metered", price["recurring[usage_type]"])
	assert.Equal(t, "10", price["transform_quantity[divide_by]"])
	assert.Equal(t, "up", price["transform_quantity[round]"])
}

func TestStripePlatformPriceProduct(t *testing.T) {
	srv, _ := newStripeServer(t, map[string]string{
		"GET /v1/prices/price_456": `{"id":"price_456","object":"price","product":"prod_123"}`,
	})
	sp := NewStripePlatform(StripeConfig{SecretKey: "sk_test_123", URL: srv.URL})

	productID, err := sp.PriceProduct(t.Context(), "price_456")
	require.NoError(t, err)
	assert.Equal(t, "prod_123", productID)
}

func TestStripePlatformDeleteMissingProduct(t *testing.T) {
	srv, _ := newStripeServer(t, map[string]string{
		"GET /v1/prices": `{"object":"list","data":[],"has_more":false,"url":"/v1/prices"}`,
	})
	sp := NewStripePlatform(StripeConfig{SecretKey: "sk_test_123", URL: srv.URL})

	require.NoError(t, sp.DeleteProduct(t.Context(), "prod_gone"))
}
