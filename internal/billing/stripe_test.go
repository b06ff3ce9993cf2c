package billing_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saasfly/saasfly/internal/billing"
)

func TestNewStripe_RequiresKey(t *testing.T) {
	t.Parallel()

	_, err := billing.NewStripe(billing.Config{}, nil)
	require.ErrorIs(t, err, billing.ErrMissingAPIKey)
}

func TestStripe_Sessions(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseForm())

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/billing_portal/sessions":
			assert.Equal(t, "cus_1", r.PostForm.Get("customer"))
			assert.Equal(t, "https://saasfly.io/dashboard", r.PostForm.Get("return_url"))
			_, _ = w.Write([]byte(`{"id":"bps_1","object":"billing_portal.session","url":"https://stripe.test/portal"}`))
		case "/v1/checkout/sessions":
			assert.Equal(t, "subscription", r.PostForm.Get("mode"))
			assert.Equal(t, "card", r.PostForm.Get("payment_method_types[0]"))
			assert.Equal(t, "ada@example.com", r.PostForm.Get("customer_email"))
			assert.Equal(t, "u1", r.PostForm.Get("client_reference_id"))
			assert.Equal(t, "u1", r.PostForm.Get("subscription_data[metadata][userId]"))
			assert.Equal(t, "price_pro", r.PostForm.Get("line_items[0][price]"))
			assert.Equal(t, "1", r.PostForm.Get("line_items[0][quantity]"))
			_, _ = w.Write([]byte(`{"id":"cs_1","object":"checkout.session","url":"https://stripe.test/checkout"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	s, err := billing.NewStripe(billing.Config{APIKey: "sk_test_123", APIBase: srv.URL}, srv.Client())
	require.NoError(t, err)

	url, err := s.PortalSession(context.Background(), "cus_1", "https://saasfly.io/dashboard")
	require.NoError(t, err)
	assert.Equal(t, "https://stripe.test/portal", url)

	url, err = s.CheckoutSession(context.Background(), billing.CheckoutRequest{
		PriceID:       "price_pro",
		CustomerEmail: "ada@example.com",
		UserID:        "u1",
		SuccessURL:    "https://saasfly.io/dashboard",
		CancelURL:     "https://saasfly.io/dashboard",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://stripe.test/checkout", url)
}
