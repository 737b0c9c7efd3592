package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagify/imagify/internal/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.Config{
		RazorpayKeyID:     "rzp_test_key",
		RazorpayKeySecret: "rzp_test_secret",
		RazorpayBaseURL:   baseURL,
		RequestTimeout:    5 * time.Second,
	})
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "rzp_test_secret", pass)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.EqualValues(t, 25000, payload["amount"])
		assert.Equal(t, "INR", payload["currency"])
		assert.Equal(t, "receipt-uuid", payload["receipt"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Order{
			ID:       "order_abc",
			Amount:   25000,
			Currency: "INR",
			Receipt:  "receipt-uuid",
			Status:   StatusCreated,
		})
	}))
	defer srv.Close()

	order, err := newTestClient(srv.URL).CreateOrder(context.Background(), 25000, "INR", "receipt-uuid")
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, StatusCreated, order.Status)
}

func TestFetchOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders/order_abc", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Order{ID: "order_abc", Status: StatusPaid})
	}))
	defer srv.Close()

	order, err := newTestClient(srv.URL).FetchOrder(context.Background(), "order_abc")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, order.Status)
}

func TestFetchOrderRequiresID(t *testing.T) {
	_, err := newTestClient("http://localhost:0").FetchOrder(context.Background(), "")
	assert.Error(t, err)
}

func TestErrorStatusRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"description":"amount too small"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateOrder(context.Background(), 1, "INR", "r")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount too small")
}

func TestMalformedResponseRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchOrder(context.Background(), "order_abc")
	assert.Error(t, err)
}

func TestResponseMissingStatusRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"order_abc"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchOrder(context.Background(), "order_abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing id or status")
}
