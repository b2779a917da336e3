package paymentclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/food_order/internal/transport"
)

func TestClient_CreateSheet(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payment-sheet", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req transport.PaymentSheetRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Amount <= 0 {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(transport.PaymentErrorResponse{Error: "invalid amount"})
			return
		}
		_ = json.NewEncoder(w).Encode(transport.PaymentSheet{
			PaymentIntent: "pi_1_secret_x", PublishableKey: "pk", Customer: "cus_1", EphemeralKey: "ek_1",
		})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL + "/")

	sheet, err := c.CreateSheet(context.Background(), "tok", 1998)
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret_x", sheet.PaymentIntent)
	assert.Equal(t, "cus_1", sheet.Customer)

	_, err = c.CreateSheet(context.Background(), "tok", 0)
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusBadRequest, perr.Status)
	assert.Equal(t, "invalid amount", perr.Message)
}

func TestClient_IntentStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment-intents/pi_1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(transport.PaymentIntentStatus{ID: "pi_1", Status: "succeeded"})
	}))
	t.Cleanup(srv.Close)

	st, err := NewClient(srv.URL).IntentStatus(context.Background(), "tok", "pi_1")
	require.NoError(t, err)
	assert.Equal(t, "succeeded", st.Status)
}
