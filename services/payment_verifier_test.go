package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPPaymentVerifier(t *testing.T) {
	var gotAuth, gotRef string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotRef = body["transaction_id"]

		switch gotRef {
		case "tx-ok":
			w.Write([]byte(`{"status":" Successful ","message":"paid"}`))
		case "tx-boom":
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`upstream down`))
		default:
			w.Write([]byte(`not json`))
		}
	}))
	defer server.Close()

	verifier := NewHTTPPaymentVerifier(server.URL, "secret")
	ctx := context.Background()

	result, err := verifier.Verify(ctx, "tx-ok")
	require.NoError(t, err)
	assert.Equal(t, VerificationSuccessful, result.Status)
	assert.Equal(t, "paid", result.Message)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "tx-ok", gotRef)

	_, err = verifier.Verify(ctx, "tx-boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")

	_, err = verifier.Verify(ctx, "tx-garbage")
	assert.Error(t, err)
}

func TestHTTPPaymentVerifierNotConfigured(t *testing.T) {
	_, err := NewHTTPPaymentVerifier("", "").Verify(context.Background(), "tx")
	assert.Error(t, err)
}
