package paystack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_InitializeTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		var body InitializeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body.Email)
		assert.Equal(t, int64(250000), body.Amount)
		assert.Equal(t, "https://skinsight.app/paid", body.CallbackURL)

		_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{
			"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"ref-1"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{SecretKey: "sk_test_123", BaseURL: srv.URL + "/", CallbackURL: "https://skinsight.app/paid"}, nil)
	auth, err := client.InitializeTransaction(context.Background(), InitializeRequest{
		Email: "ada@example.com", Amount: 250000, Reference: "ref-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc", auth.AuthorizationURL)
	assert.Equal(t, "abc", auth.AccessCode)
}

func TestClient_VerifyTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/ref-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful","data":{
			"id":42,"status":"success","reference":"ref-1","amount":250000,"currency":"NGN",
			"paid_at":"2026-03-01T10:00:00.000Z","metadata":{"session_id":"s1"},"customer":{"email":"ada@example.com"}}}`))
	}))
	defer srv.Close()

	tx, err := NewClient(Config{SecretKey: "sk", BaseURL: srv.URL}, nil).VerifyTransaction(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, tx.Status)
	assert.Equal(t, int64(250000), tx.Amount)
	assert.Equal(t, "s1", tx.Metadata["session_id"])
	assert.Equal(t, "ada@example.com", tx.Customer.Email)
	require.NotNil(t, tx.PaidAt)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{SecretKey: "bad", BaseURL: srv.URL}, nil).VerifyTransaction(context.Background(), "ref-1")
	assert.ErrorContains(t, err, "Invalid key")
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{SecretKey: "sk", BaseURL: srv.URL}, nil).VerifyTransaction(context.Background(), "ref-1")
	assert.ErrorContains(t, err, "status 502")
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"ref-1"}}`)
	sig := Sign("sk_test_123", body)

	assert.Len(t, sig, 128)
	assert.True(t, VerifySignature("sk_test_123", body, sig))
	assert.False(t, VerifySignature("sk_test_123", append(body, ' '), sig))
	assert.False(t, VerifySignature("other", body, sig))
	assert.False(t, VerifySignature("sk_test_123", body, ""))
	assert.False(t, VerifySignature("", body, Sign("", body)))

	client := NewClient(Config{SecretKey: "sk_test_123"}, nil)
	assert.True(t, client.VerifySignature(body, sig))
}

func TestMetadata_Unmarshal(t *testing.T) {
	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(`{"metadata":""}`), &tx))
	assert.Nil(t, tx.Metadata)

	require.NoError(t, json.Unmarshal([]byte(`{"metadata":{"session_id":"s1","attempt":2}}`), &tx))
	assert.Equal(t, Metadata{"session_id": "s1", "attempt": "2"}, tx.Metadata)
}
