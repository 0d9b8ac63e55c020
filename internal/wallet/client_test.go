package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubmitReturnsTxID(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/send", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NotEmpty(t, r.Header.Get("Idempotency-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"txid":"abc123"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "secret")
	txID, err := client.Submit(context.Background(), "1Addr", 10000)
	require.NoError(t, err)
	require.Equal(t, "abc123", txID)
	require.Equal(t, []sendOutput{{Address: "1Addr", Satoshis: 10000}}, got.Outputs)
}

func TestSubmitSurfacesServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"insufficient funds"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "secret").Submit(context.Background(), "1Addr", 10000)
	require.ErrorContains(t, err, "insufficient funds")
}

func TestSubmitRejectsMissingTxID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "secret").Submit(context.Background(), "1Addr", 10000)
	require.Error(t, err)
}

func TestToCoins(t *testing.T) {
	require.Equal(t, "0.0001", ToCoins(10000).String())
	require.Equal(t, "1", ToCoins(100_000_000).String())
}
