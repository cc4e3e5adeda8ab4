package databricks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_PersonalAccessToken(t *testing.T) {
	f := &fakeWarehouse{submit: `{"statement_id":"s1","status":{"state":"SUCCEEDED"}}`}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()

	httpClient, err := NewHTTPClient(context.Background(), srv.URL, Credentials{Token: "dapi-123"}, 5*time.Second)
	require.NoError(t, err)
	client, err := NewClient(srv.URL, "wh", "", httpClient)
	require.NoError(t, err)

	_, err = NewExecutor(client, fastConfig(), testLogger()).Execute(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer dapi-123", f.authHeader)
}

func TestNewHTTPClient_ClientCredentials(t *testing.T) {
	var tokenCalls atomic.Int32
	f := &fakeWarehouse{submit: `{"statement_id":"s1","status":{"state":"SUCCEEDED"}}`}

	mux := http.NewServeMux()
	mux.Handle("/api/", f.handler(t))
	mux.HandleFunc("POST /oidc/v1/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		assert.Equal(t, "all-apis", r.Form.Get("scope"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"sp-token","token_type":"Bearer","expires_in":3600}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	creds := Credentials{ClientID: "sp-id", ClientSecret: "sp-secret"}
	httpClient, err := NewHTTPClient(context.Background(), srv.URL, creds, 5*time.Second)
	require.NoError(t, err)
	client, err := NewClient(srv.URL, "wh", "", httpClient)
	require.NoError(t, err)

	exec := NewExecutor(client, fastConfig(), testLogger())
	for range 2 {
		_, err = exec.Execute(context.Background(), "SELECT 1")
		require.NoError(t, err)
	}
	assert.Equal(t, "Bearer sp-token", f.authHeader)
	assert.Equal(t, int32(1), tokenCalls.Load(), "token should be cached until expiry")
}

func TestNewHTTPClient_RequiresCredentials(t *testing.T) {
	_, err := NewHTTPClient(context.Background(), "host", Credentials{ClientID: "only-id"}, time.Second)
	assert.Error(t, err)

	_, err = NewHTTPClient(context.Background(), "host", Credentials{}, time.Second)
	assert.Error(t, err)
}
