package mmapi

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/mmreplicate/internal/ingesterr"
)

func TestSignedClientAddsConsumerKeyTimestampNonceSignature(t *testing.T) {
	var captured url.Values

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.URL.Query()
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":[],"links":{},"meta":{"pagination":{"per_page":50,"count":0}}}`))
	}))
	defer srv.Close()

	c := NewSignedClient(srv.URL, "my-key", "my-secret", 5*time.Second)
	_, err := c.AllShows(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "my-key", captured.Get("consumer_key"))
	assert.NotEmpty(t, captured.Get("timestamp"))
	assert.NotEmpty(t, captured.Get("nonce"))
	assert.NotEmpty(t, captured.Get("signature"))
}

func TestSignedClientSignatureIsStableForSameInputs(t *testing.T) {
	c := &SignedClient{Key: "k", Secret: "s"}
	sig1 := c.calcSignature("http://h/x?a=1", 1000, "nonce-a")
	sig2 := c.calcSignature("http://h/x?a=1", 1000, "nonce-a")
	sig3 := c.calcSignature("http://h/x?a=1", 1000, "nonce-b")

	assert.Equal(t, sig1, sig2)
	assert.NotEqual(t, sig1, sig3)
}

func TestSignedClientDistinguishesNotFoundAndUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("probe") == "404" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewSignedClient(srv.URL, "k", "s", 5*time.Second)

	_, err := c.URL(t.Context(), srv.URL+"/x?probe=404")
	require.Error(t, err)
	kind, ok := ingesterr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ingesterr.KindResourceNotFound, kind)

	_, err = c.URL(t.Context(), srv.URL+"/x?probe=401")
	require.Error(t, err)
	kind, ok = ingesterr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ingesterr.KindNotAuthorized, kind)
}
