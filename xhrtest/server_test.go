package xhrtest

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	cases := []struct {
		method, path string
		code         int
		body         string
		contentType  string
		allow        string
	}{
		{http.MethodPost, Path, 200, `{"value":"value"}`, "application/json", ""},
		{http.MethodGet, Path, 405, "405 Method Not Allowed", "text/plain", "POST"},
		{http.MethodPost, "/missing", 404, "404 Not Found", "text/plain", ""},
	}

	for _, c := range cases {
		req, err := http.NewRequest(c.method, srv.URL+c.path, strings.NewReader(`{"value":"value"}`))
		require.NoError(t, err)

		res, err := srv.Client().Do(req)
		require.NoError(t, err)
		b, err := io.ReadAll(res.Body)
		res.Body.Close()
		require.NoError(t, err)

		assert.Equal(t, c.code, res.StatusCode)
		assert.Equal(t, c.body, string(b))
		assert.Equal(t, c.contentType, res.Header.Get("Content-Type"))
		assert.Equal(t, c.allow, res.Header.Get("Allow"))
	}

	received := srv.Received()
	require.Len(t, received, 3)
	assert.Equal(t, http.MethodGet, received[1].Method)
	assert.Equal(t, "/missing", received[2].Path)
}

func TestTransportRecordsEnvelopes(t *testing.T) {
	tr := NewTransport(Stall(0))
	assert.Empty(t, tr.Envelopes())
	require.NoError(t, tr.Close())
	assert.True(t, tr.Closed())
}
