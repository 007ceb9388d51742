package xhr

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xhttp "github.com/talostrading/xhr/codec/http"
)

func TestDefaultEnvelope(t *testing.T) {
	env := DefaultEnvelope()

	assert.Equal(t, xhttp.Post, env.Method)
	assert.Equal(t, "http://localhost/post/json", env.URL)

	want := []xhttp.Field{
		{Key: "Accept", Value: "application/json"},
		{Key: "Content-Type", Value: "application/json"},
	}
	if diff := cmp.Diff(want, env.Header.Fields()); diff != "" {
		t.Fatalf("unexpected header (-want +got):\n%s", diff)
	}

	assert.Equal(t, `{"value":"value"}`, string(env.Body))
}

func TestEnvelopeBodyRoundTrip(t *testing.T) {
	payloads := []any{
		map[string]any{"value": "value"},
		map[string]any{"a": 1.5, "b": []any{"x", true, nil}},
		[]any{"only", "strings"},
		"scalar",
	}

	for _, payload := range payloads {
		env, err := NewEnvelope(xhttp.Post, DefaultURL, nil, payload)
		require.NoError(t, err)

		var parsed any
		require.NoError(t, json.Unmarshal(env.Body, &parsed))

		if diff := cmp.Diff(payload, parsed); diff != "" {
			t.Fatalf("payload did not survive serialization (-want +got):\n%s", diff)
		}
	}
}

func TestNewEnvelopeDefaultsHeader(t *testing.T) {
	env, err := NewEnvelope(xhttp.Post, "https://example.com/x", nil, 1)
	require.NoError(t, err)
	assert.Equal(t, DefaultHeader().Fields(), env.Header.Fields())
}

func TestNewEnvelopeUnserializable(t *testing.T) {
	_, err := NewEnvelope(xhttp.Post, DefaultURL, nil, map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestEnvelopeValidate(t *testing.T) {
	cases := []struct {
		name   string
		method xhttp.Method
		url    string
	}{
		{"missing method", "", DefaultURL},
		{"unknown method", "FETCH", DefaultURL},
		{"relative url", xhttp.Post, "/post/json"},
		{"unsupported scheme", xhttp.Post, "ftp://localhost/post/json"},
		{"missing host", xhttp.Post, "http:///post/json"},
		{"unparsable url", xhttp.Post, "http://local host/%zz"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			env := &Envelope{Method: c.method, URL: c.url, Header: DefaultHeader()}
			err := env.Validate()
			if !errors.Is(err, ErrInvalidEnvelope) {
				t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
			}
		})
	}

	assert.NoError(t, DefaultEnvelope().Validate())
}

func TestEnvelopeClone(t *testing.T) {
	env := DefaultEnvelope()
	c := env.Clone()

	c.Body[0] = '['
	c.Header.Set("Accept", "text/plain")

	assert.Equal(t, `{"value":"value"}`, string(env.Body))
	assert.Equal(t, "application/json", env.Header.Get("Accept"))
}
