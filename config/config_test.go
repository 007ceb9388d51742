package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talostrading/xhr"
	xhttp "github.com/talostrading/xhr/codec/http"
	"github.com/talostrading/xhr/transport/wire"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, xhr.DefaultURL, c.URL)
	assert.Equal(t, "POST", c.Method)
	assert.Equal(t, time.Duration(0), c.Timeout)
	assert.Equal(t, TransportWire, c.Transport)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, FormatJSON, c.Log.Format)

	env, err := c.Envelope()
	require.NoError(t, err)

	want := xhr.DefaultEnvelope()
	if diff := cmp.Diff(want.Header.Fields(), env.Header.Fields()); diff != "" {
		t.Fatalf("unexpected header (-want +got):\n%s", diff)
	}
	assert.Equal(t, want.Method, env.Method)
	assert.Equal(t, want.URL, env.URL)
	assert.JSONEq(t, string(want.Body), string(env.Body))

	_, ok := c.NewTransport().(*wire.Transport)
	assert.True(t, ok)
}

func TestLoadFile(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "config.yaml"), nil)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/post/json", c.URL)
	assert.Equal(t, "POST", c.Method)
	assert.Equal(t, 250*time.Millisecond, c.Timeout)
	assert.Equal(t, TransportHTTP, c.Transport)
	assert.Equal(t, Log{Level: "debug", Format: FormatConsole}, c.Log)

	env, err := c.Envelope()
	require.NoError(t, err)

	assert.Equal(t, []xhttp.Field{
		{Key: "Accept", Value: "application/json"},
		{Key: "Content-Type", Value: "application/json"},
		{Key: "X-Trace", Value: "abc"},
	}, env.Header.Fields())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Body, &body))
	want := map[string]interface{}{
		"value": "value",
		"nested": map[string]interface{}{
			"count": 3.0,
			"tags":  []interface{}{"a", "b"},
		},
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Fatalf("unexpected payload (-want +got):\n%s", diff)
	}

	_, ok := c.NewTransport().(*xhr.HTTPTransport)
	assert.True(t, ok)

	logger, err := c.Logger()
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("XHR_URL", "http://127.0.0.1:8080/post/json")
	t.Setenv("XHR_LOG_LEVEL", "warn")
	t.Setenv("XHR_TIMEOUT", "2s")

	c, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8080/post/json", c.URL)
	assert.Equal(t, "warn", c.Log.Level)
	assert.Equal(t, 2*time.Second, c.Timeout)
}

func TestLoadFlagsOverride(t *testing.T) {
	t.Setenv("XHR_TRANSPORT", "wire")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("url", "", "")
	fs.String("transport", "", "")
	fs.Duration("timeout", 0, "")
	fs.String("log-level", "", "")
	require.NoError(t, fs.Parse([]string{
		"--url", "http://localhost:9000/post/json",
		"--transport", "http",
		"--timeout", "1s",
	}))

	c, err := Load(filepath.Join("testdata", "config.yaml"), fs)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/post/json", c.URL)
	assert.Equal(t, TransportHTTP, c.Transport)
	assert.Equal(t, time.Second, c.Timeout)
	// not set on the command line, so the file wins
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"transport": "transport: carrier-pigeon\n",
		"format":    "log:\n  format: xml\n",
		"level":     "log:\n  level: loud\n",
		"timeout":   "timeout: -1s\n",
		"url":       "url: ftp://localhost/post/json\n",
		"method":    "method: fetch\n",
		"header":    "headers:\n  - no-colon\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			_, err := Load(path, nil)
			assert.Error(t, err)
		})
	}
}
