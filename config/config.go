// Package config loads the settings of a dispatch from a YAML file, XHR_
// environment variables and command line flags, in increasing precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talostrading/xhr"
	xhttp "github.com/talostrading/xhr/codec/http"
	"github.com/talostrading/xhr/transport/wire"
)

const EnvPrefix = "XHR"

const (
	TransportWire = "wire"
	TransportHTTP = "http"

	FormatJSON    = "json"
	FormatConsole = "console"
)

type Log struct {
	Level  string
	Format string
}

type Config struct {
	URL       string
	Method    string
	Headers   []string
	Payload   map[string]interface{}
	Timeout   time.Duration
	Transport string
	Log       Log
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"url":        "url",
	"method":     "method",
	"timeout":    "timeout",
	"transport":  "transport",
	"log-level":  "log.level",
	"log-format": "log.format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("url", xhr.DefaultURL)
	v.SetDefault("method", xhr.DefaultMethod.String())
	v.SetDefault("headers", []string{
		"Accept: application/json",
		"Content-Type: application/json",
	})
	v.SetDefault("payload", map[string]interface{}{"value": "value"})
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("transport", TransportWire)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", FormatJSON)
}

// Load reads the configuration file at path, if not empty, then applies the
// environment and the flags of fs which were set. fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config %s: %w", path, err)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	c := &Config{
		URL:       v.GetString("url"),
		Method:    strings.ToUpper(v.GetString("method")),
		Headers:   v.GetStringSlice("headers"),
		Payload:   normalize(v.GetStringMap("payload")).(map[string]interface{}),
		Timeout:   v.GetDuration("timeout"),
		Transport: strings.ToLower(v.GetString("transport")),
		Log: Log{
			Level:  v.GetString("log.level"),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// normalize turns the map[interface{}]interface{} produced by the YAML decoder
// into map[string]interface{} so that the payload can be serialized as JSON.
func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(x))
		for k, e := range x {
			m[fmt.Sprint(k)] = normalize(e)
		}
		return m
	case map[string]interface{}:
		m := make(map[string]interface{}, len(x))
		for k, e := range x {
			m[k] = normalize(e)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(x))
		for i, e := range x {
			s[i] = normalize(e)
		}
		return s
	default:
		return v
	}
}

func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("negative timeout %s", c.Timeout)
	}
	switch c.Transport {
	case TransportWire, TransportHTTP:
	default:
		return fmt.Errorf("unknown transport %q, expected %s or %s", c.Transport, TransportWire, TransportHTTP)
	}
	switch c.Log.Format {
	case FormatJSON, FormatConsole:
	default:
		return fmt.Errorf("unknown log format %q, expected %s or %s", c.Log.Format, FormatJSON, FormatConsole)
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return err
	}
	_, err := c.Envelope()
	return err
}

// Header parses Headers, each of the form "Name: value", keeping their order.
func (c *Config) Header() (xhttp.Header, error) {
	header := xhttp.NewHeader()
	for _, line := range c.Headers {
		key, value, err := xhttp.DecodeHeaderLine([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("header %q: %w", line, err)
		}
		header.Add(string(key), string(value))
	}
	return header, nil
}

func (c *Config) Envelope() (*xhr.Envelope, error) {
	method, err := xhttp.ParseMethod(c.Method)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xhr.ErrInvalidEnvelope, err)
	}
	header, err := c.Header()
	if err != nil {
		return nil, err
	}
	return xhr.NewEnvelope(method, c.URL, header, c.Payload)
}

// NewTransport returns the configured transport.
func (c *Config) NewTransport() xhr.Transport {
	if c.Transport == TransportHTTP {
		return xhr.NewHTTPTransport(nil)
	}
	return wire.NewTransport(nil)
}

// Logger builds a logger writing to stderr, leaving stdout to responses.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if c.Log.Format == FormatConsole {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = level
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
