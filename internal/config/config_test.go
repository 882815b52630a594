package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New(DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, "https://mail.google.com/mail/gxlu", cfg.Endpoint.String())
	assert.Equal(t, DefaultMaxConnections, cfg.MaxConnections)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, MaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, time.Duration(0), cfg.Delay)
	assert.Equal(t, "close", cfg.Headers.Get("Connection"))
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Nil(t, cfg.Proxy)
}

func TestNewResolvesValues(t *testing.T) {
	p := DefaultParams()
	p.BaseURL = "https://gw.example.com/fireprox/"
	p.SleepSeconds = 2
	p.JitterPercent = 50
	p.TimeoutSeconds = 1.5
	p.Proxy = "socks5://127.0.0.1:9050"
	p.Headers = []string{"X-My-X-Forwarded-For: 127.0.0.1", "Connection: keep-alive"}

	cfg, err := New(p)
	require.NoError(t, err)

	assert.Equal(t, "https://gw.example.com/fireprox/mail/gxlu", cfg.Endpoint.String())
	assert.Equal(t, 2*time.Second, cfg.Delay)
	assert.Equal(t, 50, cfg.JitterPercent)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
	assert.Equal(t, "socks5", cfg.Proxy.Scheme)
	assert.Equal(t, "127.0.0.1", cfg.Headers.Get("X-My-X-Forwarded-For"))
	assert.Equal(t, "keep-alive", cfg.Headers.Get("Connection"))
}

func TestNewZeroTimeoutUsesDefault(t *testing.T) {
	p := DefaultParams()
	p.TimeoutSeconds = 0

	cfg, err := New(p)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
}

func TestNewRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"proxy without scheme", func(p *Params) { p.Proxy = "127.0.0.1:8080" }},
		{"proxy unsupported scheme", func(p *Params) { p.Proxy = "ftp://127.0.0.1:21" }},
		{"jitter above 100", func(p *Params) { p.JitterPercent = 101 }},
		{"negative jitter", func(p *Params) { p.JitterPercent = -1 }},
		{"negative sleep", func(p *Params) { p.SleepSeconds = -1 }},
		{"negative timeout", func(p *Params) { p.TimeoutSeconds = -0.5 }},
		{"zero connections", func(p *Params) { p.MaxConnections = 0 }},
		{"negative rate", func(p *Params) { p.Rate = -1 }},
		{"header without colon", func(p *Params) { p.Headers = []string{"NoColonHere"} }},
		{"empty header name", func(p *Params) { p.Headers = []string{": value"} }},
		{"url without scheme", func(p *Params) { p.BaseURL = "mail.google.com" }},
		{"empty url", func(p *Params) { p.BaseURL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)

			cfg, err := New(p)
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "expected ErrInvalid, got %v", err)
		})
	}
}

func TestNewJitterBounds(t *testing.T) {
	for _, j := range []int{0, 100} {
		p := DefaultParams()
		p.JitterPercent = j
		_, err := New(p)
		assert.NoError(t, err, "jitter %d", j)
	}
}

func TestParseHeader(t *testing.T) {
	name, value, err := ParseHeader("Authorization:  Bearer a:b ")
	require.NoError(t, err)
	assert.Equal(t, "Authorization", name)
	assert.Equal(t, "Bearer a:b", value)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mailcheck.yaml")
	body := `
url: https://gw.example.com
max_connections: 5
sleep: 3
jitter: 20
headers:
  - "X-Test: 1"
rua: true
only_new: true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://gw.example.com", f.URL)
	require.NotNil(t, f.MaxConnections)
	assert.Equal(t, 5, *f.MaxConnections)
	require.NotNil(t, f.Sleep)
	assert.Equal(t, 3, *f.Sleep)
	require.NotNil(t, f.Jitter)
	assert.Equal(t, 20, *f.Jitter)
	assert.Equal(t, []string{"X-Test: 1"}, f.Headers)
	require.NotNil(t, f.RandomUA)
	assert.True(t, *f.RandomUA)
	require.NotNil(t, f.OnlyNew)
	assert.True(t, *f.OnlyNew)
	assert.Nil(t, f.Timeout)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_connections: [oops"), 0o600))
	_, err = LoadFile(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
}
