package config

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultURL            = "https://mail.google.com"
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.36"
	DefaultMaxConnections = 20
	DefaultTimeout        = 60 * time.Second

	// ProbePath is appended to the base URL; it is not configurable.
	ProbePath = "/mail/gxlu"

	// MaxAttempts is the per-identifier request budget.
	MaxAttempts = 3
)

var ErrInvalid = errors.New("invalid configuration")

// Params holds raw, unvalidated values as they come from flags or a config file.
type Params struct {
	BaseURL         string
	MaxConnections  int
	TimeoutSeconds  float64
	SleepSeconds    int
	JitterPercent   int
	Proxy           string
	Headers         []string
	UserAgent       string
	RandomUserAgent bool
	Rate            float64
}

func DefaultParams() Params {
	return Params{
		BaseURL:        DefaultURL,
		MaxConnections: DefaultMaxConnections,
		TimeoutSeconds: DefaultTimeout.Seconds(),
		UserAgent:      DefaultUserAgent,
	}
}

// RunConfig is resolved once at startup and shared read-only by every probe.
// Nothing may mutate it after New returns.
type RunConfig struct {
	BaseURL  string
	Endpoint *url.URL

	MaxConnections int
	Timeout        time.Duration
	Delay          time.Duration
	JitterPercent  int
	MaxAttempts    int
	Rate           float64

	Proxy *url.URL

	// Headers is the static template; callers must Clone before mutating.
	Headers         http.Header
	UserAgent       string
	RandomUserAgent bool
}

func New(p Params) (*RunConfig, error) {
	if p.MaxConnections < 1 {
		return nil, invalidf("max connections must be a positive integer (got %d)", p.MaxConnections)
	}
	if p.TimeoutSeconds < 0 {
		return nil, invalidf("timeout must not be negative (got %v)", p.TimeoutSeconds)
	}
	if p.SleepSeconds < 0 {
		return nil, invalidf("sleep must not be negative (got %d)", p.SleepSeconds)
	}
	if p.JitterPercent < 0 || p.JitterPercent > 100 {
		return nil, invalidf("jitter must be between 0 and 100 (got %d)", p.JitterPercent)
	}
	if p.Rate < 0 {
		return nil, invalidf("rate must not be negative (got %v)", p.Rate)
	}

	endpoint, err := Endpoint(p.BaseURL)
	if err != nil {
		return nil, err
	}

	var proxyURL *url.URL
	if p.Proxy != "" {
		proxyURL, err = ParseProxy(p.Proxy)
		if err != nil {
			return nil, err
		}
	}

	headers := DefaultHeaders()
	for _, raw := range p.Headers {
		name, value, err := ParseHeader(raw)
		if err != nil {
			return nil, err
		}
		headers.Set(name, value)
	}

	ua := strings.TrimSpace(p.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}

	timeout := time.Duration(p.TimeoutSeconds * float64(time.Second))
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &RunConfig{
		BaseURL:         strings.TrimRight(p.BaseURL, "/"),
		Endpoint:        endpoint,
		MaxConnections:  p.MaxConnections,
		Timeout:         timeout,
		Delay:           time.Duration(p.SleepSeconds) * time.Second,
		JitterPercent:   p.JitterPercent,
		MaxAttempts:     MaxAttempts,
		Rate:            p.Rate,
		Proxy:           proxyURL,
		Headers:         headers,
		UserAgent:       ua,
		RandomUserAgent: p.RandomUserAgent,
	}, nil
}

// DefaultHeaders returns the header set every probe starts from.
func DefaultHeaders() http.Header {
	h := make(http.Header)
	h.Set("Connection", "close")
	return h
}

// Endpoint joins base and ProbePath.
func Endpoint(base string) (*url.URL, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return nil, invalidf("target url is empty")
	}
	u, err := url.Parse(base + ProbePath)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalid, "target url %q: %v", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, invalidf("target url %q must include scheme and host", base)
	}
	return u, nil
}

func ParseProxy(raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		return nil, invalidf("malformed proxy %q: missing scheme?", raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalid, "proxy %q: %v", raw, err)
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, invalidf("unsupported proxy scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, invalidf("proxy %q has no host", raw)
	}
	return u, nil
}

// ParseHeader splits "Name: Value" on the first colon.
func ParseHeader(raw string) (string, string, error) {
	name, value, ok := strings.Cut(raw, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", invalidf("malformed header %q: expected \"Name: Value\"", raw)
	}
	return name, strings.TrimSpace(value), nil
}

func invalidf(format string, args ...any) error {
	return errors.Wrap(ErrInvalid, fmt.Sprintf(format, args...))
}

// File mirrors the command-line flags for --config. Pointer fields tell
// "unset" apart from zero values.
type File struct {
	URL            string   `yaml:"url"`
	Out            string   `yaml:"out"`
	Compare        string   `yaml:"compare"`
	CompareOut     string   `yaml:"cmpout"`
	Proxy          string   `yaml:"proxy"`
	MaxConnections *int     `yaml:"max_connections"`
	Timeout        *float64 `yaml:"timeout"`
	Sleep          *int     `yaml:"sleep"`
	Jitter         *int     `yaml:"jitter"`
	Rate           *float64 `yaml:"rate"`
	Headers        []string `yaml:"headers"`
	UserAgent      string   `yaml:"user_agent"`
	RandomUA       *bool    `yaml:"rua"`
	UAFile         string   `yaml:"ua_file"`
	UAMinVersion   string   `yaml:"ua_min_version"`
	Match          string   `yaml:"match"`
	Notify         string   `yaml:"notify"`
	Shuffle        *bool    `yaml:"shuffle"`
	OnlyNew        *bool    `yaml:"only_new"`
	Verbose        *bool    `yaml:"verbose"`
}

func LoadFile(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, errors.Wrap(err, "read config file")
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return File{}, errors.Wrapf(ErrInvalid, "parse config file %q: %v", path, err)
	}
	return f, nil
}
