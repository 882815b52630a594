package httpx

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tdh8316/mailcheck/internal/config"
	"github.com/tdh8316/mailcheck/internal/uapool"
)

const EmailParam = "email"

// Descriptor is everything needed to issue one probe attempt.
type Descriptor struct {
	Method string
	URL    *url.URL
	Header http.Header
	Proxy  *url.URL
}

// Build describes the probe for id. It has no side effects: the header set is
// a fresh copy of cfg.Headers, so concurrent callers never share a map.
func Build(id string, cfg *config.RunConfig, pool uapool.Pool) Descriptor {
	u := *cfg.Endpoint
	q := u.Query()
	q.Set(EmailParam, id)
	u.RawQuery = q.Encode()

	header := cfg.Headers.Clone()
	if header == nil {
		header = make(http.Header)
	}
	ua := cfg.UserAgent
	if cfg.RandomUserAgent {
		ua = uapool.Pick(pool, cfg.UserAgent)
	}
	header.Set("User-Agent", ua)

	return Descriptor{
		Method: http.MethodHead,
		URL:    &u,
		Header: header,
		Proxy:  cfg.Proxy,
	}
}

func (d Descriptor) Request(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, d.Method, d.URL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header = d.Header
	return req, nil
}
