// Package uapool supplies User-Agent strings for probes that randomize them.
package uapool

import (
	"io"
	"math/rand/v2"
	"strings"

	"github.com/mcuadros/go-version"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

var ErrEmpty = errors.New("user-agent pool is empty")

// Pool hands out one User-Agent per call. Implementations must be safe for
// concurrent use.
type Pool interface {
	Next() string
}

type Static string

func (s Static) Next() string { return string(s) }

// List picks uniformly at random from a fixed set.
type List struct {
	agents []string
}

func NewList(agents []string) (*List, error) {
	clean := make([]string, 0, len(agents))
	for _, a := range agents {
		if a = strings.TrimSpace(a); a != "" {
			clean = append(clean, a)
		}
	}
	if len(clean) == 0 {
		return nil, ErrEmpty
	}
	return &List{agents: clean}, nil
}

// Default returns a pool over the built-in agents.
func Default() *List {
	return &List{agents: builtin}
}

func (l *List) Next() string {
	return l.agents[rand.IntN(len(l.agents))]
}

func (l *List) Len() int { return len(l.agents) }

// Pick returns the pool's next agent, or fallback when the pool is missing
// or yields nothing.
func Pick(p Pool, fallback string) string {
	if p == nil {
		return fallback
	}
	if ua := p.Next(); ua != "" {
		return ua
	}
	return fallback
}

type options struct {
	minVersion string
}

type Option func(*options)

// MinVersion drops entries whose "version" field is older than v.
// Entries without a version are kept.
func MinVersion(v string) Option {
	return func(o *options) { o.minVersion = strings.TrimSpace(v) }
}

// LoadJSON builds a pool from either a JSON array (of strings, or of objects
// with "useragent" and "version" fields) or newline-delimited objects in the
// fake-useragent browsers.json shape.
func LoadJSON(r io.Reader, opts ...Option) (*List, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read user-agent source")
	}
	body := strings.TrimSpace(string(raw))

	var agents []string
	add := func(item gjson.Result) bool {
		ua, ver := entry(item)
		if ua == "" {
			return true
		}
		if o.minVersion != "" && ver != "" && !version.Compare(ver, o.minVersion, ">=") {
			return true
		}
		agents = append(agents, ua)
		return true
	}

	switch {
	case strings.HasPrefix(body, "["):
		if !gjson.Valid(body) {
			return nil, errors.New("user-agent source: malformed json array")
		}
		gjson.Parse(body).ForEach(func(_, item gjson.Result) bool { return add(item) })
	default:
		gjson.ForEachLine(body, add)
	}

	if len(agents) == 0 {
		return nil, ErrEmpty
	}
	return &List{agents: agents}, nil
}

func entry(item gjson.Result) (string, string) {
	switch {
	case item.Type == gjson.String:
		return strings.TrimSpace(item.String()), ""
	case item.IsObject():
		ua := item.Get("useragent")
		if !ua.Exists() {
			ua = item.Get("ua")
		}
		return strings.TrimSpace(ua.String()), item.Get("version").String()
	}
	return "", ""
}

var builtin = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36 Edg/128.0.0.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:131.0) Gecko/20100101 Firefox/131.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14.7; rv:131.0) Gecko/20100101 Firefox/131.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:130.0) Gecko/20100101 Firefox/130.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Mobile Safari/537.36",
}
