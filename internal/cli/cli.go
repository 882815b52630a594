package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/tdh8316/mailcheck/internal/config"
)

var (
	ErrHelp  = errors.New("help requested")
	ErrUsage = errors.New("usage error")
)

// NotifyEnv supplies the webhook when --notify is not given.
const NotifyEnv = "MAILCHECK_NOTIFY"

type Options struct {
	Username      string
	UsernamesFile string

	Out        string
	Compare    string
	CompareOut string
	Notify     string

	Shuffle  bool
	OnlyNew  bool
	Verbose  bool
	NoColor  bool
	Progress bool

	Match        string
	UAFile       string
	UAMinVersion string
	ConfigFile   string

	Params config.Params
}

const usageText = `
Check whether accounts exist at GMail. The decision is made upon the presence
of the COMPASS cookie in the response.

usage:
  mailcheck (-u USERNAME | -U FILE) [flags]

flags:
  -h, --help                 show this help message and exit
  -u, --username USER        single username
  -U, --usernames FILE       file containing usernames in the format 'user@domain'
  -o, --out FILE             file to output valid results to (default: valid_users.txt)
  -c, --compare FILE         compare the current result against a previous one
      --cmpout FILE          file to output the comparison to (default: cmp_users.txt)
      --only-new             with -c, omit entries missing from the current run
  -x, --proxy URL            proxy for requests (e.g. http://127.0.0.1:8080, socks5://127.0.0.1:9050)
  -t, --max-connections N    maximum simultaneous connections (default: 20)
      --url URL              target URL (default: https://mail.google.com)
      --shuffle              shuffle the user list
      --notify URL           Slack webhook for result notifications (env: MAILCHECK_NOTIFY)
  -s, --sleep SECONDS        sleep this many seconds between tries (default: 0)
  -j, --jitter PERCENT       maximum additional delay over --sleep, in percent (default: 0)
      --rate N               maximum requests per second across all workers (default: unlimited)
  -H, --header "K: V"        extra header to include in the request (repeatable)
  -A, --user-agent NAME      User-Agent to send
      --rua                  send a random User-Agent in each request
      --ua-file FILE         JSON user-agent list used by --rua
      --ua-min-version VER   with --ua-file, skip agents older than VER
      --match REGEX          only check usernames matching REGEX
      --timeout SECONDS      total timeout per request (default: 60)
      --config FILE          YAML file with default values for these flags
      --no-color             disable colored output
      --progress             show a progress bar
  -v, --verbose              print invalid users too

example:
  mailcheck -U ./userlist.txt --url https://<id>.execute-api.us-east-1.amazonaws.com/fireprox \
      -H "X-My-X-Forwarded-For: 127.0.0.1" -o valid-users.txt
`

func Parse(args []string, stdout, stderr io.Writer) (Options, error) {
	opts := Options{Params: config.DefaultParams()}
	p := &opts.Params

	fs := pflag.NewFlagSet("mailcheck", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprint(stdout, usageText)
	}
	fs.SortFlags = false

	fs.StringVarP(&opts.Username, "username", "u", "", "single username")
	fs.StringVarP(&opts.UsernamesFile, "usernames", "U", "", "file containing usernames")
	fs.StringVarP(&opts.Out, "out", "o", "valid_users.txt", "valid results file")
	fs.StringVarP(&opts.Compare, "compare", "c", "", "previous results file")
	fs.StringVar(&opts.CompareOut, "cmpout", "cmp_users.txt", "comparison output file")
	fs.BoolVar(&opts.OnlyNew, "only-new", false, "show only new entries")
	fs.StringVarP(&p.Proxy, "proxy", "x", "", "proxy URL")
	fs.IntVarP(&p.MaxConnections, "max-connections", "t", p.MaxConnections, "maximum simultaneous connections")
	fs.StringVar(&p.BaseURL, "url", p.BaseURL, "target URL")
	fs.BoolVar(&opts.Shuffle, "shuffle", false, "shuffle user list")
	fs.StringVar(&opts.Notify, "notify", "", "Slack webhook URL")
	fs.IntVarP(&p.SleepSeconds, "sleep", "s", 0, "seconds between tries")
	fs.IntVarP(&p.JitterPercent, "jitter", "j", 0, "jitter percent")
	fs.Float64Var(&p.Rate, "rate", 0, "requests per second")
	fs.StringArrayVarP(&p.Headers, "header", "H", nil, "extra header")
	fs.StringVarP(&p.UserAgent, "user-agent", "A", p.UserAgent, "User-Agent")
	fs.BoolVar(&p.RandomUserAgent, "rua", false, "random User-Agent per request")
	fs.StringVar(&opts.UAFile, "ua-file", "", "user-agent list")
	fs.StringVar(&opts.UAMinVersion, "ua-min-version", "", "minimum browser version")
	fs.StringVar(&opts.Match, "match", "", "username filter")
	fs.Float64Var(&p.TimeoutSeconds, "timeout", p.TimeoutSeconds, "request timeout in seconds")
	fs.StringVar(&opts.ConfigFile, "config", "", "YAML config file")
	fs.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	fs.BoolVar(&opts.Progress, "progress", false, "progress bar")
	fs.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return Options{}, ErrHelp
		}
		return Options{}, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	if opts.ConfigFile != "" {
		f, err := config.LoadFile(opts.ConfigFile)
		if err != nil {
			return Options{}, err
		}
		apply(&opts, f, fs.Changed)
	}

	if opts.Notify == "" {
		opts.Notify = strings.TrimSpace(os.Getenv(NotifyEnv))
	}

	if fs.NArg() > 0 {
		return Options{}, fmt.Errorf("%w: unexpected arguments: %s", ErrUsage, strings.Join(fs.Args(), " "))
	}
	switch {
	case opts.Username != "" && opts.UsernamesFile != "":
		return Options{}, fmt.Errorf("%w: -u/--username and -U/--usernames are mutually exclusive", ErrUsage)
	case opts.Username == "" && opts.UsernamesFile == "":
		return Options{}, fmt.Errorf("%w: one of -u/--username or -U/--usernames is required", ErrUsage)
	}

	return opts, nil
}

// apply copies config file values for every flag not set on the command line.
func apply(opts *Options, f config.File, changed func(string) bool) {
	p := &opts.Params
	setString := func(flag string, dst *string, v string) {
		if v != "" && !changed(flag) {
			*dst = v
		}
	}
	setString("url", &p.BaseURL, f.URL)
	setString("out", &opts.Out, f.Out)
	setString("compare", &opts.Compare, f.Compare)
	setString("cmpout", &opts.CompareOut, f.CompareOut)
	setString("proxy", &p.Proxy, f.Proxy)
	setString("user-agent", &p.UserAgent, f.UserAgent)
	setString("ua-file", &opts.UAFile, f.UAFile)
	setString("ua-min-version", &opts.UAMinVersion, f.UAMinVersion)
	setString("match", &opts.Match, f.Match)
	setString("notify", &opts.Notify, f.Notify)

	if f.MaxConnections != nil && !changed("max-connections") {
		p.MaxConnections = *f.MaxConnections
	}
	if f.Timeout != nil && !changed("timeout") {
		p.TimeoutSeconds = *f.Timeout
	}
	if f.Sleep != nil && !changed("sleep") {
		p.SleepSeconds = *f.Sleep
	}
	if f.Jitter != nil && !changed("jitter") {
		p.JitterPercent = *f.Jitter
	}
	if f.Rate != nil && !changed("rate") {
		p.Rate = *f.Rate
	}
	if len(f.Headers) > 0 && !changed("header") {
		p.Headers = f.Headers
	}
	if f.RandomUA != nil && !changed("rua") {
		p.RandomUserAgent = *f.RandomUA
	}
	if f.Shuffle != nil && !changed("shuffle") {
		opts.Shuffle = *f.Shuffle
	}
	if f.OnlyNew != nil && !changed("only-new") {
		opts.OnlyNew = *f.OnlyNew
	}
	if f.Verbose != nil && !changed("verbose") {
		opts.Verbose = *f.Verbose
	}
}
