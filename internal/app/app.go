package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/tdh8316/mailcheck/internal/cli"
	"github.com/tdh8316/mailcheck/internal/config"
	"github.com/tdh8316/mailcheck/internal/data"
	"github.com/tdh8316/mailcheck/internal/httpx"
	"github.com/tdh8316/mailcheck/internal/notify"
	"github.com/tdh8316/mailcheck/internal/output"
	"github.com/tdh8316/mailcheck/internal/results"
	"github.com/tdh8316/mailcheck/internal/scan"
	"github.com/tdh8316/mailcheck/internal/uapool"
)

const (
	exitOK     = 0
	exitFatal  = 1
	exitConfig = 2
)

func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := cli.Parse(args, stdout, stderr)
	if err != nil {
		if errors.Is(err, cli.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err.Error())
		return exitConfig
	}

	color.NoColor = color.NoColor || opts.NoColor

	log := logrus.New()
	log.SetOutput(stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableColors: opts.NoColor, FullTimestamp: true})
	log.SetLevel(logrus.WarnLevel)
	if opts.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	// Everything that can be wrong with the configuration fails here,
	// before the first request.
	cfg, err := config.New(opts.Params)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return exitConfig
	}

	ids, skipped, err := loadIdentifiers(opts)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return exitConfig
	}

	var previous map[string]struct{}
	if opts.Compare != "" {
		previous, err = data.LoadSet(opts.Compare)
		if err != nil {
			fmt.Fprintf(stderr, "compare: %v\n", err)
			return exitConfig
		}
	}

	pool, err := loadPool(opts, cfg)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return exitConfig
	}

	client, err := httpx.NewClient(httpx.ClientConfig{Timeout: cfg.Timeout, Proxy: cfg.Proxy})
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize HTTP client: %v\n", err)
		return exitFatal
	}

	printer := output.NewPrinter(stdout, opts.NoColor, opts.Verbose)
	if opts.Progress {
		printer.EnableProgress(stderr, len(ids))
	}

	set := results.NewSet()
	prober := scan.NewProber(client, cfg, set,
		scan.WithUserAgentPool(pool),
		scan.WithLogger(log.WithField("component", "probe")),
	)
	scanner := scan.NewScanner(prober, cfg.MaxConnections)

	if skipped > 0 {
		printer.Info("Skipped %d users not matching %q.", skipped, opts.Match)
	}
	printer.Plain("There are %d users in total to check.", len(ids))
	printer.Plain("Current date and time: %s", time.Now().Format("2006-01-02 15:04:05"))
	start := time.Now()

	failed := 0
	err = scanner.Run(ctx, ids, func(res scan.Result) {
		if res.Outcome == scan.Failed {
			failed++
		}
		printer.Result(res)
	})
	printer.Finish()
	printer.Plain("Elapsed time: %.3fs", time.Since(start).Seconds())
	if err != nil {
		// Interrupted: the set only holds fully classified identifiers, so
		// what was found so far is still written out.
		log.WithError(err).Warn("run interrupted")
	}
	if failed > 0 {
		log.WithField("count", failed).Warn("some identifiers could not be checked")
	}

	valid := set.Snapshot()
	report := notify.Report{Valid: valid, OnlyNew: opts.OnlyNew}

	if len(valid) > 0 {
		if err := results.WriteLines(opts.Out, valid); err != nil {
			fmt.Fprintln(stderr, err.Error())
			return exitFatal
		}
		printer.Done("Results have been written to %s.", opts.Out)

		if previous != nil {
			report.Compared = true
			report.Diff = results.Compare(valid, previous)
			if !report.Diff.Empty(opts.OnlyNew) {
				if err := results.WriteLines(opts.CompareOut, report.Diff.Lines(opts.OnlyNew)); err != nil {
					fmt.Fprintln(stderr, err.Error())
					return exitFatal
				}
				printer.Done("Comparison results have been written to %s.", opts.CompareOut)
			} else {
				printer.Info("No differences against %s.", opts.Compare)
			}
		}
	} else {
		printer.Info("No valid users found.")
	}

	if opts.Notify != "" {
		sendNotification(ctx, notify.NewSlack(opts.Notify), report, printer, log)
	}

	return exitOK
}

// sendNotification never fails the run: a delivery error is logged and
// dropped here.
func sendNotification(ctx context.Context, n notify.Notifier, report notify.Report, printer *output.Printer, log logrus.FieldLogger) {
	text, ok := notify.Message(report)
	if !ok {
		printer.Warn("Notify option set but nothing to report")
		return
	}
	if err := n.Notify(context.WithoutCancel(ctx), text); err != nil {
		log.WithError(err).Warn("notification not delivered")
	}
}

func loadIdentifiers(opts cli.Options) ([]string, int, error) {
	var ids []string
	if opts.Username != "" {
		ids = data.Literal(opts.Username)
	} else {
		var err error
		if ids, err = data.LoadLines(opts.UsernamesFile); err != nil {
			return nil, 0, err
		}
	}

	skipped := 0
	if opts.Match != "" {
		re, err := data.CompileMatch(opts.Match)
		if err != nil {
			return nil, 0, err
		}
		if ids, skipped, err = data.Filter(ids, re); err != nil {
			return nil, 0, err
		}
	}

	if opts.Shuffle {
		data.Shuffle(ids)
	}
	return ids, skipped, nil
}

func loadPool(opts cli.Options, cfg *config.RunConfig) (uapool.Pool, error) {
	if !cfg.RandomUserAgent {
		return nil, nil
	}
	if opts.UAFile == "" {
		return uapool.Default(), nil
	}

	f, err := os.Open(opts.UAFile)
	if err != nil {
		return nil, fmt.Errorf("user-agent file: %w", err)
	}
	defer f.Close()

	var popts []uapool.Option
	if opts.UAMinVersion != "" {
		popts = append(popts, uapool.MinVersion(opts.UAMinVersion))
	}
	pool, err := uapool.LoadJSON(f, popts...)
	if err != nil {
		return nil, fmt.Errorf("user-agent file %s: %w", opts.UAFile, err)
	}
	return pool, nil
}
