package output

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/tdh8316/mailcheck/internal/scan"
)

type Printer struct {
	noColor bool
	verbose bool

	mu     sync.Mutex
	logger *log.Logger
	bar    *progressbar.ProgressBar // optional
}

func NewPrinter(stdout io.Writer, noColor, verbose bool) *Printer {
	return &Printer{
		noColor: noColor,
		verbose: verbose,
		logger:  log.New(stdout, "", 0),
	}
}

// EnableProgress draws a progress bar on w, advanced once per result.
func (p *Printer) EnableProgress(w io.Writer, total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(!p.noColor),
		progressbar.OptionSetDescription("Probing..."),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (p *Printer) Result(result scan.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Add(1)
	}

	switch result.Outcome {
	case scan.Valid:
		if p.noColor {
			p.logger.Printf("[%s] %s VALID!", "+", result.Identifier)
		} else {
			p.logger.Printf("[%s] %s", color.HiGreenString("+"), color.GreenString("%s VALID!", result.Identifier))
		}

	case scan.Invalid:
		if !p.verbose {
			return
		}
		if p.noColor {
			p.logger.Printf("[%s] %s invalid!", "-", result.Identifier)
		} else {
			p.logger.Printf("[%s] %s", color.HiRedString("-"), color.RedString("%s invalid!", result.Identifier))
		}

	case scan.Failed:
		msg := "unknown error"
		if result.Err != nil {
			msg = result.Err.Error()
		}
		if p.noColor {
			p.logger.Printf("[%s] %s: ERROR: %s", "!", result.Identifier, msg)
		} else {
			p.logger.Printf("[%s] %s: %s: %s",
				color.HiRedString("!"),
				result.Identifier,
				color.HiMagentaString("ERROR"),
				color.HiRedString("%s", msg),
			)
		}
	}
}

// Finish completes the progress bar, if any.
func (p *Printer) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func (p *Printer) Info(format string, args ...any) {
	p.line("i", color.HiBlueString, format, args...)
}

func (p *Printer) Warn(format string, args ...any) {
	p.line("!", color.HiRedString, format, args...)
}

func (p *Printer) Done(format string, args ...any) {
	p.line("+", color.HiGreenString, format, args...)
}

// Plain prints without a tag.
func (p *Printer) Plain(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger.Printf(format, args...)
}

func (p *Printer) line(tag string, paint func(string, ...any) string, format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if p.noColor {
		p.logger.Printf("[%s] %s", tag, msg)
		return
	}
	p.logger.Printf("[%s] %s", paint(tag), msg)
}
