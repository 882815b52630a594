package output

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tdh8316/mailcheck/internal/scan"
)

func TestPrinterPlain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true, false)

	p.Result(scan.Result{Identifier: "a@x.com", Outcome: scan.Valid})
	p.Result(scan.Result{Identifier: "b@x.com", Outcome: scan.Invalid})
	p.Result(scan.Result{Identifier: "c@x.com", Outcome: scan.Failed, Err: errors.New("connection refused")})

	assert.Equal(t,
		"[+] a@x.com VALID!\n"+
			"[!] c@x.com: ERROR: connection refused\n",
		buf.String())
}

func TestPrinterVerboseShowsInvalid(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true, true)

	p.Result(scan.Result{Identifier: "b@x.com", Outcome: scan.Invalid})
	p.Info("There are %d users in total to check.", 2)

	assert.Equal(t,
		"[-] b@x.com invalid!\n"+
			"[i] There are 2 users in total to check.\n",
		buf.String())
}

func TestPrinterProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true, false)
	p.EnableProgress(io.Discard, 2)

	p.Result(scan.Result{Identifier: "a@x.com", Outcome: scan.Invalid})
	p.Result(scan.Result{Identifier: "b@x.com", Outcome: scan.Valid})
	p.Finish()

	assert.Equal(t, "[+] b@x.com VALID!\n", buf.String())
}
