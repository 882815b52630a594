package data

import (
	"bufio"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"
)

const maxLineBytes = 1 << 20

// Literal wraps a single identifier given on the command line.
func Literal(id string) []string {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return []string{id}
}

// LoadLines reads one identifier per line, keeping file order.
func LoadLines(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "open identifier list")
	}
	defer f.Close()

	ids, err := ReadLines(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", filename)
	}
	return ids, nil
}

// ReadLines strips surrounding whitespace and skips blank lines.
func ReadLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var out []string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func Shuffle(ids []string) {
	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

// CompileMatch compiles a --match expression.
func CompileMatch(expr string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(expr, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid match expression %q", expr)
	}
	return re, nil
}

// Filter keeps the identifiers matching re and returns how many were dropped.
// A nil re keeps everything.
func Filter(ids []string, re *regexp2.Regexp) ([]string, int, error) {
	if re == nil {
		return ids, 0, nil
	}
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		ok, err := re.MatchString(id)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "match %q", id)
		}
		if ok {
			kept = append(kept, id)
		}
	}
	return kept, len(ids) - len(kept), nil
}

// LoadSet reads a previous result file into a set.
func LoadSet(filename string) (map[string]struct{}, error) {
	ids, err := LoadLines(filename)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
