package scan

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

type Scanner struct {
	prober   *Prober
	maxConns int
}

func NewScanner(prober *Prober, maxConns int) *Scanner {
	if maxConns <= 0 {
		maxConns = 1
	}
	return &Scanner{prober: prober, maxConns: maxConns}
}

// Run probes every identifier once. All probes start immediately but at most
// maxConns of them are dispatching at any instant. onResult is called from
// Run's goroutine, one result at a time, in completion order. Run returns
// after every probe has reached a terminal state.
func (s *Scanner) Run(ctx context.Context, ids []string, onResult func(Result)) error {
	if onResult == nil {
		return fmt.Errorf("onResult callback is nil")
	}
	if len(ids) == 0 {
		return nil
	}

	slots := semaphore.NewWeighted(int64(s.maxConns))
	results := make(chan Result, s.maxConns)

	var wg sync.WaitGroup
	wg.Add(len(ids))
	for i, id := range ids {
		go func() {
			defer wg.Done()
			results <- s.prober.run(ctx, i, id, slots)
		}()
	}

	// Close results once every probe is terminal.
	go func() {
		defer close(results)
		wg.Wait()
	}()

	for res := range results {
		onResult(res)
	}

	return ctx.Err()
}
