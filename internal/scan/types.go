package scan

import "time"

// CompassCookie marks an existing account.
const CompassCookie = "COMPASS"

type Outcome int

const (
	Invalid Outcome = iota
	Valid
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// State is a step of a single probe.
//
//	Pending -> [Delaying] -> Dispatching -> Success
//	                         Dispatching -> Retry -> Dispatching | Exhausted
type State int

const (
	Pending State = iota
	Delaying
	Dispatching
	Retry
	Success
	Exhausted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Delaying:
		return "delaying"
	case Dispatching:
		return "dispatching"
	case Retry:
		return "retry"
	case Success:
		return "success"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

func (s State) Terminal() bool {
	return s == Success || s == Exhausted
}

type Result struct {
	Identifier string
	Index      int

	Outcome  Outcome
	Attempts int
	Err      error // last transport error when Outcome == Failed
	Elapsed  time.Duration
}

type Transition struct {
	Identifier string
	From, To   State
	Attempts   int
}

// Inserter receives identifiers classified as valid.
type Inserter interface {
	Insert(id string) bool
}
