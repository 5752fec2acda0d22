package pipeline

import (
	"fmt"
	"time"
)

// Stage names the step of the per-link state machine a link reached.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageExtract Stage = "extract"
	StageResolve Stage = "resolve"
	StagePersist Stage = "persist"
)

// StageError records at which stage a link's pipeline instance failed.
type StageError struct {
	Stage Stage
	URL   string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Stage, e.URL, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// LinkReport describes the outcome for one discovered link.
type LinkReport struct {
	URL       string
	Stage     Stage
	ArticleID int64
	// Created is false when the article's link was already persisted by an
	// earlier run and the existing row was reused.
	Created bool
	Images  int
	Err     error
}

// Failed reports whether the link's pipeline instance ended in an error.
func (l LinkReport) Failed() bool {
	return l.Err != nil
}

// RunReport aggregates one best-effort ingestion run.
type RunReport struct {
	RunID            string
	ListingURL       string
	Discovered       int
	Persisted        int
	AlreadyPersisted int
	Failed           int
	Links            []LinkReport
	Started          time.Time
	Finished         time.Time
}
