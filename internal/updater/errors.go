package updater

import (
	"errors"
	"fmt"
)

var (
	ErrUpdateInProgress = errors.New("an update is already in progress")
	// ErrNotConfigured is wrapped by every missing-precondition error.
	ErrNotConfigured   = errors.New("not configured")
	ErrNoRegion        = fmt.Errorf("%w: no region selected", ErrNotConfigured)
	ErrNoDestination   = fmt.Errorf("%w: no destination folder", ErrNotConfigured)
	ErrArchiveTooLarge = errors.New("archive exceeds size limit")
)

// Step names a pipeline stage.
type Step string

const (
	StepDownload Step = "download"
	StepStage    Step = "stage"
	StepExtract  Step = "extract"
	StepCommit   Step = "commit"
)

// StepError records which stage of an update failed.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// NetworkError is a transport failure or a non-2xx response. StatusCode
// is zero for transport failures.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ExtractionError is a failure to read the archive or write one of its
// entries. Entry is empty when the archive itself is unreadable.
type ExtractionError struct {
	Entry string
	Err   error
}

func (e *ExtractionError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("extract archive: %v", e.Err)
	}
	return fmt.Sprintf("extract %s: %v", e.Entry, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
