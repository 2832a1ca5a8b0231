package feed

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrSourceNotFound  = errors.New("feed source not found")
)

// FetchError reports a failed retrieval of one source. StatusCode is set
// only when the server answered with a non-2xx status.
type FetchError struct {
	Source     string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// SnapshotMessage is the operator-facing text stored on a degraded snapshot.
func (e *FetchError) SnapshotMessage() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("Feed temporarily unavailable: %v", e.Err)
}
