package farm

import (
	"fmt"
	"strings"
)

// RemoteWriteError is returned when a create or update against the resource API
// or the local plan store fails
type RemoteWriteError struct {
	Op         string
	StatusCode int // zero for transport failures
	Err        error
}

func (e *RemoteWriteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote write %s failed (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("remote write %s failed: %v", e.Op, e.Err)
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned when an addressed record does not exist
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// PartialBatchError reports that some creations of a task batch failed.
// Records that did get created are not rolled back.
type PartialBatchError struct {
	Resource string
	Total    int
	Failed   []int // input indexes
	Errs     []error
}

func (e *PartialBatchError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for i, err := range e.Errs {
		msgs = append(msgs, fmt.Sprintf("#%d: %v", e.Failed[i], err))
	}
	return fmt.Sprintf("%d of %d %s failed to save: %s", len(e.Failed), e.Total, e.Resource, strings.Join(msgs, "; "))
}

// Unwrap exposes the individual failures to errors.Is / errors.As
func (e *PartialBatchError) Unwrap() []error {
	return e.Errs
}
