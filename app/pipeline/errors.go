package pipeline

import (
	"fmt"
)

// UpstreamError is returned by a Source when messages could not be read. It
// aborts the run before the sync state is touched. StatusCode is zero for
// transport and decoding failures.
type UpstreamError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
