package engine

import (
	"errors"
	"fmt"
	"time"
)

// Tag classifies an error into a stable string used in results and
// reports.
func Tag(err error) string {
	var (
		te  *TransportError
		jfe *JobFailedError
		jte *JobTimeoutError
		mre *MalformedResultError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &te):
		return "transport_error"
	case errors.As(err, &jfe):
		return "job_failed"
	case errors.As(err, &jte):
		return "job_timeout"
	case errors.As(err, &mre):
		return "malformed_result"
	default:
		return "error"
	}
}

// TransportError wraps a network failure during a remote protocol step
// after retries were exhausted.
type TransportError struct {
	Op  string // protocol step: "create", "upload", "start", "poll", "download"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// JobFailedError reports a server-side terminal failure. Never retried.
type JobFailedError struct {
	JobID   string
	Message string
}

func (e *JobFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("job %s failed on server", e.JobID)
	}
	return fmt.Sprintf("job %s failed on server: %s", e.JobID, e.Message)
}

// JobTimeoutError reports that the polling deadline elapsed before the job
// reached a terminal state. The job is abandoned best-effort.
type JobTimeoutError struct {
	JobID    string
	Deadline time.Duration
}

func (e *JobTimeoutError) Error() string {
	return fmt.Sprintf("job %s did not finish within %s", e.JobID, e.Deadline)
}

// MalformedResultError reports a downloaded result archive with no
// recognizable text entry.
type MalformedResultError struct {
	JobID  string
	Reason string
}

func (e *MalformedResultError) Error() string {
	return fmt.Sprintf("job %s returned a malformed result: %s", e.JobID, e.Reason)
}
