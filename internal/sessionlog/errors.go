package sessionlog

import "errors"

var (
	// ErrLogsNotFound means no session log exists yet. Callers treat it as "no data".
	ErrLogsNotFound = errors.New("session logs not found")
	// ErrTruncated means the tracked file is now shorter than the reader's offset.
	ErrTruncated = errors.New("session log truncated")
)
