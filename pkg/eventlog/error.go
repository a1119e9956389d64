package eventlog

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned when a frame append or persist is attempted on
// a session that has already been saved.
var ErrSessionClosed = errors.New("session is saved and closed to writes")

// NotFoundError is returned when no persisted log exists for a session.
type NotFoundError struct {
	SessionID string
}

func (e NotFoundError) Error() string {
	if e.SessionID == "" {
		return "session not found"
	}
	return "session not found: " + e.SessionID
}

// CorruptLogError is returned when a persisted frame record fails to parse.
// Replay aborts at the first corrupt record; partial frame sequences are
// never returned.
type CorruptLogError struct {
	SessionID string
	Line      int
	Err       error
}

func (e CorruptLogError) Error() string {
	return fmt.Sprintf("corrupt log for session %s at line %d: %v", e.SessionID, e.Line, e.Err)
}

func (e CorruptLogError) Unwrap() error {
	return e.Err
}

// ChecksumMismatchError is returned when an export package's checksum does not
// match the recomputed value over its frames.
type ChecksumMismatchError struct {
	Want string
	Got  string
}

func (e ChecksumMismatchError) Error() string {
	return fmt.Sprintf("export checksum mismatch: package says %s, frames hash to %s", e.Want, e.Got)
}
