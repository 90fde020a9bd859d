package storage

import (
	"errors"
	"fmt"
)

// ErrWriteFailure is matched by every *WriteFailure.
var ErrWriteFailure = errors.New("flash write failed")

// WriteFailure reports a block write that did not verify or could not be
// performed. The previously persisted record may be gone, but nothing
// half-written is ever accepted because records are checksummed.
type WriteFailure struct {
	Op  string
	Err error
}

func (e *WriteFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("flash write failed during %s: %v", e.Op, e.Err)
	}
	return "flash write failed during " + e.Op
}

func (e *WriteFailure) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrWriteFailure}
	}
	return []error{ErrWriteFailure, e.Err}
}

// CorruptionReason says which part of a record failed its check.
type CorruptionReason string

const (
	ReasonEmpty    CorruptionReason = "empty"
	ReasonMagic    CorruptionReason = "magic"
	ReasonVersion  CorruptionReason = "version"
	ReasonLength   CorruptionReason = "length"
	ReasonChecksum CorruptionReason = "checksum"
	ReasonPayload  CorruptionReason = "payload"
)

// CorruptionError reports a persisted record that cannot be trusted.
type CorruptionError struct {
	Reason CorruptionReason
	Detail string
}

func (e *CorruptionError) Error() string {
	if e.Detail == "" {
		return "corrupt record: " + string(e.Reason)
	}
	return fmt.Sprintf("corrupt record: %s: %s", e.Reason, e.Detail)
}
