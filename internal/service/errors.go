package service

import "errors"

var (
	// ErrNotFound is returned when a referenced id does not resolve.
	ErrNotFound = errors.New("resource not found")

	// ErrLockout is returned when a student terminated at or above the
	// warning threshold attempts to rejoin the same exam. Permanent.
	ErrLockout = errors.New("student has been terminated from this exam due to violations")

	// ErrSessionInactive is returned when a violation arrives for a
	// session that has already been closed.
	ErrSessionInactive = errors.New("student session is no longer active")

	// ErrExamClosed is returned when a student attempts to join an exam
	// that has ended.
	ErrExamClosed = errors.New("exam session is closed")
)
