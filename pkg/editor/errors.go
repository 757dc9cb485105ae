package editor

import "errors"

var (
	// ErrRunInProgress indicates a run was requested while another is executing.
	ErrRunInProgress = errors.New("run already in progress")

	// ErrNoRunInProgress indicates a cancel request with nothing running.
	ErrNoRunInProgress = errors.New("no run in progress")

	// ErrSessionNotFound indicates an unknown session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSaveUnavailable indicates a session opened without a document store.
	ErrSaveUnavailable = errors.New("session has no document store")
)
