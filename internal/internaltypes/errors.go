package internaltypes

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// Portal handshake and polling.
	ErrVerificationFailed = errors.New("identity verification failed")
	ErrSessionInvalid     = errors.New("session invalid")

	ErrRetriesExhausted = errors.New("retry attempts exhausted")
	ErrNoOffices        = errors.New("no offices to query")
)
