package service

import "errors"

var (
	// ErrQuotaExceeded is an expected outcome, not a failure: the user's
	// billing-period allowance is spent.
	ErrQuotaExceeded = errors.New("session quota exceeded")

	// ErrInvalidTransition means a lifecycle move against stale state, e.g.
	// starting an already-ended session.
	ErrInvalidTransition = errors.New("invalid session state transition")

	// ErrSessionNotFound means the session id resolves to nothing.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionEnded rejects joins and turn submissions against a session
	// that already reached its terminal state.
	ErrSessionEnded = errors.New("session has ended")

	// ErrInvalidRole rejects a role outside STUDENT/HOST/REVIEWER.
	ErrInvalidRole = errors.New("invalid participant role")

	// ErrNoActiveQuestion rejects an answer submitted before any question
	// was posted in the session.
	ErrNoActiveQuestion = errors.New("no active question in session")

	// ErrQuestionNotFound means the question id resolves to nothing.
	ErrQuestionNotFound = errors.New("question not found")
)
