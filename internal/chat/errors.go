package chat

import "errors"

// Domain error kinds. Handlers map these to HTTP statuses; the websocket
// dispatcher reports them back on the connection.
var (
	// ErrAuthRequired means no identity is bound to the caller.
	ErrAuthRequired = errors.New("auth_required")

	// ErrForbidden means the caller is not allowed to perform the action
	// (non-member group action, non-owner group management, non-creator
	// note edit).
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not_found")

	// ErrValidation means the input is malformed. Wrap with detail:
	// fmt.Errorf("%w: empty text", ErrValidation).
	ErrValidation = errors.New("validation")

	// ErrEmptyMessage is returned for a send with neither text nor
	// attachments. Surfaced to the caller rather than silently dropped,
	// so the sender learns that nothing was sent.
	ErrEmptyMessage = errors.New("empty_message")
)
