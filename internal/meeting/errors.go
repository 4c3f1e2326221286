package meeting

import "errors"

var (
	// ErrNotAuthorized means the invoking chat user is not an operator.
	ErrNotAuthorized = errors.New("meeting: only authorized users can manage meetings")

	// ErrNoPending means start was invoked with no meeting id and the
	// operator has no meeting waiting in setup mode.
	ErrNoPending = errors.New("meeting: no pending meeting to start")

	// ErrMeetingIDRequired means stop was invoked without a meeting id.
	ErrMeetingIDRequired = errors.New("meeting: a meeting id is required")
)
