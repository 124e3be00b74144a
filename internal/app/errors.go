package app

import "errors"

var (
	// ErrValidation indicates malformed input; the caller can retry with
	// corrected input.
	ErrValidation = errors.New("validation failed")
	// ErrUnsupportedFileType rejects uploads outside the tabular allow-list.
	// The whole batch aborts; there is no partial acceptance.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrNotFound indicates a referenced project/chat/dataset is absent.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the principal lacks the required team role.
	ErrForbidden = errors.New("forbidden")
	// ErrUpstream indicates object storage or the LLM gateway failed.
	ErrUpstream = errors.New("upstream failure")
	// ErrNoPendingMessage indicates a reply was requested for a chat with
	// no unanswered human message.
	ErrNoPendingMessage = errors.New("no pending message")
)

// UnsupportedFileTypeMessage is the fixed human-readable rejection text.
const UnsupportedFileTypeMessage = "Unsupported file type. Allowed: csv, xls, xlsx."
