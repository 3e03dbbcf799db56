// Package catalogerr defines the error taxonomy shared by the catalog,
// fragment engine, and deletion journal.
//
// Errors fall into two groups: user-visible sentinel kinds that a
// transaction body returns to abort with (Unauthorized, NotFound,
// BadRequest, EmailTaken, FileExists) and infrastructure kinds that
// propagate and are retried or surfaced as server errors (Storage, IO,
// Serialization). Callers compare with errors.Is against the sentinel
// values below; infrastructure errors are wrapped with %w so the
// underlying cause survives.
package catalogerr

import "errors"

var (
	// ErrUnauthorized means the caller's session or role does not permit
	// the requested operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound means the named entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrBadRequest means the request shape itself is invalid (malformed
	// key, unknown fragment id, etc).
	ErrBadRequest = errors.New("bad request")

	// ErrEmailTaken means a sign-up used an email already bound to a user.
	ErrEmailTaken = errors.New("email taken")

	// ErrFileExists means an upload's (owner, name) pair already has a
	// file record.
	ErrFileExists = errors.New("file exists")

	// ErrStorage wraps an underlying KV store failure.
	ErrStorage = errors.New("storage error")

	// ErrIO wraps an underlying filesystem failure.
	ErrIO = errors.New("io error")

	// ErrSerialization wraps a JSON marshal/unmarshal failure.
	ErrSerialization = errors.New("serialization error")
)

// Kind classifies an error for HTTP-status mapping by an external
// collaborator. The core itself never imports net/http.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindNotFound
	KindBadRequest
	KindEmailTaken
	KindFileExists
	KindServer
)

// Classify maps err to the Kind a request handler would translate to an
// HTTP status: Unauthorized->401, NotFound->404,
// BadRequest|EmailTaken|FileExists|Serialization->400, everything else->500.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrBadRequest):
		return KindBadRequest
	case errors.Is(err, ErrEmailTaken):
		return KindEmailTaken
	case errors.Is(err, ErrFileExists):
		return KindFileExists
	case errors.Is(err, ErrSerialization):
		return KindBadRequest
	default:
		return KindServer
	}
}

// Retryable reports whether the store's transaction runner should retry
// the body that produced err rather than surface it. Only storage
// conflicts are retryable; every sentinel user error aborts immediately.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrFileExists):
		return false
	default:
		return errors.Is(err, ErrStorage)
	}
}
