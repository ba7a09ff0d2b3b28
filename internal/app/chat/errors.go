// internal/app/chat/errors.go
package chat

import "errors"

// Business errors returned by the chat service. Callers compare with
// errors.Is; the service wraps them with context where it helps logs.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrWindowExpired   = errors.New("edit window expired")
	ErrAlreadyDeleted  = errors.New("message already deleted")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Kind returns a short label for err, used for metrics and log fields.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrWindowExpired):
		return "window_expired"
	case errors.Is(err, ErrAlreadyDeleted):
		return "already_deleted"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "error"
	}
}

// IsBusiness reports whether err is one of the business-rule errors above,
// as opposed to a store or infrastructure failure.
func IsBusiness(err error) bool {
	k := Kind(err)
	return k != "ok" && k != "error"
}
