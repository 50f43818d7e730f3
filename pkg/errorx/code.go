package errorx

import "net/http"

type Code int

var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest       Code = 100001
	BadResponse      Code = 100002
	PermissionDenied Code = 100003
	NotFound         Code = 100004
	Unauthenticated  Code = 100005
	AlreadyExists    Code = 100006
	Internal         Code = 100007
	Unavailable      Code = 100008
	NotImplemented   Code = 100009
	TooManyRequests  Code = 100010
	Conflict         Code = 100011

	// Drop codes
	DropOpened     Code = 200001
	GiftSelected   Code = 200002
	InvalidStage   Code = 200003
	NoSuggestions  Code = 300001
	UpstreamFailed Code = 300002
)

// HTTPStatus maps a code to the status written alongside the response
// envelope.
func (c Code) HTTPStatus() int {
	switch c {
	case BadRequest:
		return http.StatusBadRequest
	case PermissionDenied:
		return http.StatusForbidden
	case NotFound, NoSuggestions:
		return http.StatusNotFound
	case Unauthenticated:
		return http.StatusUnauthorized
	case AlreadyExists, Conflict, DropOpened, GiftSelected, InvalidStage:
		return http.StatusConflict
	case Unavailable, UpstreamFailed:
		return http.StatusServiceUnavailable
	case NotImplemented:
		return http.StatusNotImplemented
	case TooManyRequests:
		return http.StatusTooManyRequests
	case BadResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
