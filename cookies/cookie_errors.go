package cookies

import "errors"

var (
	NotFoundErr      = errors.New("cookie set not found")
	CorruptRecordErr = errors.New("corrupt cookie record")
)

// Reason codes reported on invalid validation results. The HTTP layer maps
// these to status codes; the core only ever returns them in outcomes.
const (
	ReasonNoCookies    = "NO_COOKIES"
	ReasonCorruptStore = "CORRUPT_STORE"
)
