package forwarder

import "fmt"

// ErrorKind classifies why a forwarded request failed. The set is closed;
// callers should switch over it exhaustively rather than treat it as an
// open string.
type ErrorKind int

// The taxonomy mirrors the state the forwarding engine was in, and which
// side (client vs. destination) was responsible, when the failure occurred.
const (
	ErrorKindNone ErrorKind = iota
	ErrorKindRequest
	ErrorKindRequestCanceled
	ErrorKindRequestBodyCanceled
	ErrorKindRequestBodyClient
	ErrorKindRequestBodyDestination
	ErrorKindResponseBodyCanceled
	ErrorKindResponseBodyClient
	ErrorKindResponseBodyDestination
	ErrorKindUpgradeRequestCanceled
	ErrorKindUpgradeRequestClient
	ErrorKindUpgradeRequestDestination
	ErrorKindUpgradeResponseCanceled
	ErrorKindUpgradeResponseClient
	ErrorKindUpgradeResponseDestination
)

var errorKindNames = map[ErrorKind]string{
	ErrorKindNone:                        "None",
	ErrorKindRequest:                     "Request",
	ErrorKindRequestCanceled:             "RequestCanceled",
	ErrorKindRequestBodyCanceled:         "RequestBodyCanceled",
	ErrorKindRequestBodyClient:           "RequestBodyClient",
	ErrorKindRequestBodyDestination:      "RequestBodyDestination",
	ErrorKindResponseBodyCanceled:        "ResponseBodyCanceled",
	ErrorKindResponseBodyClient:          "ResponseBodyClient",
	ErrorKindResponseBodyDestination:     "ResponseBodyDestination",
	ErrorKindUpgradeRequestCanceled:      "UpgradeRequestCanceled",
	ErrorKindUpgradeRequestClient:        "UpgradeRequestClient",
	ErrorKindUpgradeRequestDestination:   "UpgradeRequestDestination",
	ErrorKindUpgradeResponseCanceled:     "UpgradeResponseCanceled",
	ErrorKindUpgradeResponseClient:       "UpgradeResponseClient",
	ErrorKindUpgradeResponseDestination:  "UpgradeResponseDestination",
}

// String returns the taxonomy name of the error kind.
func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error wraps an underlying error with the taxonomy kind that classifies it.
// It is attached to a RequestContext as an ErrorFeature for inspection by
// downstream middleware; it is never returned across the Forward boundary.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an Error of the given kind wrapping err.
func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// ErrorFeature is attached to the inbound response on any failure, carrying
// the classified kind and the underlying error for downstream middleware to
// inspect. It is a plain struct rather than an interface because attaching
// it is the core's responsibility; consuming it belongs to external code.
type ErrorFeature struct {
	Kind ErrorKind
	Err  error
}

// statusCodeForError maps a terminal classification to the HTTP status code
// the engine synthesizes when the failure occurs before response headers
// have been committed to the inbound response. RequestBodyClient is the one
// case attributable to the client, so it alone maps to 400 rather than 502.
func statusCodeForError(kind ErrorKind) int {
	if kind == ErrorKindRequestBodyClient {
		return 400
	}
	return 502
}
