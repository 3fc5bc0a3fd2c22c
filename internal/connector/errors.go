package connector

import "fmt"

// ErrorKind classifies dispatch failures that happen before or instead of a
// processor verdict. These never go through status mapping.
type ErrorKind string

const (
	KindNotImplemented ErrorKind = "not_implemented" // flow missing on this adapter
	KindNotSupported   ErrorKind = "not_supported"   // adapter refuses the request shape
	KindAccessToken    ErrorKind = "access_token"    // token pre-flight failed
	KindTimeout        ErrorKind = "timeout"         // main call timed out
	KindRequestFailed  ErrorKind = "request_failed"  // network-level failure
	KindParseFailed    ErrorKind = "parse_failed"    // 2xx body we could not read
)

type Error struct {
	Kind      ErrorKind
	Connector string
	Flow      Flow
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connector %s %s: %s: %v", e.Connector, e.Flow, e.Kind, e.Err)
	}
	return fmt.Sprintf("connector %s %s: %s", e.Connector, e.Flow, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, name string, flow Flow, err error) *Error {
	return &Error{Kind: kind, Connector: name, Flow: flow, Err: err}
}
