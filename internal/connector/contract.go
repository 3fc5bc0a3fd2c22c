package connector

import (
	"context"
	"net/http"
)

// Integration is the per-flow dispatch contract. Every connector adapter
// implements it once per supported flow; the orchestrator never branches on
// which connector is behind it.
type Integration interface {
	GetHeaders(ctx context.Context, rd *RouterData) (http.Header, error)
	GetContentType() string
	GetURL(rd *RouterData) (string, error)
	GetRequestBody(rd *RouterData) ([]byte, error)
	// BuildRequest composes url/headers/body into an outbound request.
	BuildRequest(ctx context.Context, rd *RouterData) (*http.Request, error)
	// HandleResponse parses a 2xx body into the normalized response data.
	HandleResponse(rd *RouterData, statusCode int, body []byte) (RefundResponseData, error)
	// GetErrorResponse parses a non-2xx body. A non-nil error means the body
	// was unreadable and the dispatcher decides how to degrade it.
	GetErrorResponse(statusCode int, body []byte) (ErrorResponse, error)
}

// Connector exposes its per-flow integrations. A missing flow means the
// adapter does not implement it; the dispatcher turns that into a
// not-implemented failure without calling out.
type Connector interface {
	Name() string
	Integration(flow Flow) (Integration, bool)
}

// AccessTokenProvider is an optional capability. Connectors that need a
// bearer credential before the main call implement it; the dispatcher
// discovers it by type assertion.
type AccessTokenProvider interface {
	FetchAccessToken(ctx context.Context, rd *RouterData) (AccessToken, error)
}
