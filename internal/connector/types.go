package connector

import "time"

// Flow selects which integration of a connector handles the call.
type Flow string

const (
	FlowExecute Flow = "Execute" // create the refund on the processor
	FlowRSync   Flow = "RSync"   // poll refund status
)

// Connector-normalized refund verdicts. Adapters translate whatever the
// processor reports into one of these; the state machine maps them onto the
// persisted refund status.
const (
	RefundStatusPending      = "pending"
	RefundStatusSuccess      = "success"
	RefundStatusFailure      = "failure"
	RefundStatusManualReview = "manual_review"
)

// RefundRequestData is the flow-specific request payload. Execute uses the
// transaction reference of the original payment; RSync additionally needs the
// processor-side refund reference.
type RefundRequestData struct {
	RefundID               string // our id, sent as the processor-side idempotency reference
	ConnectorTransactionID string
	ConnectorRefundID      string // set for RSync only
	Amount                 int64  // minor units
	PaymentAmount          int64  // original captured amount, minor units
	Currency               string
	Reason                 string
}

// RefundResponseData is the parsed success outcome of a dispatch.
type RefundResponseData struct {
	ConnectorRefundID string
	Status            string // one of the RefundStatus* verdicts
	Amount            int64
	Currency          string
	RawStatus         string // processor's own status string, for diagnostics
}

// ErrorResponse is the parsed failure outcome of a dispatch (processor said no).
type ErrorResponse struct {
	Code       string
	Message    string
	StatusCode int
}

type AccessToken struct {
	Token     string
	ExpiresIn int64 // seconds
	CreatedAt time.Time
}

func (t AccessToken) Expired(now time.Time) bool {
	return now.After(t.CreatedAt.Add(time.Duration(t.ExpiresIn) * time.Second))
}

// RouterData carries one dispatch call end to end: the flow marker, the
// request, the outcome (Response xor Error), and cross-cutting call state.
// It is owned by a single call and never persisted.
type RouterData struct {
	Flow                Flow
	Connector           string
	MerchantID          string
	MerchantConnectorID string
	RefundID            string
	PaymentID           string

	Request RefundRequestData

	Response *RefundResponseData
	Error    *ErrorResponse

	AccessToken *AccessToken
	HTTPStatus  int // status code of the main call, 0 if it never went out
}

// Succeeded reports whether the dispatch produced a parsed success response.
func (rd *RouterData) Succeeded() bool { return rd.Response != nil }
