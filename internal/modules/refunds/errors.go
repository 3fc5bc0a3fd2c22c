package refunds

// Stable machine-readable codes surfaced to callers. The numbering never
// changes once published.
const (
	CodePaymentNotFound  = "RE_01"
	CodeNotRefundable    = "RE_02"
	CodeInvalidAmount    = "RE_03"
	CodePaymentStale     = "RE_04"
	CodeAmountExceeded   = "RE_05"
	CodeMaxAttempts      = "RE_06"
	CodeDuplicateRequest = "RE_07"
	CodeRefundNotFound   = "RE_08"

	// CodeNotImplemented marks a dispatch that failed because the connector
	// adapter does not support the flow. Assigned directly, never via GSM.
	CodeNotImplemented = "IR_00"
	// CodeIntegrity marks a 2xx response that disagreed with the request.
	CodeIntegrity = "IE_00"
)
