// Package integrity verifies that the connector's account of a refund agrees
// with the request that produced it. A mismatch is as severe as a declared
// failure: the processor is describing a different transaction than the one
// we asked for.
package integrity

import (
	"strings"

	"finrota.com/app/internal/connector"
)

type Result struct {
	MismatchedFields       []string
	ConnectorTransactionID string
}

func (r Result) OK() bool { return len(r.MismatchedFields) == 0 }

func (r Result) FieldList() string { return strings.Join(r.MismatchedFields, ", ") }

// CheckRefund compares the fixed field set (refund id, amount, currency)
// against the parsed response. Fields the connector did not echo back are not
// compared; only a present-but-different value counts as a mismatch.
func CheckRefund(req connector.RefundRequestData, resp connector.RefundResponseData) Result {
	var mismatched []string

	if req.ConnectorRefundID != "" && resp.ConnectorRefundID != "" &&
		req.ConnectorRefundID != resp.ConnectorRefundID {
		mismatched = append(mismatched, "connector_refund_id")
	}
	if resp.Amount != 0 && resp.Amount != req.Amount {
		mismatched = append(mismatched, "amount")
	}
	if resp.Currency != "" && resp.Currency != req.Currency {
		mismatched = append(mismatched, "currency")
	}

	return Result{
		MismatchedFields:       mismatched,
		ConnectorTransactionID: req.ConnectorTransactionID,
	}
}
