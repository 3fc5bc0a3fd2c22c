package refunds

import (
	"fmt"

	"finrota.com/app/internal/connector"
	"finrota.com/app/internal/integrity"
)

// transition is the state-machine verdict for one dispatch outcome.
// Updates is the full-row mutation to persist. Infra, when set, means the
// processor's verdict is unknown: the refund stays Pending and the error is
// propagated so the scheduler retries.
type transition struct {
	Status  string // resulting status, for metrics/logging ("" = unchanged)
	Updates map[string]any
	Infra   error
}

func fromConnectorStatus(s string) string {
	switch s {
	case connector.RefundStatusSuccess:
		return StatusSuccess
	case connector.RefundStatusFailure:
		return StatusFailure
	case connector.RefundStatusManualReview:
		return StatusManualReview
	default:
		return StatusPending
	}
}

// outcomeFromDispatchError handles failures where the processor was never
// consulted or its answer never arrived.
func outcomeFromDispatchError(derr *connector.Error) transition {
	switch derr.Kind {
	case connector.KindNotImplemented, connector.KindNotSupported:
		// Adapter-level refusal: terminal, and the error unifier is not
		// consulted (there is no connector code to unify).
		msg := "refund flow not implemented or not supported by connector"
		return transition{
			Status: StatusFailure,
			Updates: map[string]any{
				"status":        StatusFailure,
				"error_code":    CodeNotImplemented,
				"error_message": msg,
			},
		}
	case connector.KindTimeout, connector.KindRequestFailed, connector.KindParseFailed:
		// The call went out; the processor may have moved money. Only a later
		// sync is authoritative, so the refund stays Pending.
		return transition{
			Updates: map[string]any{"sent_to_gateway": true},
			Infra:   derr,
		}
	default:
		// Token pre-flight failed; nothing was sent.
		return transition{Infra: derr}
	}
}

// outcomeFromErrorResponse handles a processor-reported decline. The raw pair
// is stored next to its unified translation.
func outcomeFromErrorResponse(er *connector.ErrorResponse, unifiedCode, unifiedMessage string) transition {
	return transition{
		Status: StatusFailure,
		Updates: map[string]any{
			"status":          StatusFailure,
			"sent_to_gateway": true,
			"error_code":      er.Code,
			"error_message":   er.Message,
			"unified_code":    unifiedCode,
			"unified_message": unifiedMessage,
		},
	}
}

// outcomeFromResponse handles a parsed 2xx. An integrity mismatch on 2xx is a
// genuine processor-side failure, never silently accepted.
func outcomeFromResponse(resp *connector.RefundResponseData, check integrity.Result) transition {
	updates := map[string]any{"sent_to_gateway": true}
	if resp.ConnectorRefundID != "" {
		updates["connector_refund_id"] = resp.ConnectorRefundID
	}

	if !check.OK() {
		msg := fmt.Sprintf("integrity check failed on: %s", check.FieldList())
		if check.ConnectorTransactionID != "" {
			msg += fmt.Sprintf(" (connector transaction %s)", check.ConnectorTransactionID)
		}
		updates["status"] = StatusFailure
		updates["error_code"] = CodeIntegrity
		updates["error_message"] = msg
		return transition{Status: StatusFailure, Updates: updates}
	}

	status := fromConnectorStatus(resp.Status)
	updates["status"] = status
	if status == StatusSuccess {
		updates["error_code"] = nil
		updates["error_message"] = nil
		updates["unified_code"] = nil
		updates["unified_message"] = nil
	}
	return transition{Status: status, Updates: updates}
}
