package refunds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finrota.com/app/internal/connector"
	"finrota.com/app/internal/integrity"
)

func TestOutcomeFromDispatchErrorNotImplemented(t *testing.T) {
	for _, kind := range []connector.ErrorKind{connector.KindNotImplemented, connector.KindNotSupported} {
		t.Run(string(kind), func(t *testing.T) {
			tr := outcomeFromDispatchError(&connector.Error{Kind: kind, Connector: "mockpay", Flow: connector.FlowExecute})

			assert.Equal(t, StatusFailure, tr.Status)
			assert.NoError(t, tr.Infra)
			assert.Equal(t, StatusFailure, tr.Updates["status"])
			assert.Equal(t, CodeNotImplemented, tr.Updates["error_code"])
		})
	}
}

func TestOutcomeFromDispatchErrorAmbiguous(t *testing.T) {
	// The call may have reached the processor. Verdict unknown, refund stays
	// Pending, the only persisted fact is that a dispatch went out.
	for _, kind := range []connector.ErrorKind{connector.KindTimeout, connector.KindRequestFailed, connector.KindParseFailed} {
		t.Run(string(kind), func(t *testing.T) {
			tr := outcomeFromDispatchError(&connector.Error{Kind: kind, Connector: "mockpay", Flow: connector.FlowExecute})

			assert.Empty(t, tr.Status)
			assert.Error(t, tr.Infra)
			assert.Equal(t, map[string]any{"sent_to_gateway": true}, tr.Updates)
		})
	}
}

func TestOutcomeFromDispatchErrorTokenPreflight(t *testing.T) {
	tr := outcomeFromDispatchError(&connector.Error{Kind: connector.KindAccessToken, Connector: "mockpay", Flow: connector.FlowExecute})

	// nothing was sent, so nothing is recorded
	assert.Empty(t, tr.Status)
	assert.Empty(t, tr.Updates)
	assert.Error(t, tr.Infra)
}

func TestOutcomeFromErrorResponse(t *testing.T) {
	tr := outcomeFromErrorResponse(
		&connector.ErrorResponse{Code: "51", Message: "insufficient_funds", StatusCode: 402},
		"INSUFFICIENT_FUNDS", "the account has insufficient funds",
	)

	assert.Equal(t, StatusFailure, tr.Status)
	assert.NoError(t, tr.Infra)
	assert.Equal(t, StatusFailure, tr.Updates["status"])
	assert.Equal(t, true, tr.Updates["sent_to_gateway"])
	assert.Equal(t, "51", tr.Updates["error_code"])
	assert.Equal(t, "insufficient_funds", tr.Updates["error_message"])
	assert.Equal(t, "INSUFFICIENT_FUNDS", tr.Updates["unified_code"])
}

func TestOutcomeFromResponseSuccessClearsErrors(t *testing.T) {
	resp := &connector.RefundResponseData{ConnectorRefundID: "R-1", Status: connector.RefundStatusSuccess, Amount: 2500, Currency: "EUR"}

	tr := outcomeFromResponse(resp, integrity.Result{})

	assert.Equal(t, StatusSuccess, tr.Status)
	assert.Equal(t, StatusSuccess, tr.Updates["status"])
	assert.Equal(t, "R-1", tr.Updates["connector_refund_id"])

	// a successful re-sync wipes any stale decline from an earlier attempt
	for _, col := range []string{"error_code", "error_message", "unified_code", "unified_message"} {
		v, present := tr.Updates[col]
		require.True(t, present, col)
		assert.Nil(t, v, col)
	}
}

func TestOutcomeFromResponseNonTerminalKeepsErrors(t *testing.T) {
	for wire, want := range map[string]string{
		connector.RefundStatusPending:      StatusPending,
		connector.RefundStatusManualReview: StatusManualReview,
		"something_new":                    StatusPending,
	} {
		t.Run(wire, func(t *testing.T) {
			tr := outcomeFromResponse(&connector.RefundResponseData{ConnectorRefundID: "R-1", Status: wire}, integrity.Result{})

			assert.Equal(t, want, tr.Status)
			_, present := tr.Updates["error_code"]
			assert.False(t, present)
		})
	}
}

func TestOutcomeFromResponseIntegrityMismatchIsTerminal(t *testing.T) {
	resp := &connector.RefundResponseData{ConnectorRefundID: "R-1", Status: connector.RefundStatusSuccess, Amount: 2501, Currency: "EUR"}
	check := integrity.Result{MismatchedFields: []string{"amount"}, ConnectorTransactionID: "txn_900"}

	tr := outcomeFromResponse(resp, check)

	assert.Equal(t, StatusFailure, tr.Status)
	assert.Equal(t, CodeIntegrity, tr.Updates["error_code"])
	assert.Contains(t, tr.Updates["error_message"], "amount")
	assert.Contains(t, tr.Updates["error_message"], "txn_900")
	// the id is still stored so the record stays reconcilable
	assert.Equal(t, "R-1", tr.Updates["connector_refund_id"])
}

func TestViewPrefersUnifiedError(t *testing.T) {
	raw, rawMsg := "51", "insufficient_funds"
	uc, um := "INSUFFICIENT_FUNDS", "the account has insufficient funds"

	v := NewView(Refund{
		ID:             "ref_1",
		Status:         StatusFailure,
		ErrorCode:      &raw,
		ErrorMessage:   &rawMsg,
		UnifiedCode:    &uc,
		UnifiedMessage: &um,
	})
	require.NotNil(t, v.Error)
	assert.Equal(t, "INSUFFICIENT_FUNDS", v.Error.Code)

	v = NewView(Refund{ID: "ref_1", Status: StatusFailure, ErrorCode: &raw, ErrorMessage: &rawMsg})
	require.NotNil(t, v.Error)
	assert.Equal(t, "51", v.Error.Code)

	v = NewView(Refund{ID: "ref_1", Status: StatusPending})
	assert.Nil(t, v.Error)
}
