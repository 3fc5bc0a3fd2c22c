package refunds

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finrota.com/app/internal/modules/payments"
	"finrota.com/app/internal/shared/apperr"
)

func checkInput() createCheck {
	return createCheck{
		Payment: payments.Payment{
			ID:             "pay_1",
			Status:         payments.StatusSucceeded,
			AmountCaptured: 10000,
			Currency:       "EUR",
			CreatedAt:      time.Now().Add(-24 * time.Hour),
		},
		Now:    time.Now(),
		Config: DefaultValidationConfig(),
	}
}

func amt(v int64) *int64 { return &v }

func TestValidateCreateFullCaptureDefault(t *testing.T) {
	got, err := validateCreate(checkInput())
	require.NoError(t, err)
	assert.Equal(t, int64(10000), got)
}

func TestValidateCreatePartialAmount(t *testing.T) {
	in := checkInput()
	in.RequestedAmount = amt(2500)

	got, err := validateCreate(in)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), got)
}

func TestValidateCreateExactRemainder(t *testing.T) {
	in := checkInput()
	in.Prior = TransactionAggregate{NonFailedSum: 7500, AttemptCount: 2}
	in.RequestedAmount = amt(2500)

	got, err := validateCreate(in)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), got)
}

func TestValidateCreateRejects(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*createCheck)
		wantCode string
	}{
		{
			name:     "payment still processing",
			mutate:   func(c *createCheck) { c.Payment.Status = payments.StatusProcessing },
			wantCode: CodeNotRefundable,
		},
		{
			name:     "payment failed",
			mutate:   func(c *createCheck) { c.Payment.Status = payments.StatusFailed },
			wantCode: CodeNotRefundable,
		},
		{
			name:     "zero amount",
			mutate:   func(c *createCheck) { c.RequestedAmount = amt(0) },
			wantCode: CodeInvalidAmount,
		},
		{
			name:     "negative amount",
			mutate:   func(c *createCheck) { c.RequestedAmount = amt(-100) },
			wantCode: CodeInvalidAmount,
		},
		{
			name:     "payment older than the window",
			mutate:   func(c *createCheck) { c.Payment.CreatedAt = c.Now.Add(-366 * 24 * time.Hour) },
			wantCode: CodePaymentStale,
		},
		{
			name: "amount exceeds remainder",
			mutate: func(c *createCheck) {
				c.Prior = TransactionAggregate{NonFailedSum: 2500, AttemptCount: 1}
				c.RequestedAmount = amt(8000)
			},
			wantCode: CodeAmountExceeded,
		},
		{
			name: "full refund after partial",
			mutate: func(c *createCheck) {
				c.Prior = TransactionAggregate{NonFailedSum: 1, AttemptCount: 1}
			},
			wantCode: CodeAmountExceeded,
		},
		{
			name: "attempt limit reached",
			mutate: func(c *createCheck) {
				c.Prior = TransactionAggregate{AttemptCount: 10}
				c.RequestedAmount = amt(100)
			},
			wantCode: CodeMaxAttempts,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := checkInput()
			tc.mutate(&in)

			_, err := validateCreate(in)
			require.Error(t, err)

			ae, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.Invalid, ae.Kind)
			assert.Equal(t, tc.wantCode, ae.Code)
		})
	}
}

// Failed attempts free their amount but still count against the attempt limit.
func TestValidateCreateFailedRefundsDoNotConsumeAmount(t *testing.T) {
	in := checkInput()
	// aggregate excludes failed rows from the sum, includes them in the count
	in.Prior = TransactionAggregate{NonFailedSum: 0, AttemptCount: 3}

	got, err := validateCreate(in)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), got)
}

func TestValidateCreateLimitsDisabled(t *testing.T) {
	in := checkInput()
	in.Config = ValidationConfig{} // zero values switch both limits off
	in.Payment.CreatedAt = in.Now.Add(-5 * 365 * 24 * time.Hour)
	in.Prior = TransactionAggregate{AttemptCount: 500}

	_, err := validateCreate(in)
	require.NoError(t, err)
}
