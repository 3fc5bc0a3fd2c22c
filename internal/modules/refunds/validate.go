package refunds

import (
	"fmt"
	"time"

	"finrota.com/app/internal/modules/payments"
	"finrota.com/app/internal/shared/apperr"
)

// ValidationConfig carries the operator-tunable limits.
type ValidationConfig struct {
	MaxAge      time.Duration // oldest payment still refundable
	MaxAttempts int64         // refund attempts allowed per payment
}

func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MaxAge:      365 * 24 * time.Hour,
		MaxAttempts: 10,
	}
}

type createCheck struct {
	Payment         payments.Payment
	RequestedAmount *int64
	Prior           TransactionAggregate
	Now             time.Time
	Config          ValidationConfig
}

// validateCreate runs the preconditions in order, failing fast with a distinct
// error each. Returns the effective refund amount (explicit or full capture).
func validateCreate(in createCheck) (int64, error) {
	if !in.Payment.Refundable() {
		return 0, apperr.InvalidErr(CodeNotRefundable,
			fmt.Sprintf("payment in status %q cannot be refunded", in.Payment.Status), nil)
	}

	amount := in.Payment.AmountCaptured
	if in.RequestedAmount != nil {
		amount = *in.RequestedAmount
	}
	if amount <= 0 {
		return 0, apperr.InvalidErr(CodeInvalidAmount, "refund amount must be a positive integer", nil)
	}

	if in.Config.MaxAge > 0 && in.Now.Sub(in.Payment.CreatedAt) > in.Config.MaxAge {
		return 0, apperr.InvalidErr(CodePaymentStale, "payment is too old to refund", nil)
	}

	if in.Prior.NonFailedSum+amount > in.Payment.AmountCaptured {
		return 0, apperr.InvalidErr(CodeAmountExceeded,
			"refund amount exceeds the amount available on this payment", nil)
	}

	if in.Config.MaxAttempts > 0 && in.Prior.AttemptCount >= in.Config.MaxAttempts {
		return 0, apperr.InvalidErr(CodeMaxAttempts, "maximum refund attempts reached for this payment", nil)
	}

	return amount, nil
}
