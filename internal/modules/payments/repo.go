package payments

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrAttemptNotFound = errors.New("no successful payment attempt")
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) FindByID(ctx context.Context, merchantID, paymentID string) (Payment, error) {
	var p Payment
	err := r.db.WithContext(ctx).
		First(&p, "id = ? AND merchant_id = ?", paymentID, merchantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Payment{}, ErrPaymentNotFound
		}
		return Payment{}, err
	}
	return p, nil
}

// LastSuccessfulAttempt returns the attempt that actually moved money; its
// connector transaction id is what refunds are issued against.
func (r *Repo) LastSuccessfulAttempt(ctx context.Context, paymentID string) (PaymentAttempt, error) {
	var a PaymentAttempt
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		First(&a, "payment_id = ? AND status = ?", paymentID, AttemptStatusCharged).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PaymentAttempt{}, ErrAttemptNotFound
		}
		return PaymentAttempt{}, err
	}
	return a, nil
}
