package refunds

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateRefund: same (merchant, payment, reference id) already
	// exists. The unique index is the idempotency boundary.
	ErrDuplicateRefund = errors.New("duplicate refund request")
	ErrRefundNotFound  = errors.New("refund not found")
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Insert(ctx context.Context, ref *Refund) error {
	if err := r.db.WithContext(ctx).Create(ref).Error; err != nil {
		if isDup(err) {
			return ErrDuplicateRefund
		}
		return err
	}
	return nil
}

// Update is a full-row update keyed by refund id; no read-modify-write
// section spans a network call.
func (r *Repo) Update(ctx context.Context, refundID string, updates map[string]any) error {
	updates["updated_at"] = time.Now()
	return r.db.WithContext(ctx).Model(&Refund{}).
		Where("id = ?", refundID).
		Updates(updates).Error
}

func (r *Repo) FindByID(ctx context.Context, merchantID, refundID string) (Refund, error) {
	var ref Refund
	err := r.db.WithContext(ctx).
		First(&ref, "id = ? AND merchant_id = ?", refundID, merchantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Refund{}, ErrRefundNotFound
		}
		return Refund{}, err
	}
	return ref, nil
}

// FindForWorkflow loads a refund by id alone; workers act on task payloads
// that do not carry the merchant scope.
func (r *Repo) FindForWorkflow(ctx context.Context, refundID string) (Refund, error) {
	var ref Refund
	err := r.db.WithContext(ctx).First(&ref, "id = ?", refundID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Refund{}, ErrRefundNotFound
		}
		return Refund{}, err
	}
	return ref, nil
}

// TransactionAggregate summarises prior refunds needed by validation: the sum
// of non-failed amounts against the connector transaction and the total
// attempt count against the payment.
type TransactionAggregate struct {
	NonFailedSum int64
	AttemptCount int64
}

func (r *Repo) Aggregate(ctx context.Context, paymentID, connectorTransactionID string) (TransactionAggregate, error) {
	var agg TransactionAggregate

	err := r.db.WithContext(ctx).Model(&Refund{}).
		Select("COALESCE(SUM(refund_amount), 0)").
		Where("connector_transaction_id = ? AND status <> ?", connectorTransactionID, StatusFailure).
		Scan(&agg.NonFailedSum).Error
	if err != nil {
		return TransactionAggregate{}, err
	}

	err = r.db.WithContext(ctx).Model(&Refund{}).
		Where("payment_id = ?", paymentID).
		Count(&agg.AttemptCount).Error
	if err != nil {
		return TransactionAggregate{}, err
	}
	return agg, nil
}

type ListFilters struct {
	PaymentID string
	Status    string
	Connector string
	Limit     int
	Offset    int
}

func (r *Repo) List(ctx context.Context, merchantID string, f ListFilters) ([]Refund, int64, error) {
	limit := f.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	q := r.db.WithContext(ctx).Model(&Refund{}).Where("merchant_id = ?", merchantID)
	if f.PaymentID != "" {
		q = q.Where("payment_id = ?", f.PaymentID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Connector != "" {
		q = q.Where("connector = ?", f.Connector)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []Refund
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func isDup(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
