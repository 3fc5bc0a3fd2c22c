package refunds

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StatusPending      = "pending"
	StatusManualReview = "manual_review"
	StatusSuccess      = "success"
	StatusFailure      = "failure"
)

const (
	TypeInstant   = "instant"   // dispatch inside the create call
	TypeScheduled = "scheduled" // dispatch later via the task queue
)

// Refund is the durable lifecycle record. Rows are created once per validated
// request, mutated only through the state machine, and never deleted: terminal
// states are permanent audit records.
type Refund struct {
	ID          string  `gorm:"type:char(36);primaryKey"`
	MerchantID  string  `gorm:"type:varchar(64);not null;uniqueIndex:ux_refunds_merchant_payment_reference,priority:1"`
	PaymentID   string  `gorm:"type:char(36);not null;uniqueIndex:ux_refunds_merchant_payment_reference,priority:2;index:ix_refunds_payment_id"`
	ReferenceID string  `gorm:"type:varchar(128);not null;uniqueIndex:ux_refunds_merchant_payment_reference,priority:3"`
	ExternalID  *string `gorm:"type:varchar(128)"`

	AttemptID              string  `gorm:"type:char(36);not null"`
	Connector              string  `gorm:"type:varchar(64);not null"`
	MerchantConnectorID    string  `gorm:"type:varchar(64);not null"`
	ConnectorTransactionID string  `gorm:"type:varchar(128);not null;index:ix_refunds_connector_transaction_id"`
	ConnectorRefundID      *string `gorm:"type:varchar(128)"`

	TotalAmount  int64  `gorm:"not null"` // captured amount of the payment
	RefundAmount int64  `gorm:"not null"`
	Currency     string `gorm:"type:char(3);not null"`

	RefundType    string `gorm:"type:varchar(16);not null"`
	Status        string `gorm:"type:varchar(32);not null"`
	SentToGateway bool   `gorm:"not null"` // a dispatch attempt actually went out

	Reason   *string        `gorm:"type:varchar(255)"`
	Metadata datatypes.JSON `gorm:"type:json"`

	ErrorCode      *string `gorm:"type:varchar(64)"`
	ErrorMessage   *string `gorm:"type:varchar(255)"`
	UnifiedCode    *string `gorm:"type:varchar(64)"`
	UnifiedMessage *string `gorm:"type:varchar(255)"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Refund) TableName() string { return "refunds" }

// Terminal: no further transition will happen without a force-sync.
func (r Refund) Terminal() bool {
	return r.Status == StatusSuccess || r.Status == StatusFailure
}
