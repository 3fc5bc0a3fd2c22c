package payments

import "time"

const (
	StatusProcessing        = "processing"
	StatusSucceeded         = "succeeded"
	StatusPartiallyCaptured = "partially_captured"
	StatusFailed            = "failed"
)

// Payment is the switch's record of the original payment intent.
// Refund orchestration only reads it; mutation belongs to the payments core.
type Payment struct {
	ID             string    `gorm:"type:char(36);primaryKey"`
	MerchantID     string    `gorm:"type:varchar(64);not null;index:ix_payments_merchant_id"`
	Status         string    `gorm:"type:varchar(32);not null"`
	AmountCaptured int64     `gorm:"not null"`
	Currency       string    `gorm:"type:char(3);not null"`
	CreatedAt      time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt      time.Time `gorm:"type:datetime(3);not null"`
}

func (Payment) TableName() string { return "payments" }

// Refundable: only captured money can be refunded.
func (p Payment) Refundable() bool {
	return p.Status == StatusSucceeded || p.Status == StatusPartiallyCaptured
}

const AttemptStatusCharged = "charged"

// PaymentAttempt is one connector-level try of the payment. The refund engine
// needs the last successful one for the connector transaction reference.
type PaymentAttempt struct {
	ID                     string    `gorm:"type:char(36);primaryKey"`
	PaymentID              string    `gorm:"type:char(36);not null;index:ix_payment_attempts_payment_id"`
	MerchantID             string    `gorm:"type:varchar(64);not null"`
	Connector              string    `gorm:"type:varchar(64);not null"`
	MerchantConnectorID    string    `gorm:"type:varchar(64);not null"`
	ConnectorTransactionID *string   `gorm:"type:varchar(128)"`
	Status                 string    `gorm:"type:varchar(32);not null"`
	Amount                 int64     `gorm:"not null"`
	Currency               string    `gorm:"type:char(3);not null"`
	CreatedAt              time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt              time.Time `gorm:"type:datetime(3);not null"`
}

func (PaymentAttempt) TableName() string { return "payment_attempts" }
