package merchants

import "time"

// MerchantAccount identifies an API caller. The key secret is stored as a
// bcrypt hash; the presented key carries the merchant id in clear so the row
// can be looked up before comparing.
type MerchantAccount struct {
	ID         string    `gorm:"type:varchar(64);primaryKey"`
	Name       string    `gorm:"type:varchar(128);not null"`
	APIKeyHash string    `gorm:"type:varchar(128);not null"`
	Disabled   bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt  time.Time `gorm:"type:datetime(3);not null"`
}

func (MerchantAccount) TableName() string { return "merchant_accounts" }
