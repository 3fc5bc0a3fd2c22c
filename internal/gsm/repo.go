package gsm

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Row struct {
	Connector      string    `gorm:"type:varchar(64);not null;primaryKey"`
	Flow           string    `gorm:"type:varchar(32);not null;primaryKey"`
	Code           string    `gorm:"type:varchar(64);not null;primaryKey"`
	Message        string    `gorm:"type:varchar(255);not null;primaryKey"`
	UnifiedCode    string    `gorm:"type:varchar(64);not null"`
	UnifiedMessage string    `gorm:"type:varchar(255);not null"`
	CreatedAt      time.Time `gorm:"type:datetime(3);not null"`
}

func (Row) TableName() string { return "gateway_status_map" }

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Find(ctx context.Context, connector, flow, code, message string) (Entry, bool, error) {
	var row Row
	err := r.db.WithContext(ctx).
		First(&row, "connector = ? AND flow = ? AND code = ? AND message = ?",
			connector, flow, code, message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	return Entry{
		Connector:      row.Connector,
		Flow:           row.Flow,
		Code:           row.Code,
		Message:        row.Message,
		UnifiedCode:    row.UnifiedCode,
		UnifiedMessage: row.UnifiedMessage,
	}, true, nil
}
