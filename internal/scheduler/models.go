package scheduler

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

const (
	TaskExecuteRefund = "EXECUTE_REFUND"
	TaskSyncRefund    = "SYNC_REFUND"

	// namespace pins task ids to the refund workflow so other workflows can
	// share the table without colliding.
	namespace = "refund"
)

const (
	StatusPending = "pending"
	StatusRunning = "running"
)

// TaskID is deterministic: one pending task per (refund, operation), enforced
// by the primary key at insert time, not by a lock.
func TaskID(operation, refundID string) string {
	return fmt.Sprintf("%s_%s_%s", namespace, operation, refundID)
}

// ProcessTracker is a persisted unit of deferred work. A row exists while the
// task is pending or in flight and is deleted on completion.
type ProcessTracker struct {
	ID           string         `gorm:"type:varchar(160);primaryKey"`
	Name         string         `gorm:"type:varchar(32);not null"`
	ScheduleTime time.Time      `gorm:"type:datetime(3);not null;index:ix_process_tracker_schedule_time"`
	Payload      datatypes.JSON `gorm:"type:json;not null"`
	Status       string         `gorm:"type:varchar(16);not null"`
	Retries      int            `gorm:"not null;default:0"`
	CreatedAt    time.Time      `gorm:"type:datetime(3);not null"`
	UpdatedAt    time.Time      `gorm:"type:datetime(3);not null"`
}

func (ProcessTracker) TableName() string { return "process_tracker" }

// WorkflowPayload is everything a worker needs to re-enter the orchestration
// path without extra reads.
type WorkflowPayload struct {
	RefundID               string `json:"refund_id"`
	PaymentID              string `json:"payment_id"`
	ConnectorTransactionID string `json:"connector_transaction_id"`
}
