package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ErrDuplicateTask: a pending task for this (refund, operation) already
// exists. Callers treat it as a duplicate-request signal, not a failure.
var ErrDuplicateTask = errors.New("task already scheduled")

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// Schedule inserts a new task. The deterministic id is the idempotency
// boundary: a second enqueue while one is outstanding hits the primary key.
func (r *Repo) Schedule(ctx context.Context, operation string, payload WorkflowPayload, at time.Time) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	now := time.Now()
	t := ProcessTracker{
		ID:           TaskID(operation, payload.RefundID),
		Name:         operation,
		ScheduleTime: at,
		Payload:      raw,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.db.WithContext(ctx).Create(&t).Error; err != nil {
		if isDup(err) {
			return ErrDuplicateTask
		}
		return err
	}
	return nil
}

// Due returns pending tasks whose schedule time has passed, plus running
// tasks whose lease expired (a worker died between claim and completion).
func (r *Repo) Due(ctx context.Context, now, staleBefore time.Time, limit int) ([]ProcessTracker, error) {
	var tasks []ProcessTracker
	err := r.db.WithContext(ctx).
		Where("(status = ? AND schedule_time <= ?) OR (status = ? AND updated_at < ?)",
			StatusPending, now, StatusRunning, staleBefore).
		Order("schedule_time ASC").
		Limit(limit).
		Find(&tasks).Error
	return tasks, err
}

// Claim flips a task to running, reclaiming it when a previous claim's lease
// has expired. Returns false when another worker holds it; the conditional
// update is the only coordination between workers.
func (r *Repo) Claim(ctx context.Context, id string, staleBefore time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&ProcessTracker{}).
		Where("id = ? AND (status = ? OR (status = ? AND updated_at < ?))",
			id, StatusPending, StatusRunning, staleBefore).
		Updates(map[string]any{"status": StatusRunning, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Complete removes the row; absence is the terminal state of a task.
func (r *Repo) Complete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&ProcessTracker{}, "id = ?", id).Error
}

// Release puts a failed task back in the queue for a later attempt.
func (r *Repo) Release(ctx context.Context, id string, nextAt time.Time) error {
	return r.db.WithContext(ctx).Model(&ProcessTracker{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        StatusPending,
			"schedule_time": nextAt,
			"retries":       gorm.Expr("retries + 1"),
			"updated_at":    time.Now(),
		}).Error
}

func (r *Repo) FindByID(ctx context.Context, id string) (ProcessTracker, error) {
	var t ProcessTracker
	err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error
	return t, err
}

func isDup(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
