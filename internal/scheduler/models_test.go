package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskIDDeterministic(t *testing.T) {
	id := TaskID(TaskExecuteRefund, "8d64a3a2-3a0f-4d8e-9c3e-000000000001")
	assert.Equal(t, "refund_EXECUTE_REFUND_8d64a3a2-3a0f-4d8e-9c3e-000000000001", id)

	// the id is the idempotency boundary: same inputs, same id
	assert.Equal(t, id, TaskID(TaskExecuteRefund, "8d64a3a2-3a0f-4d8e-9c3e-000000000001"))

	// one pending task per operation, not per refund
	assert.NotEqual(t, id, TaskID(TaskSyncRefund, "8d64a3a2-3a0f-4d8e-9c3e-000000000001"))
}
