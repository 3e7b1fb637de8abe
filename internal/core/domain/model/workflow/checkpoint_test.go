package workflow_test

import (
	"errors"
	"testing"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCheckpoint(t *testing.T) {
	t.Run("should start running before the first step", func(t *testing.T) {
		orderID := kernel.NewUUID()

		c, err := workflow.NewCheckpoint(orderID)

		require.NoError(t, err)
		require.NoError(t, c.Validate())
		assert.Equal(t, "wf-"+orderID.String(), c.WorkflowID())
		assert.True(t, c.OrderID().IsEqual(orderID))
		assert.Equal(t, workflow.Running, c.Status())
		assert.Equal(t, 0, c.StepIndex())
		assert.Empty(t, c.CompletedSteps())
		assert.False(t, c.CancelRequested())
	})

	t.Run("should fail with invalid order id", func(t *testing.T) {
		var invalidID kernel.UUID

		c, err := workflow.NewCheckpoint(invalidID)

		require.Error(t, err)
		assert.Nil(t, c)
	})
}

func TestCheckpointForwardProgress(t *testing.T) {
	t.Run("should advance step index and reset attempts", func(t *testing.T) {
		c, err := workflow.NewCheckpoint(kernel.NewUUID())
		require.NoError(t, err)
		c.AttemptFailed(errors.New("connection reset"))
		require.Equal(t, 1, c.Attempts())

		require.NoError(t, c.StepCompleted("ReserveStock"))

		assert.Equal(t, 1, c.StepIndex())
		assert.Equal(t, []string{"ReserveStock"}, c.CompletedSteps())
		assert.Equal(t, 0, c.Attempts())
		assert.Empty(t, c.LastError())
	})

	t.Run("should reject empty step name", func(t *testing.T) {
		c, err := workflow.NewCheckpoint(kernel.NewUUID())
		require.NoError(t, err)

		require.Error(t, c.StepCompleted(""))
	})

	t.Run("should record failed attempts", func(t *testing.T) {
		c, err := workflow.NewCheckpoint(kernel.NewUUID())
		require.NoError(t, err)

		c.AttemptFailed(errors.New("timeout"))
		c.AttemptFailed(errors.New("timeout again"))

		assert.Equal(t, 2, c.Attempts())
		assert.Equal(t, "timeout again", c.LastError())
	})
}

func TestCheckpointCompensation(t *testing.T) {
	newProgressed := func(t *testing.T) *workflow.Checkpoint {
		c, err := workflow.NewCheckpoint(kernel.NewUUID())
		require.NoError(t, err)
		require.NoError(t, c.StepCompleted("ReserveStock"))
		require.NoError(t, c.StepCompleted("ProcessPayment"))
		return c
	}

	t.Run("should unwind completed steps in reverse", func(t *testing.T) {
		c := newProgressed(t)
		c.StartCompensating(errors.New("loyalty declined"))

		assert.Equal(t, workflow.Compensating, c.Status())
		assert.Equal(t, 2, c.StepIndex())
		assert.Equal(t, "loyalty declined", c.LastError())

		require.NoError(t, c.CompensationProgressed())
		assert.Equal(t, []string{"ReserveStock"}, c.CompletedSteps())
		assert.Equal(t, 1, c.StepIndex())

		require.NoError(t, c.CompensationProgressed())
		assert.Empty(t, c.CompletedSteps())
		assert.Equal(t, 0, c.StepIndex())
	})

	t.Run("should fail compensating past the first step", func(t *testing.T) {
		c, err := workflow.NewCheckpoint(kernel.NewUUID())
		require.NoError(t, err)

		require.Error(t, c.CompensationProgressed())
	})

	t.Run("should escalate to manual review", func(t *testing.T) {
		c := newProgressed(t)
		c.StartCompensating(errors.New("payment declined"))

		c.MarkManualReview(errors.New("refund keeps failing"))

		assert.Equal(t, workflow.ManualReview, c.Status())
		assert.Equal(t, "refund keeps failing", c.LastError())
		assert.True(t, c.Status().IsTerminal())
	})
}

func TestCheckpointStatus(t *testing.T) {
	t.Run("should identify terminal statuses", func(t *testing.T) {
		terminal := []workflow.Status{workflow.Completed, workflow.Cancelled, workflow.ManualReview, workflow.Failed}
		for _, s := range terminal {
			assert.True(t, s.IsTerminal(), s.String())
		}
		assert.False(t, workflow.Running.IsTerminal())
		assert.False(t, workflow.Compensating.IsTerminal())
	})

	t.Run("should reject unknown status", func(t *testing.T) {
		require.Error(t, workflow.UnknownStatus.Validate())
		require.Error(t, workflow.Status(42).Validate())
	})
}

func TestCheckpointCancelRequest(t *testing.T) {
	t.Run("should flag cooperative cancel without changing status", func(t *testing.T) {
		c, err := workflow.NewCheckpoint(kernel.NewUUID())
		require.NoError(t, err)

		c.RequestCancel()

		assert.True(t, c.CancelRequested())
		assert.Equal(t, workflow.Running, c.Status())
	})
}

func TestRestoreCheckpoint(t *testing.T) {
	t.Run("should rebuild a mid-run checkpoint", func(t *testing.T) {
		orderID := kernel.NewUUID()
		updatedAt := time.Now().UTC().Add(-time.Minute)

		c, err := workflow.RestoreCheckpoint(
			workflow.IDForOrder(orderID),
			orderID,
			workflow.Running,
			2,
			[]string{"ReserveStock", "ProcessPayment"},
			1,
			"timeout",
			false,
			updatedAt,
		)

		require.NoError(t, err)
		assert.Equal(t, 2, c.StepIndex())
		assert.Equal(t, []string{"ReserveStock", "ProcessPayment"}, c.CompletedSteps())
		assert.Equal(t, updatedAt, c.UpdatedAt())
	})

	t.Run("should fail without workflow id", func(t *testing.T) {
		c, err := workflow.RestoreCheckpoint("", kernel.NewUUID(), workflow.Running, 0, nil, 0, "", false, time.Now())

		require.Error(t, err)
		assert.Nil(t, c)
	})
}
