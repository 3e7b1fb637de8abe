package order_test

import (
	"testing"

	"orderflow/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allStates() []order.State {
	return []order.State{
		order.Initial,
		order.Pending,
		order.Paid,
		order.Completed,
		order.Refunded,
		order.Cancelled,
	}
}

func TestStateValidate(t *testing.T) {
	t.Run("should accept all defined states", func(t *testing.T) {
		for _, s := range allStates() {
			assert.NoError(t, s.Validate(), s.String())
		}
	})

	t.Run("should reject unknown state", func(t *testing.T) {
		err := order.Unknown.Validate()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "state is invalid")
	})

	t.Run("should reject out of range state", func(t *testing.T) {
		err := order.State(99).Validate()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "99 is not a valid state")
	})
}

func TestStateString(t *testing.T) {
	t.Run("should return names for defined states", func(t *testing.T) {
		expected := map[order.State]string{
			order.Unknown:   "Unknown",
			order.Initial:   "Initial",
			order.Pending:   "Pending",
			order.Paid:      "Paid",
			order.Completed: "Completed",
			order.Refunded:  "Refunded",
			order.Cancelled: "Cancelled",
		}

		for state, name := range expected {
			assert.Equal(t, name, state.String())
		}
	})

	t.Run("should return Unknown for out of range state", func(t *testing.T) {
		assert.Equal(t, "Unknown", order.State(99).String())
	})
}

func TestStateCanTransition(t *testing.T) {
	allowed := map[order.State][]order.State{
		order.Initial:   {order.Pending},
		order.Pending:   {order.Paid, order.Cancelled},
		order.Paid:      {order.Completed, order.Refunded},
		order.Refunded:  {order.Cancelled},
		order.Completed: {order.Cancelled},
		order.Cancelled: {order.Pending},
	}

	t.Run("should permit exactly the table pairs", func(t *testing.T) {
		for _, from := range allStates() {
			for _, to := range allStates() {
				expected := false
				for _, a := range allowed[from] {
					if a == to {
						expected = true
					}
				}
				assert.Equal(t, expected, from.CanTransition(to), "%s -> %s", from, to)
			}
		}
	})

	t.Run("should forbid self transitions", func(t *testing.T) {
		for _, s := range allStates() {
			assert.False(t, s.CanTransition(s), s.String())
		}
	})

	t.Run("should forbid anything from unknown", func(t *testing.T) {
		for _, s := range allStates() {
			assert.False(t, order.Unknown.CanTransition(s), s.String())
		}
	})
}

func TestStateNextStates(t *testing.T) {
	t.Run("should return reachable states for pending", func(t *testing.T) {
		next := order.Pending.NextStates()

		assert.ElementsMatch(t, []order.State{order.Paid, order.Cancelled}, next)
	})

	t.Run("should allow reactivation from cancelled", func(t *testing.T) {
		next := order.Cancelled.NextStates()

		assert.Equal(t, []order.State{order.Pending}, next)
	})

	t.Run("should return a copy", func(t *testing.T) {
		next := order.Pending.NextStates()
		next[0] = order.Unknown

		assert.ElementsMatch(t, []order.State{order.Paid, order.Cancelled}, order.Pending.NextStates())
	})
}

func TestParseState(t *testing.T) {
	t.Run("should round trip every defined state", func(t *testing.T) {
		for _, s := range allStates() {
			parsed, err := order.ParseState(s.String())

			require.NoError(t, err)
			assert.Equal(t, s, parsed)
		}
	})

	t.Run("should reject unknown name", func(t *testing.T) {
		parsed, err := order.ParseState("Shipped")

		require.Error(t, err)
		assert.Equal(t, order.Unknown, parsed)
		assert.Contains(t, err.Error(), `"Shipped" is not a valid state name`)
	})

	t.Run("should reject the unknown name itself", func(t *testing.T) {
		_, err := order.ParseState("Unknown")

		require.Error(t, err)
	})
}
