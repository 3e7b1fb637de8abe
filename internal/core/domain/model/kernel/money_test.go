package kernel_test

import (
	"testing"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("should create money from non-negative cents", func(t *testing.T) {
		m, err := kernel.NewMoney(1050)

		require.NoError(t, err)
		assert.Equal(t, int64(1050), m.Cents())
	})

	t.Run("should accept zero", func(t *testing.T) {
		m, err := kernel.NewMoney(0)

		require.NoError(t, err)
		assert.True(t, m.IsZero())
	})

	t.Run("should fail with negative cents", func(t *testing.T) {
		_, err := kernel.NewMoney(-1)

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Contains(t, err.Error(), "-1 is negative")
	})
}

func TestMoney_Arithmetic(t *testing.T) {
	t.Run("add accumulates amounts", func(t *testing.T) {
		a := kernel.MustMoney(2500)
		b := kernel.MustMoney(1500)

		assert.Equal(t, int64(4000), a.Add(b).Cents())
	})

	t.Run("mul int scales by quantity", func(t *testing.T) {
		price := kernel.MustMoney(1999)

		assert.Equal(t, int64(5997), price.MulInt(3).Cents())
	})

	t.Run("greater or equal", func(t *testing.T) {
		total := kernel.MustMoney(10000)

		assert.True(t, kernel.MustMoney(10000).GreaterOrEqual(total))
		assert.True(t, kernel.MustMoney(10001).GreaterOrEqual(total))
		assert.False(t, kernel.MustMoney(6000).GreaterOrEqual(total))
	})

	t.Run("is equal", func(t *testing.T) {
		assert.True(t, kernel.MustMoney(42).IsEqual(kernel.MustMoney(42)))
		assert.False(t, kernel.MustMoney(42).IsEqual(kernel.MustMoney(43)))
	})
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "12.50", kernel.MustMoney(1250).String())
	assert.Equal(t, "0.05", kernel.MustMoney(5).String())
	assert.Equal(t, "100.00", kernel.MustMoney(10000).String())
}

func TestMustMoney_PanicsOnNegative(t *testing.T) {
	assert.Panics(t, func() {
		kernel.MustMoney(-100)
	})
}
