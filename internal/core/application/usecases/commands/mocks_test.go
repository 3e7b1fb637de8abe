package commands_test

import (
	"context"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order, expectedVersion int) error {
	args := m.Called(ctx, o, expectedVersion)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetJourney(ctx context.Context, id kernel.UUID) ([]*order.Journey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Journey), args.Error(1)
}

func (m *MockOrderRepository) AppendLog(ctx context.Context, id kernel.UUID, logs []*order.ActionLog) error {
	args := m.Called(ctx, id, logs)
	return args.Error(0)
}

type MockIdempotencyGuard struct{ mock.Mock }

func (m *MockIdempotencyGuard) Claim(ctx context.Context, key ports.IdempotencyKey) (ports.Claim, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(ports.Claim), args.Error(1)
}

func (m *MockIdempotencyGuard) Complete(ctx context.Context, key ports.IdempotencyKey, outcome string) error {
	args := m.Called(ctx, key, outcome)
	return args.Error(0)
}

func (m *MockIdempotencyGuard) Release(ctx context.Context, key ports.IdempotencyKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockOrderUoW struct{ mock.Mock }

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockGuardedUoW struct{ mock.Mock }

func (m *MockGuardedUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGuardedUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGuardedUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGuardedUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockGuardedUoW) IdempotencyGuard() ports.IdempotencyGuard {
	args := m.Called()
	return args.Get(0).(ports.IdempotencyGuard)
}

type MockGuardedUoWFactory struct{ mock.Mock }

func (m *MockGuardedUoWFactory) Create() commands.GuardedUoW {
	args := m.Called()
	return args.Get(0).(commands.GuardedUoW)
}
