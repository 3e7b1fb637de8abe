package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"orderflow/internal/adapters/out/activityhttp"
	"orderflow/internal/adapters/out/postgres"
	"orderflow/internal/core/application/saga"
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/core/ports"
	"orderflow/internal/jobs"

	"gorm.io/gorm"
)

// CompositionRoot wires adapters, use cases and the workflow engine together.
// Everything downstream of it depends on interfaces only.
type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	engine     *saga.Engine
	logger     *slog.Logger
}

// NewCompositionRoot builds the object graph from the given configuration and
// database connection.
func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	uowFactory := postgres.NewGormUnitOfWorkFactory(gormDB, parseWaitMode(config.GuardWaitMode))

	httpClient := activityhttp.NewHTTPClient()
	stock := activityhttp.NewStockClient(config.StockServiceURL, httpClient)
	payment := activityhttp.NewPaymentClient(config.PaymentServiceURL, httpClient)
	loyalty := activityhttp.NewLoyaltyClient(config.LoyaltyServiceURL, httpClient)

	var sagaFactory saga.UoWFactory = FuncSagaUoWFactory(func() saga.UoW {
		return uowFactory.Create()
	})

	engine, err := saga.NewEngine(
		sagaFactory,
		stock,
		payment,
		loyalty,
		services.NewRatioLoyaltyPolicy(config.LoyaltyRatioCents),
		logger,
		saga.Config{
			Retry: saga.RetryPolicy{
				MaxAttempts:    config.WorkflowMaxAttempts,
				InitialBackoff: config.WorkflowInitialBackoff,
				MaxBackoff:     config.WorkflowMaxBackoff,
			},
			StepTimeout:      config.WorkflowStepTimeout,
			ResumeStaleAfter: config.ResumeStaleAfter,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build workflow engine: %w", err)
	}

	return &CompositionRoot{
		config:     config,
		gormDB:     gormDB,
		uowFactory: uowFactory,
		engine:     engine,
		logger:     logger,
	}, nil
}

// Engine returns the workflow engine.
func (c *CompositionRoot) Engine() *saga.Engine {
	return c.engine
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateOrderCommandHandler(f)
}

func (c *CompositionRoot) CreateAddOrderItemCommandHandler() commands.AddOrderItemCommandHandler {
	var f commands.GuardedUoWFactory = FuncGuardedUoWFactory(func() commands.GuardedUoW {
		return c.uowFactory.Create()
	})
	return commands.NewAddOrderItemCommandHandler(f)
}

func (c *CompositionRoot) CreateTransitionOrderCommandHandler() commands.TransitionOrderCommandHandler {
	var f commands.GuardedUoWFactory = FuncGuardedUoWFactory(func() commands.GuardedUoW {
		return c.uowFactory.Create()
	})
	policy := services.NewFulfilledOrderCancellationPolicy(c.config.FulfillmentWindow)
	return commands.NewTransitionOrderCommandHandler(f, policy)
}

func (c *CompositionRoot) CreateGetNextStatesQueryHandler() queries.GetNextStatesQueryHandler {
	return queries.NewGetNextStatesQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetOrderJourneyQueryHandler() queries.GetOrderJourneyQueryHandler {
	return queries.NewGetOrderJourneyQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetWorkflowProgressQueryHandler() queries.GetWorkflowProgressQueryHandler {
	return queries.NewGetWorkflowProgressQueryHandler(c.gormDB)
}

// CreateJobManager builds the background job manager.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.engine, c.config.ResumeSchedule, c.config.ResumeBatchSize, c.logger)
}

func parseWaitMode(mode string) ports.WaitMode {
	if strings.EqualFold(mode, "block") {
		return ports.Block
	}
	return ports.FailFast
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncGuardedUoWFactory func() commands.GuardedUoW

func (f FuncGuardedUoWFactory) Create() commands.GuardedUoW {
	return f()
}

type FuncSagaUoWFactory func() saga.UoW

func (f FuncSagaUoWFactory) Create() saga.UoW {
	return f()
}
