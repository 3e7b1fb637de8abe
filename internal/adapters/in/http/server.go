package http

import (
	"errors"
	"net/http"

	"orderflow/internal/core/application/saga"
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Server exposes the order lifecycle over HTTP.
// It coordinates between HTTP handlers and application use cases.
type Server struct {
	// Command handlers
	createOrderHandler     commands.CreateOrderCommandHandler
	addOrderItemHandler    commands.AddOrderItemCommandHandler
	transitionOrderHandler commands.TransitionOrderCommandHandler

	// Query handlers
	nextStatesHandler       queries.GetNextStatesQueryHandler
	orderJourneyHandler     queries.GetOrderJourneyQueryHandler
	workflowProgressHandler queries.GetWorkflowProgressQueryHandler

	engine *saga.Engine
}

// NewServer creates an HTTP server with the required command and query
// handlers plus the workflow engine.
func NewServer(
	createOrderHandler commands.CreateOrderCommandHandler,
	addOrderItemHandler commands.AddOrderItemCommandHandler,
	transitionOrderHandler commands.TransitionOrderCommandHandler,
	nextStatesHandler queries.GetNextStatesQueryHandler,
	orderJourneyHandler queries.GetOrderJourneyQueryHandler,
	workflowProgressHandler queries.GetWorkflowProgressQueryHandler,
	engine *saga.Engine,
) *Server {
	return &Server{
		createOrderHandler:      createOrderHandler,
		addOrderItemHandler:     addOrderItemHandler,
		transitionOrderHandler:  transitionOrderHandler,
		nextStatesHandler:       nextStatesHandler,
		orderJourneyHandler:     orderJourneyHandler,
		workflowProgressHandler: workflowProgressHandler,
		engine:                  engine,
	}
}

// RegisterRoutes binds all endpoints on the given Echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.POST("/orders", s.CreateOrder)
	api.POST("/orders/:id/items", s.AddOrderItem)
	api.POST("/orders/:id/transitions", s.TransitionOrder)
	api.GET("/orders/:id/next-states", s.GetNextStates)
	api.GET("/orders/:id/journey", s.GetOrderJourney)
	api.POST("/orders/:id/workflow", s.StartWorkflow)

	api.GET("/workflows/:id", s.GetWorkflowProgress)
	api.POST("/workflows/:id/cancel", s.CancelWorkflow)
}

// CreateOrder handles POST /api/v1/orders - registers a new order in Initial
// state.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var request CreateOrderRequest
	if err := ctx.Bind(&request); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	items := make([]commands.OrderItemSpec, 0, len(request.Items))
	for _, line := range request.Items {
		productID, err := kernel.UUIDFromString(line.ProductID)
		if err != nil {
			return badRequest(ctx, "Invalid product id: "+line.ProductID)
		}
		items = append(items, commands.OrderItemSpec{
			ProductID:      productID,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
		})
	}

	orderID := kernel.NewUUID()
	cmd, err := commands.NewCreateOrderCommand(orderID, items)
	if err != nil {
		return badRequest(ctx, "Invalid order data: "+err.Error())
	}

	if handleErr := s.createOrderHandler.Handle(ctx.Request().Context(), cmd); handleErr != nil {
		return writeError(ctx, handleErr)
	}

	return ctx.JSON(http.StatusCreated, CreateOrderResponse{OrderID: orderID.String()})
}

// AddOrderItem handles POST /api/v1/orders/:id/items - appends a line to an
// order that has not been paid yet.
func (s *Server) AddOrderItem(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	var request AddOrderItemRequest
	if err := ctx.Bind(&request); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	productID, err := kernel.UUIDFromString(request.ProductID)
	if err != nil {
		return badRequest(ctx, "Invalid product id")
	}
	ref, err := kernel.NewReferenceID(request.ReferenceID)
	if err != nil {
		return badRequest(ctx, "Invalid reference id")
	}

	cmd, err := commands.NewAddOrderItemCommand(orderID, productID, request.Quantity, request.UnitPriceCents, ref)
	if err != nil {
		return badRequest(ctx, "Invalid item data: "+err.Error())
	}

	if handleErr := s.addOrderItemHandler.Handle(ctx.Request().Context(), cmd); handleErr != nil {
		return writeError(ctx, handleErr)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// TransitionOrder handles POST /api/v1/orders/:id/transitions - moves the
// order to the requested lifecycle state.
func (s *Server) TransitionOrder(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	var request TransitionRequest
	if err := ctx.Bind(&request); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	target, err := order.ParseState(request.Target)
	if err != nil {
		return badRequest(ctx, "Unknown target state: "+request.Target)
	}
	ref, err := kernel.NewReferenceID(request.ReferenceID)
	if err != nil {
		return badRequest(ctx, "Invalid reference id")
	}

	cmd, err := commands.NewTransitionOrderCommand(orderID, target, ref)
	if err != nil {
		return badRequest(ctx, "Invalid transition data: "+err.Error())
	}

	result, err := s.transitionOrderHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, TransitionResponse{
		State:    result.State.String(),
		Replayed: result.Replayed,
	})
}

// GetNextStates handles GET /api/v1/orders/:id/next-states - lists the states
// reachable from the order's current state.
func (s *Server) GetNextStates(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	query, err := queries.NewGetNextStatesQuery(orderID)
	if err != nil {
		return badRequest(ctx, "Invalid query: "+err.Error())
	}

	response, err := s.nextStatesHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	next := make([]string, len(response.Next))
	for i, state := range response.Next {
		next[i] = state.String()
	}

	return ctx.JSON(http.StatusOK, NextStatesResponse{
		Current: response.Current.String(),
		Next:    next,
	})
}

// GetOrderJourney handles GET /api/v1/orders/:id/journey - returns the
// transition audit trail in order of occurrence.
func (s *Server) GetOrderJourney(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	query, err := queries.NewGetOrderJourneyQuery(orderID)
	if err != nil {
		return badRequest(ctx, "Invalid query: "+err.Error())
	}

	journeys, err := s.orderJourneyHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	response := make([]JourneyEntry, len(journeys))
	for i, journey := range journeys {
		response[i] = JourneyEntry{
			FromState:   journey.FromState.String(),
			ToState:     journey.ToState.String(),
			At:          journey.At,
			ReferenceID: journey.ReferenceID,
			Sequence:    journey.Sequence,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// StartWorkflow handles POST /api/v1/orders/:id/workflow - starts the
// fulfillment workflow for an order, or attaches to the run already in
// flight.
func (s *Server) StartWorkflow(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	var request StartWorkflowRequest
	if err := ctx.Bind(&request); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	if request.BurnPoints < 0 {
		return badRequest(ctx, "Burn points must not be negative")
	}

	workflowID, err := s.engine.StartOrAttach(ctx.Request().Context(), orderID, saga.StartParams{
		BurnPoints: request.BurnPoints,
	})
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusAccepted, StartWorkflowResponse{WorkflowID: workflowID})
}

// CancelWorkflow handles POST /api/v1/workflows/:id/cancel - requests
// cooperative cancellation of a running workflow.
func (s *Server) CancelWorkflow(ctx echo.Context) error {
	workflowID := ctx.Param("id")
	if workflowID == "" {
		return badRequest(ctx, "Workflow id is required")
	}

	if err := s.engine.RequestCancel(ctx.Request().Context(), workflowID); err != nil {
		return writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusAccepted)
}

// GetWorkflowProgress handles GET /api/v1/workflows/:id - returns the
// checkpoint fields and the activity history of a run.
func (s *Server) GetWorkflowProgress(ctx echo.Context) error {
	workflowID := ctx.Param("id")

	query, err := queries.NewGetWorkflowProgressQuery(workflowID)
	if err != nil {
		return badRequest(ctx, "Invalid query: "+err.Error())
	}

	progress, err := s.workflowProgressHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	activities := make([]ActivityEntry, len(progress.Activities))
	for i, activity := range progress.Activities {
		activities[i] = ActivityEntry{
			Action:   activity.Action,
			Result:   activity.Result,
			At:       activity.At,
			Sequence: activity.Sequence,
		}
	}

	return ctx.JSON(http.StatusOK, WorkflowProgressResponse{
		WorkflowID:      progress.WorkflowID,
		OrderID:         progress.OrderID.String(),
		Status:          progress.Status.String(),
		StepIndex:       progress.StepIndex,
		CompletedSteps:  progress.CompletedSteps,
		Attempts:        progress.Attempts,
		LastError:       progress.LastError,
		CancelRequested: progress.CancelRequested,
		UpdatedAt:       progress.UpdatedAt,
		Activities:      activities,
	})
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    http.StatusBadRequest,
		Message: message,
	})
}

// writeError maps the application error taxonomy onto HTTP status codes.
func writeError(ctx echo.Context, err error) error {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidTransition):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrConcurrencyConflict),
		errors.Is(err, errs.ErrRequestInProgress):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired):
		status = http.StatusBadRequest
	}

	return ctx.JSON(status, ErrorResponse{
		Code:    status,
		Message: err.Error(),
	})
}
