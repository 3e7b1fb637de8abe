package http

import "time"

// Request and response bodies of the order API. Money amounts travel as
// integer minor units, states and workflow statuses as their string names.

type OrderItemPayload struct {
	ProductID      string `json:"productId"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

type CreateOrderRequest struct {
	Items []OrderItemPayload `json:"items"`
}

type CreateOrderResponse struct {
	OrderID string `json:"orderId"`
}

type AddOrderItemRequest struct {
	ProductID      string `json:"productId"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	ReferenceID    string `json:"referenceId"`
}

type TransitionRequest struct {
	Target      string `json:"target"`
	ReferenceID string `json:"referenceId"`
}

type TransitionResponse struct {
	State    string `json:"state"`
	Replayed bool   `json:"replayed"`
}

type NextStatesResponse struct {
	Current string   `json:"current"`
	Next    []string `json:"next"`
}

type JourneyEntry struct {
	FromState   string    `json:"fromState"`
	ToState     string    `json:"toState"`
	At          time.Time `json:"at"`
	ReferenceID string    `json:"referenceId"`
	Sequence    int       `json:"sequence"`
}

type StartWorkflowRequest struct {
	BurnPoints int `json:"burnPoints"`
}

type StartWorkflowResponse struct {
	WorkflowID string `json:"workflowId"`
}

type ActivityEntry struct {
	Action   string    `json:"action"`
	Result   string    `json:"result"`
	At       time.Time `json:"at"`
	Sequence int       `json:"sequence"`
}

type WorkflowProgressResponse struct {
	WorkflowID      string          `json:"workflowId"`
	OrderID         string          `json:"orderId"`
	Status          string          `json:"status"`
	StepIndex       int             `json:"stepIndex"`
	CompletedSteps  []string        `json:"completedSteps"`
	Attempts        int             `json:"attempts"`
	LastError       string          `json:"lastError,omitempty"`
	CancelRequested bool            `json:"cancelRequested"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Activities      []ActivityEntry `json:"activities"`
}

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
