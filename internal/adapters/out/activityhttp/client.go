// Package activityhttp provides HTTP clients for the remote activities the
// order workflow invokes: inventory, payment and loyalty services.
//
// The clients translate responses into the application error taxonomy. A 4xx
// response is a business refusal and maps to ActivityDeclinedError, which the
// workflow treats as terminal. Transport failures, timeouts and 5xx responses
// map to ActivityTransientError and are retried. Every request carries the
// reference id so the remote side can deduplicate retried invocations.
package activityhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

// NewHTTPClient creates an http.Client tuned for activity calls. No client
// timeout is set; deadlines come from the per-call context.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
	}
}

// errorBody is the error payload the activity services return on refusal.
type errorBody struct {
	Message string `json:"message"`
}

// postJSON sends the payload and classifies the response.
func postJSON(ctx context.Context, client *http.Client, activity, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return errs.NewActivityTransientError(activity, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return errs.NewActivityTransientError(activity,
			fmt.Errorf("service returned status %s", resp.Status))
	default:
		reason := resp.Status
		var decoded errorBody
		if decodeErr := json.NewDecoder(resp.Body).Decode(&decoded); decodeErr == nil && decoded.Message != "" {
			reason = decoded.Message
		}
		return errs.NewActivityDeclinedError(activity, reason)
	}
}

// StockClient calls the inventory service.
type StockClient struct {
	baseURL string
	client  *http.Client
}

// NewStockClient creates a client for the inventory service at baseURL.
func NewStockClient(baseURL string, client *http.Client) *StockClient {
	if client == nil {
		client = NewHTTPClient()
	}
	return &StockClient{baseURL: baseURL, client: client}
}

type reserveStockRequest struct {
	OrderID     string `json:"orderId"`
	ProductID   string `json:"productId"`
	Quantity    int    `json:"quantity"`
	ReferenceID string `json:"referenceId"`
}

type stockActionRequest struct {
	OrderID     string `json:"orderId"`
	ReferenceID string `json:"referenceId"`
}

// Reserve places a hold on the given quantity of a product.
func (c *StockClient) Reserve(ctx context.Context, orderID kernel.UUID, productID kernel.UUID, quantity int, referenceID kernel.ReferenceID) error {
	return postJSON(ctx, c.client, "stock", c.baseURL+"/api/v1/reservations", reserveStockRequest{
		OrderID:     orderID.String(),
		ProductID:   productID.String(),
		Quantity:    quantity,
		ReferenceID: referenceID.String(),
	})
}

// Confirm finalizes every reservation held for the order.
func (c *StockClient) Confirm(ctx context.Context, orderID kernel.UUID, referenceID kernel.ReferenceID) error {
	return postJSON(ctx, c.client, "stock", c.baseURL+"/api/v1/reservations/confirm", stockActionRequest{
		OrderID:     orderID.String(),
		ReferenceID: referenceID.String(),
	})
}

// Release frees every reservation held for the order.
func (c *StockClient) Release(ctx context.Context, orderID kernel.UUID, referenceID kernel.ReferenceID) error {
	return postJSON(ctx, c.client, "stock", c.baseURL+"/api/v1/reservations/release", stockActionRequest{
		OrderID:     orderID.String(),
		ReferenceID: referenceID.String(),
	})
}

// PaymentClient calls the payment service.
type PaymentClient struct {
	baseURL string
	client  *http.Client
}

// NewPaymentClient creates a client for the payment service at baseURL.
func NewPaymentClient(baseURL string, client *http.Client) *PaymentClient {
	if client == nil {
		client = NewHTTPClient()
	}
	return &PaymentClient{baseURL: baseURL, client: client}
}

type paymentRequest struct {
	OrderID     string `json:"orderId"`
	AmountCents int64  `json:"amountCents"`
	ReferenceID string `json:"referenceId"`
}

// Capture charges the buyer for the given amount.
func (c *PaymentClient) Capture(ctx context.Context, orderID kernel.UUID, amount kernel.Money, referenceID kernel.ReferenceID) error {
	return postJSON(ctx, c.client, "payment", c.baseURL+"/api/v1/payments/capture", paymentRequest{
		OrderID:     orderID.String(),
		AmountCents: amount.Cents(),
		ReferenceID: referenceID.String(),
	})
}

// Refund returns a previously captured amount to the buyer.
func (c *PaymentClient) Refund(ctx context.Context, orderID kernel.UUID, amount kernel.Money, referenceID kernel.ReferenceID) error {
	return postJSON(ctx, c.client, "payment", c.baseURL+"/api/v1/payments/refund", paymentRequest{
		OrderID:     orderID.String(),
		AmountCents: amount.Cents(),
		ReferenceID: referenceID.String(),
	})
}

// LoyaltyClient calls the loyalty service.
type LoyaltyClient struct {
	baseURL string
	client  *http.Client
}

// NewLoyaltyClient creates a client for the loyalty service at baseURL.
func NewLoyaltyClient(baseURL string, client *http.Client) *LoyaltyClient {
	if client == nil {
		client = NewHTTPClient()
	}
	return &LoyaltyClient{baseURL: baseURL, client: client}
}

type loyaltyPointsRequest struct {
	OrderID     string `json:"orderId"`
	Points      int    `json:"points"`
	ReferenceID string `json:"referenceId"`
}

type loyaltyReverseRequest struct {
	OrderID     string `json:"orderId"`
	ReferenceID string `json:"referenceId"`
}

// Earn credits points to the buyer's balance.
func (c *LoyaltyClient) Earn(ctx context.Context, orderID kernel.UUID, points int, referenceID kernel.ReferenceID) error {
	return postJSON(ctx, c.client, "loyalty", c.baseURL+"/api/v1/points/earn", loyaltyPointsRequest{
		OrderID:     orderID.String(),
		Points:      points,
		ReferenceID: referenceID.String(),
	})
}

// Burn debits points from the buyer's balance.
func (c *LoyaltyClient) Burn(ctx context.Context, orderID kernel.UUID, points int, referenceID kernel.ReferenceID) error {
	return postJSON(ctx, c.client, "loyalty", c.baseURL+"/api/v1/points/burn", loyaltyPointsRequest{
		OrderID:     orderID.String(),
		Points:      points,
		ReferenceID: referenceID.String(),
	})
}

// Reverse undoes the earn or burn identified by the reference id.
func (c *LoyaltyClient) Reverse(ctx context.Context, orderID kernel.UUID, referenceID kernel.ReferenceID) error {
	return postJSON(ctx, c.client, "loyalty", c.baseURL+"/api/v1/points/reverse", loyaltyReverseRequest{
		OrderID:     orderID.String(),
		ReferenceID: referenceID.String(),
	})
}
