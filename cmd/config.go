package cmd

import "time"

// Config carries every tunable the application reads at startup.
type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	StockServiceURL   string
	PaymentServiceURL string
	LoyaltyServiceURL string

	// GuardWaitMode is "block" or "failfast" and decides how duplicate
	// commands racing an in-flight first attempt are handled.
	GuardWaitMode string

	WorkflowStepTimeout    time.Duration
	WorkflowMaxAttempts    int
	WorkflowInitialBackoff time.Duration
	WorkflowMaxBackoff     time.Duration

	// FulfillmentWindow is how long after completion an order may still be
	// cancelled.
	FulfillmentWindow time.Duration

	// LoyaltyRatioCents is how many minor units earn one loyalty point.
	LoyaltyRatioCents int64

	ResumeSchedule  string
	ResumeBatchSize int

	// ResumeStaleAfter is how long a checkpoint may go untouched before the
	// resume sweep treats its run as abandoned. Zero derives a default from
	// the step timeout and retry backoff.
	ResumeStaleAfter time.Duration
}
