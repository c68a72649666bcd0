package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrReferenceNotFound is returned when verifying an unknown reference.
	ErrReferenceNotFound = errors.New("payment reference not found")
	// ErrInvalidAmount is returned when initializing a payment with amount <= 0.
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	// ErrMissingEmail is returned when initializing a payment without an email.
	ErrMissingEmail = errors.New("email is required")
	// ErrReferenceClaimed is returned when a reference already paid for an order.
	ErrReferenceClaimed = errors.New("payment reference has already been used")
	// ErrReferenceCustomer is returned when a reference is claimed by a customer
	// other than the one who initialized it.
	ErrReferenceCustomer = errors.New("payment reference belongs to another customer")
)

// StatusSuccess is the verification status of a completed payment.
const StatusSuccess = "success"

// Gateway initializes and verifies payments.
//
// A successful payment settles exactly one order: ClaimPayment marks the
// reference as used by the customer who initialized it and fails on any
// later claim. ReleasePayment undoes a claim whose order was never created.
type Gateway interface {
	InitializePayment(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	VerifyPayment(ctx context.Context, reference string) (*VerifyResult, error)
	ClaimPayment(ctx context.Context, reference string, customerID uint) error
	ReleasePayment(ctx context.Context, reference string) error
}

// InitializeRequest starts a payment on behalf of CustomerID.
type InitializeRequest struct {
	CustomerID uint            `json:"customerId"`
	Email      string          `json:"email" validate:"required,email"`
	Amount     decimal.Decimal `json:"amount"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
}

// InitializeResult is returned to the client, which redirects to AuthorizationURL.
type InitializeResult struct {
	Success          bool   `json:"success"`
	AuthorizationURL string `json:"authorizationUrl"`
	Reference        string `json:"reference"`
}

// VerifyResult reports the state of a payment.
type VerifyResult struct {
	Success bool        `json:"success"`
	Data    Transaction `json:"data"`
}

// Transaction is the verified payment.
type Transaction struct {
	Status     string          `json:"status"`
	Reference  string          `json:"reference"`
	Amount     decimal.Decimal `json:"amount"`
	CustomerID uint            `json:"customerId"`
	Claimed    bool            `json:"claimed"`
	Metadata   map[string]any  `json:"metadata"`
}

// VerifyRequest is the verify-payment and release-payment service payload.
type VerifyRequest struct {
	Reference string `json:"reference"`
}

// ClaimRequest is the claim-payment service payload.
type ClaimRequest struct {
	Reference  string `json:"reference"`
	CustomerID uint   `json:"customerId"`
}

// InitializeReply is the initialize-payment service reply. Code is set, and
// Result left empty, when the call failed with a known error.
type InitializeReply struct {
	Result InitializeResult `json:"result"`
	Code   string           `json:"code,omitempty"`
}

// VerifyReply is the verify-payment service reply.
type VerifyReply struct {
	Result VerifyResult `json:"result"`
	Code   string       `json:"code,omitempty"`
}

// ClaimReply is the reply of the claim-payment and release-payment services.
type ClaimReply struct {
	Code string `json:"code,omitempty"`
}
