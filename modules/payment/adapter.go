package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Adapter implements Gateway using the payment module's services, so callers
// do not depend on which gateway backs the module.
type Adapter struct {
	container mono.ServiceContainer
}

var _ Gateway = (*Adapter)(nil)

// NewAdapter creates a new Adapter.
func NewAdapter(container mono.ServiceContainer) *Adapter {
	return &Adapter{container: container}
}

// InitializePayment starts a payment.
func (a *Adapter) InitializePayment(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	var resp InitializeReply
	if err := a.call(ctx, "initialize-payment", &req, &resp); err != nil {
		return nil, err
	}
	if resp.Code != "" {
		return nil, errorOf(resp.Code)
	}
	return &resp.Result, nil
}

// VerifyPayment reports the state of a payment.
func (a *Adapter) VerifyPayment(ctx context.Context, reference string) (*VerifyResult, error) {
	req := VerifyRequest{Reference: reference}
	var resp VerifyReply
	if err := a.call(ctx, "verify-payment", &req, &resp); err != nil {
		return nil, err
	}
	if resp.Code != "" {
		return nil, errorOf(resp.Code)
	}
	return &resp.Result, nil
}

// ClaimPayment marks a reference as used by customerID.
func (a *Adapter) ClaimPayment(ctx context.Context, reference string, customerID uint) error {
	req := ClaimRequest{Reference: reference, CustomerID: customerID}
	var resp ClaimReply
	if err := a.call(ctx, "claim-payment", &req, &resp); err != nil {
		return err
	}
	if resp.Code != "" {
		return errorOf(resp.Code)
	}
	return nil
}

// ReleasePayment makes a claimed reference available again.
func (a *Adapter) ReleasePayment(ctx context.Context, reference string) error {
	req := VerifyRequest{Reference: reference}
	var resp ClaimReply
	if err := a.call(ctx, "release-payment", &req, &resp); err != nil {
		return err
	}
	if resp.Code != "" {
		return errorOf(resp.Code)
	}
	return nil
}

func (a *Adapter) call(ctx context.Context, service string, req, resp any) error {
	return helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	)
}

// errorCodes names the sentinels that travel in service replies.
var errorCodes = map[string]error{
	"reference_not_found": ErrReferenceNotFound,
	"invalid_amount":      ErrInvalidAmount,
	"missing_email":       ErrMissingEmail,
	"reference_claimed":   ErrReferenceClaimed,
	"reference_customer":  ErrReferenceCustomer,
}

func codeOf(err error) (string, bool) {
	for code, sentinel := range errorCodes {
		if errors.Is(err, sentinel) {
			return code, true
		}
	}
	return "", false
}

func errorOf(code string) error {
	if err, ok := errorCodes[code]; ok {
		return err
	}
	return fmt.Errorf("payment: unknown error code %q", code)
}
