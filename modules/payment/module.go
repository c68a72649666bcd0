package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// PaymentModule exposes a Gateway as request-reply services.
type PaymentModule struct {
	callbackBase string
	gateway      Gateway
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*PaymentModule)(nil)
	_ mono.ServiceProviderModule = (*PaymentModule)(nil)
	_ mono.HealthCheckableModule = (*PaymentModule)(nil)
)

// NewModule creates a payment module backed by the mock gateway.
func NewModule(callbackBase string) *PaymentModule {
	return &PaymentModule{callbackBase: callbackBase}
}

// Name returns the module name.
func (m *PaymentModule) Name() string {
	return "payment"
}

// Start creates the gateway.
func (m *PaymentModule) Start(_ context.Context) error {
	if m.gateway == nil {
		gw, err := NewMockGateway(m.callbackBase)
		if err != nil {
			return err
		}
		m.gateway = gw
	}
	log.Printf("[payment] Module started (mock gateway, callback base %q)", m.callbackBase)
	return nil
}

// Stop shuts down the module.
func (m *PaymentModule) Stop(_ context.Context) error {
	log.Println("[payment] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *PaymentModule) Health(_ context.Context) mono.HealthStatus {
	if m.gateway == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "gateway not initialized",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"gateway": "mock",
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *PaymentModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"initialize-payment",
		json.Unmarshal,
		json.Marshal,
		m.handleInitialize,
	); err != nil {
		return fmt.Errorf("failed to register initialize-payment service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"verify-payment",
		json.Unmarshal,
		json.Marshal,
		m.handleVerify,
	); err != nil {
		return fmt.Errorf("failed to register verify-payment service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"claim-payment",
		json.Unmarshal,
		json.Marshal,
		m.handleClaim,
	); err != nil {
		return fmt.Errorf("failed to register claim-payment service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"release-payment",
		json.Unmarshal,
		json.Marshal,
		m.handleRelease,
	); err != nil {
		return fmt.Errorf("failed to register release-payment service: %w", err)
	}

	log.Printf("[payment] Registered services: initialize-payment, verify-payment, claim-payment, release-payment")
	return nil
}

func (m *PaymentModule) handleInitialize(ctx context.Context, req InitializeRequest, _ *mono.Msg) (InitializeReply, error) {
	res, err := m.gateway.InitializePayment(ctx, req)
	if err != nil {
		code, known := codeOf(err)
		if !known {
			return InitializeReply{}, err
		}
		return InitializeReply{Code: code}, nil
	}
	log.Printf("[payment] Initialized payment %s for %s (customer %d)", res.Reference, req.Amount, req.CustomerID)
	return InitializeReply{Result: *res}, nil
}

func (m *PaymentModule) handleVerify(ctx context.Context, req VerifyRequest, _ *mono.Msg) (VerifyReply, error) {
	res, err := m.gateway.VerifyPayment(ctx, req.Reference)
	if err != nil {
		code, known := codeOf(err)
		if !known {
			return VerifyReply{}, err
		}
		return VerifyReply{Code: code}, nil
	}
	return VerifyReply{Result: *res}, nil
}

func (m *PaymentModule) handleClaim(ctx context.Context, req ClaimRequest, _ *mono.Msg) (ClaimReply, error) {
	return claimReply(m.gateway.ClaimPayment(ctx, req.Reference, req.CustomerID))
}

func (m *PaymentModule) handleRelease(ctx context.Context, req VerifyRequest, _ *mono.Msg) (ClaimReply, error) {
	return claimReply(m.gateway.ReleasePayment(ctx, req.Reference))
}

func claimReply(err error) (ClaimReply, error) {
	if err == nil {
		return ClaimReply{}, nil
	}
	code, known := codeOf(err)
	if !known {
		return ClaimReply{}, err
	}
	return ClaimReply{Code: code}, nil
}
