package payment

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"strings"
	"sync"

	"github.com/jaevor/go-nanoid"
)

const (
	referencePrefix   = "ref_"
	referenceAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	referenceLength   = 16
)

// MockGateway accepts every payment. It remembers initialized payments in
// memory so that verification can echo back the amount and metadata, and so
// that each reference is claimed at most once.
type MockGateway struct {
	callbackBase string
	newID        func() string

	mu       sync.RWMutex
	payments map[string]*mockPayment
}

type mockPayment struct {
	request InitializeRequest
	claimed bool
}

var _ Gateway = (*MockGateway)(nil)

// NewMockGateway creates a gateway whose authorization URLs point at callbackBase.
func NewMockGateway(callbackBase string) (*MockGateway, error) {
	gen, err := nanoid.CustomASCII(referenceAlphabet, referenceLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create reference generator: %w", err)
	}
	return &MockGateway{
		callbackBase: strings.TrimRight(callbackBase, "/"),
		newID:        gen,
		payments:     make(map[string]*mockPayment),
	}, nil
}

// InitializePayment records the payment and returns its reference.
func (g *MockGateway) InitializePayment(_ context.Context, req InitializeRequest) (*InitializeResult, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, ErrMissingEmail
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	reference := referencePrefix + g.newID()
	req.Metadata = maps.Clone(req.Metadata)

	g.mu.Lock()
	g.payments[reference] = &mockPayment{request: req}
	g.mu.Unlock()

	return &InitializeResult{
		Success:          true,
		AuthorizationURL: g.callbackBase + "/checkout/callback?reference=" + url.QueryEscape(reference),
		Reference:        reference,
	}, nil
}

// VerifyPayment reports a known reference as successful.
func (g *MockGateway) VerifyPayment(_ context.Context, reference string) (*VerifyResult, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.payments[reference]
	if !ok {
		return nil, ErrReferenceNotFound
	}

	metadata := maps.Clone(p.request.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &VerifyResult{
		Success: true,
		Data: Transaction{
			Status:     StatusSuccess,
			Reference:  reference,
			Amount:     p.request.Amount,
			CustomerID: p.request.CustomerID,
			Claimed:    p.claimed,
			Metadata:   metadata,
		},
	}, nil
}

// ClaimPayment marks reference as used by customerID.
func (g *MockGateway) ClaimPayment(_ context.Context, reference string, customerID uint) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.payments[reference]
	switch {
	case !ok:
		return ErrReferenceNotFound
	case p.request.CustomerID != customerID:
		return ErrReferenceCustomer
	case p.claimed:
		return ErrReferenceClaimed
	}
	p.claimed = true
	return nil
}

// ReleasePayment makes a claimed reference available again.
func (g *MockGateway) ReleasePayment(_ context.Context, reference string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.payments[reference]
	if !ok {
		return ErrReferenceNotFound
	}
	p.claimed = false
	return nil
}
