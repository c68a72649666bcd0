package orderevents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// FeedPort reads the recent event feed.
type FeedPort interface {
	Recent(ctx context.Context, limit int) ([]FeedEntry, error)
}

// FeedAdapter implements FeedPort using the service container.
type FeedAdapter struct {
	container mono.ServiceContainer
}

var _ FeedPort = (*FeedAdapter)(nil)

// NewFeedAdapter creates a new FeedAdapter.
func NewFeedAdapter(container mono.ServiceContainer) *FeedAdapter {
	return &FeedAdapter{container: container}
}

// Recent returns up to limit events, newest first.
func (a *FeedAdapter) Recent(ctx context.Context, limit int) ([]FeedEntry, error) {
	req := RecentRequest{Limit: limit}
	var resp RecentResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"recent-order-events",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("recent-order-events request failed: %w", err)
	}
	return resp.Events, nil
}
