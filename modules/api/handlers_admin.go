package api

import (
	"context"
	"log"

	"github.com/emmanuel197/kuandorwear-media/domain/shop"
	"github.com/emmanuel197/kuandorwear-media/modules/auth"
	"github.com/emmanuel197/kuandorwear-media/modules/orderevents"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const statsRecentEvents = 10

// ListUsers handles GET /api/admin/users?role=.
func (s *server) ListUsers(c *fiber.Ctx) error {
	role := shop.Role(c.Query("role"))
	if role == "" {
		return fieldError("role", "is required")
	}
	if !role.Valid() {
		return fieldError("role", "must be one of: admin, supplier, customer")
	}

	users, err := s.store.GetUsersByRole(c.UserContext(), role)
	if err != nil {
		return err
	}
	profiles := make([]auth.UserProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, auth.ProfileOf(&users[i]))
	}
	return c.JSON(profiles)
}

// Stats handles GET /api/admin/stats. Revenue excludes cancelled orders.
func (s *server) Stats(c *fiber.Ctx) error {
	g, ctx := errgroup.WithContext(c.UserContext())
	var stats StatsView

	g.Go(func() error {
		users, err := s.store.GetUsersByRole(ctx, shop.RoleCustomer)
		stats.Customers = len(users)
		return err
	})
	g.Go(func() error {
		users, err := s.store.GetUsersByRole(ctx, shop.RoleSupplier)
		stats.Suppliers = len(users)
		return err
	})
	g.Go(func() error {
		products, err := s.store.GetProducts(ctx, shop.ProductFilter{})
		stats.Products = len(products)
		return err
	})
	g.Go(func() error {
		orders, err := s.store.GetOrders(ctx, shop.OrderFilter{})
		if err != nil {
			return err
		}
		revenue := decimal.Zero
		for _, o := range orders {
			if o.Status != shop.OrderCancelled {
				revenue = revenue.Add(o.TotalAmount)
			}
		}
		stats.Orders = len(orders)
		stats.Revenue = revenue
		return nil
	})
	g.Go(func() error {
		stats.RecentEvents = s.recentEvents(ctx, statsRecentEvents)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return c.JSON(stats)
}

// recentEvents reads the event feed. The feed is informational, so failures
// yield an empty list.
func (s *server) recentEvents(ctx context.Context, limit int) []orderevents.FeedEntry {
	if s.feed == nil {
		return []orderevents.FeedEntry{}
	}
	entries, err := s.feed.Recent(ctx, limit)
	if err != nil {
		log.Printf("[api] Warning: failed to read order events: %v", err)
		return []orderevents.FeedEntry{}
	}
	if entries == nil {
		entries = []orderevents.FeedEntry{}
	}
	return entries
}
