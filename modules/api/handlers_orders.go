package api

import (
	"context"
	"time"

	"github.com/emmanuel197/kuandorwear-media/domain/shop"
	"github.com/emmanuel197/kuandorwear-media/events"
	"github.com/emmanuel197/kuandorwear-media/modules/auth"
	"github.com/gofiber/fiber/v2"
)

// ListOrders handles GET /api/orders. Customers see their own orders,
// suppliers see orders containing their products (narrowed to those items),
// admins see everything and may filter by status and customerId.
func (s *server) ListOrders(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user := userOf(c)

	var filter shop.OrderFilter
	switch user.Role {
	case shop.RoleCustomer:
		filter.CustomerID = &user.ID
	case shop.RoleAdmin:
		customerID, err := queryID(c, "customerId")
		if err != nil {
			return err
		}
		filter.CustomerID = customerID
		if raw := c.Query("status"); raw != "" {
			status := shop.OrderStatus(raw)
			if !status.Valid() {
				return fieldError("status", "is not a valid order status")
			}
			filter.Status = &status
		}
	}

	orders, err := s.store.GetOrders(ctx, filter)
	if err != nil {
		return err
	}

	v := s.newVisibility(user)
	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		view, err := v.view(ctx, &orders[i])
		if err != nil {
			return err
		}
		if view != nil {
			views = append(views, *view)
		}
	}
	return c.JSON(views)
}

// GetOrder handles GET /api/orders/:id. Orders the caller may not see are
// reported as missing.
func (s *server) GetOrder(c *fiber.Ctx) error {
	view, err := s.visibleOrder(c)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// PlaceOrder handles POST /api/orders.
func (s *server) PlaceOrder(c *fiber.Ctx) error {
	var body OrderBody
	if err := s.bind(c, &body); err != nil {
		return err
	}
	view, err := s.checkout(c.UserContext(), userOf(c).ID, body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

// UpdateOrder handles PATCH /api/orders/:id. Any status may follow any
// other. Suppliers may change the status of orders containing their
// products but never the payment status.
func (s *server) UpdateOrder(c *fiber.Ctx) error {
	var body OrderPatchBody
	if err := s.bind(c, &body); err != nil {
		return err
	}
	if body.Status == nil && body.PaymentStatus == nil {
		return validationFailed(map[string]string{
			"status":        "status or paymentStatus is required",
			"paymentStatus": "status or paymentStatus is required",
		})
	}
	fields := map[string]string{}
	if body.Status != nil && !body.Status.Valid() {
		fields["status"] = "is not a valid order status"
	}
	if body.PaymentStatus != nil && !body.PaymentStatus.Valid() {
		fields["paymentStatus"] = "is not a valid payment status"
	}
	if len(fields) > 0 {
		return validationFailed(fields)
	}

	user := userOf(c)
	if user.Role == shop.RoleSupplier && body.PaymentStatus != nil {
		return forbidden()
	}

	before, err := s.visibleOrder(c)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	updated, err := s.store.UpdateOrder(ctx, before.ID, shop.OrderPatch{
		Status:        body.Status,
		PaymentStatus: body.PaymentStatus,
	})
	if err != nil {
		return err
	}
	if updated == nil {
		return notFound("Order")
	}

	if updated.Status != before.Status {
		s.events.OrderStatusChanged(events.OrderStatusChangedEvent{
			OrderID:   updated.ID,
			From:      string(before.Status),
			To:        string(updated.Status),
			ChangedAt: time.Now(),
		})
	}
	return c.JSON(OrderView{Order: *updated, Items: before.Items})
}

// DeleteOrder handles DELETE /api/orders/:id.
func (s *server) DeleteOrder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	deleted, err := s.store.DeleteOrder(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound("Order")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// visibleOrder loads the :id order as seen by the caller.
func (s *server) visibleOrder(c *fiber.Ctx) (*OrderView, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	ctx := c.UserContext()
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, notFound("Order")
	}
	view, err := s.newVisibility(userOf(c)).view(ctx, order)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, notFound("Order")
	}
	return view, nil
}

// visibility narrows orders to what one user may see. Product ownership
// lookups are cached for the lifetime of the value.
type visibility struct {
	s      *server
	user   *auth.UserProfile
	owners map[uint]uint
}

func (s *server) newVisibility(user *auth.UserProfile) *visibility {
	return &visibility{s: s, user: user, owners: make(map[uint]uint)}
}

// view returns the order with the items the user may see, or nil when the
// user may not see the order at all.
func (v *visibility) view(ctx context.Context, order *shop.Order) (*OrderView, error) {
	if v.user.Role == shop.RoleCustomer && order.CustomerID != v.user.ID {
		return nil, nil
	}

	items, err := v.s.store.GetOrderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []shop.OrderItem{}
	}

	if v.user.Role != shop.RoleSupplier {
		return &OrderView{Order: *order, Items: items}, nil
	}

	own := make([]shop.OrderItem, 0, len(items))
	for _, item := range items {
		owner, err := v.ownerOf(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if owner == v.user.ID {
			own = append(own, item)
		}
	}
	if len(own) == 0 {
		return nil, nil
	}
	return &OrderView{Order: *order, Items: own}, nil
}

// ownerOf returns the supplier of a product, or 0 when it no longer exists.
func (v *visibility) ownerOf(ctx context.Context, productID uint) (uint, error) {
	if owner, ok := v.owners[productID]; ok {
		return owner, nil
	}
	product, err := v.s.store.GetProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	var owner uint
	if product != nil {
		owner = product.SupplierID
	}
	v.owners[productID] = owner
	return owner, nil
}
