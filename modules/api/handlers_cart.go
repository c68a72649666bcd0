package api

import (
	"github.com/emmanuel197/kuandorwear-media/domain/shop"
	"github.com/gofiber/fiber/v2"
)

// GetCart handles GET /api/cart. Users without a cart get an empty one.
func (s *server) GetCart(c *fiber.Ctx) error {
	user := userOf(c)
	cart, err := s.store.GetCart(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	if cart == nil {
		cart = &shop.Cart{UserID: user.ID}
	}
	if cart.Items == nil {
		cart.Items = []shop.CartItem{}
	}
	return c.JSON(cart)
}

// ReplaceCart handles PUT /api/cart. The items replace the stored cart.
func (s *server) ReplaceCart(c *fiber.Ctx) error {
	var body CartBody
	if err := s.bind(c, &body); err != nil {
		return err
	}
	items := make([]shop.CartItem, 0, len(body.Items))
	for _, line := range body.Items {
		items = append(items, shop.CartItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Size:      line.Size,
			Color:     line.Color,
		})
	}
	cart, err := s.store.UpdateCart(c.UserContext(), userOf(c).ID, items)
	if err != nil {
		return err
	}
	return c.JSON(cart)
}

// ClearCart handles DELETE /api/cart.
func (s *server) ClearCart(c *fiber.Ctx) error {
	cart, err := s.store.UpdateCart(c.UserContext(), userOf(c).ID, []shop.CartItem{})
	if err != nil {
		return err
	}
	return c.JSON(cart)
}
