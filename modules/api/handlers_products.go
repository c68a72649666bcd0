package api

import (
	"context"
	"fmt"
	"time"

	"github.com/emmanuel197/kuandorwear-media/domain/shop"
	"github.com/emmanuel197/kuandorwear-media/events"
	"github.com/emmanuel197/kuandorwear-media/modules/auth"
	"github.com/emmanuel197/kuandorwear-media/modules/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ListProducts handles GET /api/products. Only active products are listed.
func (s *server) ListProducts(c *fiber.Ctx) error {
	active := true
	filter := shop.ProductFilter{IsActive: &active}
	// Routing admits includeInactive for admins only.
	if all, _ := queryBool(c, "includeInactive"); all != nil && *all {
		filter.IsActive = nil
	}

	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	supplierID, err := queryID(c, "supplierId")
	if err != nil {
		return err
	}
	filter.SupplierID = supplierID
	comingSoon, err := queryBool(c, "comingSoon")
	if err != nil {
		return err
	}
	filter.ComingSoon = comingSoon

	products, err := s.store.GetProducts(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// TrendingProducts handles GET /api/products/trending.
func (s *server) TrendingProducts(c *fiber.Ctx) error {
	return s.ranking(c, "trending", s.store.GetTrendingProducts)
}

// TopSellingProducts handles GET /api/products/top-selling.
func (s *server) TopSellingProducts(c *fiber.Ctx) error {
	return s.ranking(c, "top-selling", s.store.GetTopSellingProducts)
}

// ranking coalesces concurrent identical ranking reads into one storage call.
func (s *server) ranking(c *fiber.Ctx, kind string, load func(context.Context, int) ([]shop.Product, error)) error {
	limit := c.QueryInt("limit", storage.DefaultRankingLimit)
	if limit <= 0 {
		limit = storage.DefaultRankingLimit
	}
	products, err := s.loadRanking(c.UserContext(), fmt.Sprintf("%s:%d", kind, limit), limit, load)
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// loadRanking runs load at most once per key at a time. The shared call is
// detached from ctx, so one caller going away does not fail the others.
func (s *server) loadRanking(ctx context.Context, key string, limit int, load func(context.Context, int) ([]shop.Product, error)) ([]shop.Product, error) {
	ch := s.rankings.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), rankingTimeout)
		defer cancel()
		return load(shared, limit)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]shop.Product), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetProduct handles GET /api/products/:id.
func (s *server) GetProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	product, err := s.store.GetProduct(c.UserContext(), id)
	if err != nil {
		return err
	}
	if product == nil {
		return notFound("Product")
	}
	return c.JSON(product)
}

// SupplierProducts handles GET /api/supplier/products.
func (s *server) SupplierProducts(c *fiber.Ctx) error {
	user := userOf(c)
	products, err := s.store.GetProducts(c.UserContext(), shop.ProductFilter{SupplierID: &user.ID})
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// CreateProduct handles POST /api/products. The initial stock is also
// recorded in the supplier's inventory.
func (s *server) CreateProduct(c *fiber.Ctx) error {
	var body ProductBody
	if err := s.bind(c, &body); err != nil {
		return err
	}
	if err := checkMoney(&body.Price, body.Discount); err != nil {
		return err
	}

	ctx := c.UserContext()
	user := userOf(c)
	supplierID := user.ID
	if user.Role == shop.RoleAdmin {
		if err := s.checkSupplier(ctx, body.SupplierID); err != nil {
			return err
		}
		supplierID = body.SupplierID
	}

	in := shop.NewProduct{
		Name:            body.Name,
		Description:     body.Description,
		Price:           body.Price,
		Category:        body.Category,
		ImageURLs:       body.ImageURLs,
		AvailableSizes:  body.AvailableSizes,
		AvailableColors: body.AvailableColors,
		SupplierID:      supplierID,
		Stock:           body.Stock,
		IsActive:        body.IsActive == nil || *body.IsActive,
		ComingSoon:      body.ComingSoon,
		ReleaseDate:     body.ReleaseDate,
	}
	if body.Discount != nil {
		in.Discount = *body.Discount
	}

	var created *shop.Product
	err := s.store.Atomically(ctx, func(tx storage.Storage) error {
		p, err := tx.CreateProduct(ctx, in)
		if err != nil {
			return err
		}
		if _, err := tx.UpdateInventory(ctx, supplierID, p.ID, p.Stock); err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateProduct handles PATCH /api/products/:id. A stock change is also
// written to the owning supplier's inventory.
func (s *server) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var body ProductPatchBody
	if err := s.bind(c, &body); err != nil {
		return err
	}
	if err := checkMoney(body.Price, body.Discount); err != nil {
		return err
	}

	ctx := c.UserContext()
	product, err := s.ownedProduct(ctx, userOf(c), id)
	if err != nil {
		return err
	}

	var updated *shop.Product
	err = s.store.Atomically(ctx, func(tx storage.Storage) error {
		p, err := tx.UpdateProduct(ctx, id, body.patch())
		if err != nil {
			return err
		}
		if p == nil {
			return notFound("Product")
		}
		if body.Stock != nil {
			if _, err := tx.UpdateInventory(ctx, product.SupplierID, id, *body.Stock); err != nil {
				return err
			}
		}
		updated = p
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

// DeleteProduct handles DELETE /api/products/:id.
func (s *server) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	product, err := s.ownedProduct(ctx, userOf(c), id)
	if err != nil {
		return err
	}

	deleted, err := s.store.DeleteProduct(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound("Product")
	}

	s.events.ProductDeleted(events.ProductDeletedEvent{
		ProductID:  id,
		SupplierID: product.SupplierID,
		DeletedAt:  time.Now(),
	})
	return c.SendStatus(fiber.StatusNoContent)
}

// ownedProduct loads a product the user may manage: admins manage every
// product, suppliers only their own.
func (s *server) ownedProduct(ctx context.Context, user *auth.UserProfile, id uint) (*shop.Product, error) {
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, notFound("Product")
	}
	if user.Role != shop.RoleAdmin && product.SupplierID != user.ID {
		return nil, forbidden()
	}
	return product, nil
}

// checkSupplier verifies that id names a supplier account.
func (s *server) checkSupplier(ctx context.Context, id uint) error {
	if id == 0 {
		return fieldError("supplierId", "is required")
	}
	supplier, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if supplier == nil || supplier.Role != shop.RoleSupplier {
		return fieldError("supplierId", "must reference a supplier")
	}
	return nil
}

// checkMoney validates a price and a percentage discount. Nil values are skipped.
func checkMoney(price, discount *decimal.Decimal) error {
	fields := map[string]string{}
	if price != nil && !price.IsPositive() {
		fields["price"] = "must be greater than 0"
	}
	if discount != nil && (discount.IsNegative() || discount.GreaterThan(hundred)) {
		fields["discount"] = "must be between 0 and 100"
	}
	if len(fields) > 0 {
		return validationFailed(fields)
	}
	return nil
}
