package api

import (
	"github.com/emmanuel197/kuandorwear-media/domain/shop"
	"github.com/gofiber/fiber/v2"
)

// ListInventory handles GET /api/inventory. Suppliers see their own rows;
// admins must name a supplier.
func (s *server) ListInventory(c *fiber.Ctx) error {
	user := userOf(c)
	supplierID := user.ID
	if user.Role == shop.RoleAdmin {
		id, err := queryID(c, "supplierId")
		if err != nil {
			return err
		}
		if id == nil {
			return fieldError("supplierId", "is required")
		}
		supplierID = *id
	}

	rows, err := s.store.GetInventory(c.UserContext(), supplierID)
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

// SetInventory handles PUT /api/inventory/:productId. The row always
// belongs to the product's supplier and the product's stock follows it.
func (s *server) SetInventory(c *fiber.Ctx) error {
	productID, err := paramID(c, "productId")
	if err != nil {
		return err
	}
	var body InventoryBody
	if err := s.bind(c, &body); err != nil {
		return err
	}

	ctx := c.UserContext()
	product, err := s.ownedProduct(ctx, userOf(c), productID)
	if err != nil {
		return err
	}

	row, err := s.store.UpdateInventory(ctx, product.SupplierID, productID, *body.Stock)
	if err != nil {
		return err
	}
	return c.JSON(row)
}
