package api

import (
	"github.com/emmanuel197/kuandorwear-media/domain/shop"
	"github.com/emmanuel197/kuandorwear-media/modules/storage"
	"github.com/gofiber/fiber/v2"
)

// ListProductReviews handles GET /api/products/:id/reviews.
func (s *server) ListProductReviews(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	reviews, err := s.store.GetReviews(c.UserContext(), &id)
	if err != nil {
		return err
	}
	return c.JSON(reviews)
}

// CreateReview handles POST /api/products/:id/reviews.
func (s *server) CreateReview(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var body ReviewBody
	if err := s.bind(c, &body); err != nil {
		return err
	}

	ctx := c.UserContext()
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if product == nil {
		return notFound("Product")
	}

	review, err := s.store.CreateReview(ctx, shop.NewReview{
		ProductID:  id,
		CustomerID: int(userOf(c).ID),
		Rating:     body.Rating,
		Comment:    body.Comment,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// TopReviews handles GET /api/reviews/top.
func (s *server) TopReviews(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", storage.DefaultTopReviewsLimit)
	reviews, err := s.store.GetTopReviews(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(reviews)
}

// ListAllReviews handles GET /api/admin/reviews.
func (s *server) ListAllReviews(c *fiber.Ctx) error {
	reviews, err := s.store.GetReviews(c.UserContext(), nil)
	if err != nil {
		return err
	}
	return c.JSON(reviews)
}

// CreateAdminReview handles POST /api/admin/reviews.
func (s *server) CreateAdminReview(c *fiber.Ctx) error {
	var body AdminReviewBody
	if err := s.bind(c, &body); err != nil {
		return err
	}

	ctx := c.UserContext()
	product, err := s.store.GetProduct(ctx, body.ProductID)
	if err != nil {
		return err
	}
	if product == nil {
		return fieldError("productId", "product does not exist")
	}

	review, err := s.store.CreateReview(ctx, shop.NewReview{
		ProductID:  body.ProductID,
		CustomerID: body.CustomerID,
		Rating:     body.Rating,
		Comment:    body.Comment,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// DeleteReview handles DELETE /api/admin/reviews/:id.
func (s *server) DeleteReview(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	deleted, err := s.store.DeleteReview(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound("Review")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
