package api

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/emmanuel197/kuandorwear-media/modules/payment"
	"github.com/emmanuel197/kuandorwear-media/modules/uploads"
	"github.com/gofiber/fiber/v2"
)

// UploadImage handles POST /api/upload with a multipart "image" field.
func (s *server) UploadImage(c *fiber.Ctx) error {
	if s.images == nil {
		return &APIError{Status: fiber.StatusServiceUnavailable, Code: "unavailable", Message: "Uploads are not available"}
	}

	file, err := c.FormFile("image")
	if err != nil {
		return fieldError("image", "is required")
	}
	contentType := file.Header.Get("Content-Type")
	if err := s.images.CheckUpload(contentType, file.Size); err != nil {
		return s.uploadError(err)
	}

	f, err := file.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.images.MaxBytes()+1))
	if err != nil {
		return err
	}

	url, err := s.images.SaveImage(c.UserContext(), file.Filename, data, contentType)
	if err != nil {
		return s.uploadError(err)
	}
	log.Printf("[api] Stored upload %s (%d bytes)", url, len(data))
	return c.Status(fiber.StatusCreated).JSON(URLResponse{URL: url})
}

// ServeImage handles GET /uploads/:id/:name.
func (s *server) ServeImage(c *fiber.Ctx) error {
	if s.images == nil {
		return notFound("Image")
	}
	img, err := s.images.GetImage(c.UserContext(), c.Params("id"), c.Params("name"))
	if errors.Is(err, uploads.ErrImageNotFound) {
		return notFound("Image")
	}
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, img.ContentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.Send(img.Data)
}

func (s *server) uploadError(err error) error {
	switch {
	case errors.Is(err, uploads.ErrUnsupportedType):
		return fieldError("image", "Only image files are allowed")
	case errors.Is(err, uploads.ErrContentMismatch):
		return fieldError("image", "File content is not a valid image of the declared type")
	case errors.Is(err, uploads.ErrTooLarge):
		return fieldError("image", fmt.Sprintf("File exceeds the %d MB limit", s.images.MaxBytes()>>20))
	case errors.Is(err, uploads.ErrEmptyFile):
		return fieldError("image", "File is empty")
	default:
		return err
	}
}

// InitializePayment handles POST /api/payment/initialize.
func (s *server) InitializePayment(c *fiber.Ctx) error {
	var body PaymentBody
	if err := s.bind(c, &body); err != nil {
		return err
	}
	if !body.Amount.IsPositive() {
		return fieldError("amount", "must be greater than 0")
	}

	metadata := body.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	customerID := userOf(c).ID
	metadata["customerId"] = customerID

	res, err := s.payments.InitializePayment(c.UserContext(), payment.InitializeRequest{
		CustomerID: customerID,
		Email:      body.Email,
		Amount:     body.Amount,
		Metadata:   metadata,
	})
	if err != nil {
		return paymentError(err)
	}
	return c.JSON(res)
}

// VerifyPayment handles GET /api/payment/verify/:reference.
func (s *server) VerifyPayment(c *fiber.Ctx) error {
	res, err := s.payments.VerifyPayment(c.UserContext(), c.Params("reference"))
	if err != nil {
		return paymentError(err)
	}
	return c.JSON(res)
}

func paymentError(err error) error {
	switch {
	case errors.Is(err, payment.ErrReferenceNotFound):
		return notFound("Payment reference")
	case errors.Is(err, payment.ErrInvalidAmount):
		return fieldError("amount", err.Error())
	case errors.Is(err, payment.ErrMissingEmail):
		return fieldError("email", err.Error())
	default:
		return err
	}
}
