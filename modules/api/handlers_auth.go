package api

import (
	"errors"

	"github.com/emmanuel197/kuandorwear-media/modules/auth"
	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/register.
func (s *server) Register(c *fiber.Ctx) error {
	var body RegisterBody
	if err := s.bind(c, &body); err != nil {
		return err
	}

	user, err := s.auth.Register(c.UserContext(), auth.RegisterRequest{
		Username: body.Username,
		Password: body.Password,
		Email:    body.Email,
		FullName: body.FullName,
		Role:     body.Role,
	})
	if err != nil {
		return authError(err)
	}

	if err := s.startSession(c, user.ID); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles POST /api/login.
func (s *server) Login(c *fiber.Ctx) error {
	var body LoginBody
	if err := s.bind(c, &body); err != nil {
		return err
	}

	user, err := s.auth.Login(c.UserContext(), body.Username, body.Password)
	if err != nil {
		return authError(err)
	}

	if err := s.startSession(c, user.ID); err != nil {
		return err
	}
	return c.JSON(user)
}

// Logout handles POST /api/logout.
func (s *server) Logout(c *fiber.Ctx) error {
	if err := s.endSession(c); err != nil {
		return err
	}
	return c.JSON(MessageResponse{Message: "Logged out successfully"})
}

// CurrentUser handles GET /api/user.
func (s *server) CurrentUser(c *fiber.Ctx) error {
	return c.JSON(userOf(c))
}

// authError maps auth sentinel errors to API errors.
func authError(err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return unauthenticated("Invalid username or password")
	case errors.Is(err, auth.ErrUsernameTaken):
		return fieldError("username", "Username already exists")
	case errors.Is(err, auth.ErrInvalidUsername):
		return fieldError("username", err.Error())
	case errors.Is(err, auth.ErrWeakPassword):
		return fieldError("password", err.Error())
	case errors.Is(err, auth.ErrInvalidEmail):
		return fieldError("email", err.Error())
	case errors.Is(err, auth.ErrInvalidRole):
		return fieldError("role", err.Error())
	default:
		return err
	}
}
