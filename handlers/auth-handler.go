package handler

import (
	"errors"

	"github.com/aljonleynes11/media-coding-exam-backend/auth"
	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *fiber.Ctx) error {
	input := new(registerRequest)
	if err := c.BodyParser(input); err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, "Invalid request body")
	}

	user, err := h.accounts.Register(c.UserContext(), input.Email, input.Password, input.ConfirmPassword)
	if err != nil {
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			return fail(c, fiber.StatusUnprocessableEntity, verr.Message)
		case errors.Is(err, auth.ErrEmailTaken):
			return fail(c, fiber.StatusConflict, "Email already registered")
		}
		h.log.Error(c.UserContext(), "register failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to create user")
	}

	return success(c, fiber.StatusCreated, "Registration successful. Please proceed to login.", fiber.Map{
		"id":    user.ID,
		"email": user.Email,
	})
}

func (h *Handler) Login(c *fiber.Ctx) error {
	input := new(loginRequest)
	if err := c.BodyParser(input); err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, "Invalid request body")
	}

	session, err := h.accounts.Login(c.UserContext(), input.Email, input.Password)
	if err != nil {
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			return fail(c, fiber.StatusUnprocessableEntity, verr.Message)
		case errors.Is(err, auth.ErrInvalidCredentials):
			return fail(c, fiber.StatusUnauthorized, "Invalid email or password")
		}
		h.log.Error(c.UserContext(), "login failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Login failed")
	}

	return success(c, fiber.StatusOK, "Login successful", session)
}
