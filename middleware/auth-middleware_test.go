package middleware

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/aljonleynes11/media-coding-exam-backend/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifierFunc func(string) (auth.Identity, error)

func (f verifierFunc) Verify(tok string) (auth.Identity, error) { return f(tok) }

func newApp() *fiber.App {
	verifier := verifierFunc(func(tok string) (auth.Identity, error) {
		if tok == "good" {
			return auth.Identity{UserID: "user-1", Email: "u@example.com"}, nil
		}
		return auth.Identity{}, errors.New("bad token")
	})

	app := fiber.New()
	app.Get("/private", AuthMiddleware(verifier), func(c *fiber.Ctx) error {
		id, err := CheckUserLoggedIn(c)
		if err != nil {
			return err
		}
		return c.SendString(id)
	})
	app.Get("/open", func(c *fiber.Ctx) error {
		_, err := CheckUserLoggedIn(c)
		return c.SendString(err.Error())
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	app := newApp()

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "valid", header: "Bearer good", status: fiber.StatusOK, body: "user-1"},
		{name: "lowercase scheme", header: "bearer good", status: fiber.StatusOK, body: "user-1"},
		{name: "missing", header: "", status: fiber.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", status: fiber.StatusUnauthorized},
		{name: "invalid", header: "Bearer bad", status: fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.body != "" {
				b, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tt.body, string(b))
			}
		})
	}
}

func TestCheckUserLoggedIn_WithoutMiddleware(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest("GET", "/open", nil))
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, ErrNoIdentity.Error(), string(b))
}
