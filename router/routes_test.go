package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aljonleynes11/media-coding-exam-backend/auth"
	handler "github.com/aljonleynes11/media-coding-exam-backend/handlers"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type denyAll struct{}

func (denyAll) Verify(string) (auth.Identity, error) {
	return auth.Identity{}, errors.New("denied")
}

func TestNew_Routes(t *testing.T) {
	app := New(handler.New(handler.Deps{}), denyAll{}, Options{CORSOrigins: "https://app.example"})

	tests := []struct {
		method, path string
		status       int
	}{
		{http.MethodGet, "/api/hello", fiber.StatusOK},
		{http.MethodGet, "/api/images", fiber.StatusUnauthorized},
		{http.MethodGet, "/api/images/1", fiber.StatusUnauthorized},
		{http.MethodGet, "/api/images/1/signed-url", fiber.StatusUnauthorized},
		{http.MethodPost, "/api/images/1/analyze-now", fiber.StatusUnauthorized},
		{http.MethodPost, "/api/uploads", fiber.StatusUnauthorized},
		{http.MethodGet, "/api/nothing-here", fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Authorization", "Bearer whatever")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestNew_CORSPreflight(t *testing.T) {
	app := New(handler.New(handler.Deps{}), denyAll{}, Options{CORSOrigins: "https://app.example"})

	req := httptest.NewRequest(http.MethodOptions, "/api/images", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://app.example", resp.Header.Get("Access-Control-Allow-Origin"))
}
