package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v3"
)

type fakeVerifier struct {
	valid string
}

func (f fakeVerifier) Verify(ctx context.Context, rawToken string) (string, error) {
	if rawToken != f.valid {
		return "", errors.New("bad token")
	}
	return "admin-subject", nil
}

func newTestApp(verifier TokenVerifier) *fiber.App {
	app := fiber.New()
	auth := NewAuthMiddleware(verifier)
	app.Get("/admin", auth.RequireToken, func(c fiber.Ctx) error {
		subject, _ := c.Locals("subject").(string)
		return c.SendString(subject)
	})
	return app
}

func TestRequireToken(t *testing.T) {
	tests := []struct {
		name       string
		verifier   TokenVerifier
		header     string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "no verifier lets request through",
			verifier:   nil,
			wantStatus: fiber.StatusOK,
			wantBody:   "",
		},
		{
			name:       "missing header",
			verifier:   fakeVerifier{valid: "good"},
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			verifier:   fakeVerifier{valid: "good"},
			header:     "Basic good",
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "empty token",
			verifier:   fakeVerifier{valid: "good"},
			header:     "Bearer   ",
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			verifier:   fakeVerifier{valid: "good"},
			header:     "Bearer bad",
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "valid token",
			verifier:   fakeVerifier{valid: "good"},
			header:     "Bearer good",
			wantStatus: fiber.StatusOK,
			wantBody:   "admin-subject",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(tt.verifier)

			req, _ := http.NewRequest("GET", "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus == fiber.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				if string(body) != tt.wantBody {
					t.Errorf("body = %q, want %q", body, tt.wantBody)
				}
			}
		})
	}
}
