package auth

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

func issueToken(secret, userID string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		userIDKey: userID,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func makeApp(secret string) *fiber.App {
	app := fiber.New()
	app.Use(Middleware(secret, zap.NewNop()))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		id, err := UserIDFromCtx(c)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendString(id)
	})
	return app
}

func TestMiddleware_ValidToken(t *testing.T) {
	app := makeApp("secret")
	tok, err := issueToken("secret", "user-7", time.Hour)
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if string(b) != "user-7" {
		t.Fatalf("expected user-7, got %q", string(b))
	}
}

func TestMiddleware_Rejects(t *testing.T) {
	app := makeApp("secret")

	other, _ := issueToken("other", "user-7", time.Hour)
	expired, _ := issueToken("secret", "user-7", -time.Hour)

	for name, header := range map[string]string{
		"missing":    "",
		"wrong key":  "Bearer " + other,
		"expired":    "Bearer " + expired,
		"not bearer": "Basic abc",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			res, _ := app.Test(req)
			if res.StatusCode != fiber.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", res.StatusCode)
			}
			b, _ := io.ReadAll(res.Body)
			if !strings.Contains(string(b), `"UNAUTHORIZED"`) {
				t.Fatalf("expected envelope with UNAUTHORIZED kind, got %s", string(b))
			}
		})
	}
}

func TestUserIDFromCtx_NoToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		if _, err := UserIDFromCtx(c); err == nil {
			t.Errorf("expected error without token")
		}
		return nil
	})
	app.Test(httptest.NewRequest("GET", "/", nil))
}
