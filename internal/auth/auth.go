// Package auth resolves the calling user from the JWT issued by the user service.
package auth

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/wichananm65/thrift-market/internal/apperr"
	"github.com/wichananm65/thrift-market/internal/httpx"
	"go.uber.org/zap"
)

const (
	contextKey = "user"
	userIDKey  = "user_id"
)

// Middleware rejects requests without a valid HS256 token and stores the parsed
// token under c.Locals("user").
func Middleware(secret string, log *zap.Logger) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: []byte(secret),
		ContextKey: contextKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Debug("rejected token", zap.String("path", c.Path()), zap.Error(err))
			return httpx.Fail(c, log, apperr.Unauthorized())
		},
	})
}

// UserIDFromCtx returns the user id claim of the authenticated caller.
func UserIDFromCtx(c *fiber.Ctx) (string, error) {
	tok, ok := c.Locals(contextKey).(*jwt.Token)
	if !ok || tok == nil {
		return "", apperr.Unauthorized()
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperr.Unauthorized()
	}
	switch v := claims[userIDKey].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		return strconv.FormatInt(int64(v), 10), nil
	case int:
		return strconv.Itoa(v), nil
	}
	return "", apperr.Unauthorized()
}
