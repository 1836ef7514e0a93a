// Package httpx holds the response envelope and middleware shared by every handler.
package httpx

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/thrift-market/internal/apperr"
	"go.uber.org/zap"
)

type Envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Kind       apperr.Kind `json:"kind"`
	ProductIDs []string    `json:"productIds,omitempty"`
}

func OK(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Envelope{Success: true, Message: message, Data: data})
}

// Fail writes err as an error envelope. Storage and internal failures are logged
// and replaced by a generic message.
func Fail(c *fiber.Ctx, log *zap.Logger, err error) error {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	msg := err.Error()

	var ae *apperr.Error
	if errors.As(err, &ae) {
		msg = ae.Message
	}

	switch kind {
	case apperr.KindStorage:
		log.Error("storage failure", zap.String("path", c.Path()), zap.Error(err))
		msg = "service temporarily unavailable"
	case apperr.KindInternal:
		log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		msg = "internal server error"
	}

	return c.Status(status).JSON(Envelope{
		Success: false,
		Message: msg,
		Error:   &ErrorBody{Kind: kind, ProductIDs: apperr.ProductIDsOf(err)},
	})
}

// BadRequest reports a malformed request body or parameter.
func BadRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(Envelope{
		Message: message,
		Error:   &ErrorBody{Kind: apperr.KindValidation},
	})
}

// ErrorHandler is installed as fiber's ErrorHandler so routing errors and
// recovered panics use the same envelope.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			kind := apperr.KindInternal
			switch fe.Code {
			case fiber.StatusNotFound:
				kind = apperr.KindNotFound
			case fiber.StatusUnauthorized:
				kind = apperr.KindUnauthorized
			case fiber.StatusBadRequest:
				kind = apperr.KindValidation
			}
			return c.Status(fe.Code).JSON(Envelope{Message: fe.Message, Error: &ErrorBody{Kind: kind}})
		}
		return Fail(c, log, err)
	}
}
