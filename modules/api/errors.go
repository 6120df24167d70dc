package api

import (
	"errors"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"

	"github.com/example/task-manager/domain/apperror"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError renders err with the status its kind maps to.
func writeError(c *fiber.Ctx, err error) error {
	pub := apperror.Public(err)
	return c.Status(pub.Kind.HTTPStatus()).JSON(ErrorResponse{
		Error:   string(pub.Kind),
		Message: pub.Message,
	})
}

// errorHandler is the only place handler errors become responses.
func errorHandler(logger types.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(ErrorResponse{
				Error:   string(apperror.FromStatus(fe.Code)),
				Message: fe.Message,
			})
		}

		switch apperror.KindOf(err) {
		case apperror.Internal, apperror.Unavailable:
			logger.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
		}
		return writeError(c, err)
	}
}

func badRequest(message string) error {
	return apperror.New(apperror.Validation, message)
}
