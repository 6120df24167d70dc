package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/task-manager/domain/apperror"
	user "github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/auth"
)

const (
	// UserContextKey is the key used to store user claims in the Fiber context.
	UserContextKey = "user"
)

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   string(apperror.Unauthenticated),
		Message: message,
	})
}

// AuthMiddleware rejects requests without a valid bearer access token. Nothing
// behind it runs for a rejected request.
func AuthMiddleware(authPort auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required")
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthorized(c, "Invalid authorization header format. Use: Bearer <token>")
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			return unauthorized(c, "Token is required")
		}

		claims, err := authPort.ValidateToken(c.UserContext(), token)
		if err != nil {
			if apperror.HasKind(err, apperror.Unavailable) {
				return err
			}
			return unauthorized(c, "Invalid or expired token")
		}

		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

// currentUser returns the claims stored by AuthMiddleware.
func currentUser(c *fiber.Ctx) (*user.Claims, error) {
	claims, ok := c.Locals(UserContextKey).(*user.Claims)
	if !ok || claims.UserID == "" {
		return nil, apperror.New(apperror.Unauthenticated, "User not authenticated")
	}
	return claims, nil
}
