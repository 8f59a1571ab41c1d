package middleware

import (
	"context"
	"strings"

	"hostly/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type AuthContextKey string

const (
	UserKey      AuthContextKey = "user"
	UserKeyFiber string         = "User"
)

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. It returns an empty string for any other shape.
func BearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// RequireAuth validates the bearer token and loads the caller's profile,
// creating it on first sight.
func (m *Middleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := logger.New("middleware").TraceFromContext(c.UserContext()).Function("RequireAuth")

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			log.Info("missing authorization header")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		token := BearerToken(authHeader)
		if token == "" {
			log.Info("invalid authorization header format")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		tokenInfo, err := m.authService.ValidateToken(token)
		if err != nil {
			log.Info("token validation failed", "error", err.Error())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		user, err := m.userRepo.FindOrCreate(c.UserContext(), m.DB.SQL, &models.UserProfile{
			BaseUUIDModel: models.BaseUUIDModel{ID: tokenInfo.UserID},
			Email:         tokenInfo.Email,
		})
		if err != nil {
			log.Er("failed to load user profile", err, "userID", tokenInfo.UserID)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		c.Locals(UserKeyFiber, user)

		ctx := context.WithValue(c.UserContext(), UserKey, user)
		c.SetUserContext(ctx)

		log.Debug("user authenticated", "userID", user.ID)
		return c.Next()
	}
}

func GetUser(c *fiber.Ctx) *models.UserProfile {
	user, ok := c.Locals(UserKeyFiber).(*models.UserProfile)
	if !ok {
		return nil
	}
	return user
}
