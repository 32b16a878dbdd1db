package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/placement-go-api/internal/apperrors"
	"github.com/noah-isme/placement-go-api/internal/utils"
)

// RateLimit guards burst-prone endpoints such as drive registration, where a
// deadline announcement sends a whole batch of students to the same route at
// once. Requests are bucketed per authenticated user within an account, with
// the client IP as the key for unauthenticated traffic.
func RateLimit(name string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 20
	}
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			user := c.Locals("user_id")
			if user == nil {
				return fmt.Sprintf("%s:ip:%s", name, c.IP())
			}
			return fmt.Sprintf("%s:%v:%v", name, c.Locals("account_id"), user)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.SendErrorCode(c, fiber.StatusTooManyRequests, apperrors.CodeRateLimited, "too many requests, retry shortly", nil)
		},
	})
}
