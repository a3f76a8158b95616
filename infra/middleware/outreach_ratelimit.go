package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RateLimiter is a fixed-window per-client limiter. Keys are the
// authenticated user id when present, the client IP otherwise.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
}

type window struct {
	count     int
	expiresAt time.Time
}

func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		for range ticker.C {
			rl.cleanup()
		}
	}()

	return rl
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, w := range rl.windows {
		if now.After(w.expiresAt) {
			delete(rl.windows, key)
		}
	}
}

func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		key := c.IP()
		if userID, ok := c.Locals("user_id").(string); ok && userID != "" {
			key = userID
		}

		now := time.Now()

		rl.mu.Lock()
		w, exists := rl.windows[key]
		if !exists || now.After(w.expiresAt) {
			w = &window{count: 0, expiresAt: now.Add(rl.period)}
			rl.windows[key] = w
		}
		if w.count >= rl.limit {
			rl.mu.Unlock()
			c.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
			c.Set("X-RateLimit-Remaining", "0")
			c.Set("X-RateLimit-Reset", strconv.FormatInt(w.expiresAt.Unix(), 10))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "rate limit exceeded",
				"code":        "RATE_LIMITED",
				"retry_after": int(time.Until(w.expiresAt).Seconds()),
			})
		}
		w.count++
		remaining := rl.limit - w.count
		rl.mu.Unlock()

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		return c.Next()
	}
}

// SendLimiter guards outbound mail endpoints. Sending to providers is the
// most abuse-sensitive operation, so its window is much tighter than the
// general API limit.
func SendLimiter() fiber.Handler {
	return NewRateLimiter(20, time.Minute).Handler()
}
