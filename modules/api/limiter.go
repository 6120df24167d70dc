package api

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis/v3"

	"github.com/example/task-manager/domain/apperror"
)

// authLimiter throttles the credential endpoints per client IP. A nil
// storage keeps the counters in process memory.
func authLimiter(max int, storage fiber.Storage) fiber.Handler {
	cfg := limiter.Config{
		Max:        max,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "auth:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Error:   string(apperror.Unavailable),
				Message: "Too many requests, try again later",
			})
		},
	}
	if storage != nil {
		cfg.Storage = storage
	}
	return limiter.New(cfg)
}

// openLimiterStorage connects to Redis when addr is set. gofiber/storage/redis
// panics when it cannot connect; that is reported as an error.
func openLimiterStorage(addr string) (storage fiber.Storage, err error) {
	if addr == "" {
		return nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			storage = nil
			err = fmt.Errorf("connecting to redis at %s: %v", addr, r)
		}
	}()

	host, port := parseRedisAddr(addr)
	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		PoolSize: 10,
	}), nil
}

// parseRedisAddr parses "host:port" into host and port.
// Returns defaults (127.0.0.1:6379) for invalid or missing values.
func parseRedisAddr(addr string) (string, int) {
	const defaultHost = "127.0.0.1"
	const defaultPort = 6379

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return defaultHost, defaultPort
	}
	if host == "" {
		host = defaultHost
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = defaultPort
	}
	return host, port
}
