package api

import (
	"log"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/emmanuel197/kuandorwear-media/domain/shop"
	"github.com/emmanuel197/kuandorwear-media/modules/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis/v3"
)

const (
	sessionCookie  = "connect.sid"
	sessionUserKey = "userId"
	userLocalsKey  = "user"
)

func newSessionStore(storage fiber.Storage, ttl time.Duration, secure bool) *session.Store {
	return session.New(session.Config{
		Expiration:     ttl,
		Storage:        storage,
		KeyLookup:      "cookie:" + sessionCookie,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   secure,
	})
}

// newRedisStorage connects session storage to Redis at host:port.
func newRedisStorage(addr string) fiber.Storage {
	host, port := parseRedisAddr(addr)
	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		PoolSize: 20,
	})
}

// parseRedisAddr splits host:port, defaulting to localhost:6379.
func parseRedisAddr(addr string) (string, int) {
	host, portStr, ok := strings.Cut(addr, ":")
	if host == "" {
		host = "localhost"
	}
	if !ok {
		return host, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return host, 6379
	}
	return host, port
}

// startSession binds a fresh session to userID.
func (s *server) startSession(c *fiber.Ctx, userID uint) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(sessionUserKey, userID)
	return sess.Save()
}

// endSession destroys the caller's session, if any.
func (s *server) endSession(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}

// currentUser resolves the session's user. It returns nil for anonymous
// callers and for sessions whose user no longer exists.
func (s *server) currentUser(c *fiber.Ctx) (*auth.UserProfile, error) {
	if user, ok := c.Locals(userLocalsKey).(*auth.UserProfile); ok {
		return user, nil
	}

	sess, err := s.sessions.Get(c)
	if err != nil {
		return nil, err
	}
	userID, ok := sess.Get(sessionUserKey).(uint)
	if !ok {
		return nil, nil
	}

	user, err := s.auth.GetUser(c.UserContext(), userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		log.Printf("[api] Session refers to missing user %d, destroying it", userID)
		if err := sess.Destroy(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	c.Locals(userLocalsKey, user)
	return user, nil
}

// RequireRole admits callers whose role is one of roles. With no roles any
// signed-in user is admitted.
func (s *server) RequireRole(roles ...shop.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := s.currentUser(c)
		if err != nil {
			return err
		}
		if user == nil {
			return unauthenticated("Authentication required")
		}
		if len(roles) > 0 && !slices.Contains(roles, user.Role) {
			return forbidden()
		}
		return c.Next()
	}
}

// RequireAuth admits any signed-in user.
func (s *server) RequireAuth() fiber.Handler {
	return s.RequireRole()
}

// userOf returns the user stored by RequireRole.
func userOf(c *fiber.Ctx) *auth.UserProfile {
	user, _ := c.Locals(userLocalsKey).(*auth.UserProfile)
	return user
}
