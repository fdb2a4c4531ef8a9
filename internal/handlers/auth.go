package handlers

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/interview-coach/internal/models"
)

const (
	HeaderUserID       = "X-User-Id"
	HeaderUserEmail    = "X-User-Email"
	HeaderGatewayToken = "X-Gateway-Token"

	localsUser = "user"
)

var ErrUnauthorized = errors.New("unauthorized")

// Authenticator resolves the caller of a request.
type Authenticator interface {
	Authenticate(c *fiber.Ctx) (models.User, error)
}

type gatewayAuthenticator struct {
	token []byte
}

// NewGatewayAuthenticator trusts the identity headers set by the upstream
// identity gateway. When token is non-empty the gateway must also present it.
func NewGatewayAuthenticator(token string) Authenticator {
	return &gatewayAuthenticator{token: []byte(token)}
}

func (a *gatewayAuthenticator) Authenticate(c *fiber.Ctx) (models.User, error) {
	if len(a.token) > 0 {
		presented := []byte(c.Get(HeaderGatewayToken))
		if subtle.ConstantTimeCompare(presented, a.token) != 1 {
			return models.User{}, ErrUnauthorized
		}
	}

	id := strings.TrimSpace(c.Get(HeaderUserID))
	if id == "" {
		return models.User{}, ErrUnauthorized
	}

	return models.User{
		ID:    id,
		Email: strings.TrimSpace(c.Get(HeaderUserEmail)),
	}, nil
}

// RequireUser rejects unauthenticated requests before any work is done.
func RequireUser(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.Authenticate(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		c.Locals(localsUser, user)
		return c.Next()
	}
}

// CurrentUser returns the caller set by RequireUser.
func CurrentUser(c *fiber.Ctx) models.User {
	user, _ := c.Locals(localsUser).(models.User)
	return user
}
