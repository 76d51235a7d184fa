package fiber

import (
	"strings"

	"github.com/arya-analytics/aegis/pkg/session"
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
)

const localsWebIDKey = "webID"

// TokenMiddleware parses a token from the request and checks if it is
// valid. If the token is valid, the caller's WebID is set in the request
// context.
func TokenMiddleware(svc *session.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tk, err := parseToken(c)
		if err != nil {
			return c.JSON(fiber.Map{"error": err.Error()})
		}
		webID, err := svc.Validate(tk)
		if err != nil {
			c.Status(fiber.StatusUnauthorized)
			return c.JSON(fiber.Map{"error": err.Error()})
		}
		c.Locals(localsWebIDKey, webID)
		return c.Next()
	}
}

// GetWebID returns the WebID set by TokenMiddleware.
func GetWebID(c *fiber.Ctx) string {
	webID, _ := c.Locals(localsWebIDKey).(string)
	return webID
}

type tokenParser func(c *fiber.Ctx) (token string, found bool, err error)

const (
	tokenCookieName               = "Token"
	headerTokenPrefix             = "Bearer "
	invalidAuthorizationHeaderMsg = `
	invalid authorization header. Format should be

		'Authorization: Bearer <Token>'
	`
)

var tokenParsers = []tokenParser{
	tryParseCookieToken,
	tryParseHeaderToken,
}

func parseToken(c *fiber.Ctx) (string, error) {
	for _, tp := range tokenParsers {
		if tk, found, err := tp(c); found {
			return tk, err
		}
	}
	c.Status(fiber.StatusUnauthorized)
	return "", errors.New("invalid token")
}

func tryParseCookieToken(c *fiber.Ctx) (string, bool, error) {
	tk := c.Cookies(tokenCookieName)
	return tk, len(tk) != 0, nil
}

func tryParseHeaderToken(c *fiber.Ctx) (string, bool, error) {
	authHeader := c.Get("Authorization")
	if len(authHeader) == 0 {
		return "", false, nil
	}
	splitToken := strings.Split(authHeader, headerTokenPrefix)
	if len(splitToken) != 2 {
		return "", false, errors.New(invalidAuthorizationHeaderMsg)
	}
	return splitToken[1], true, nil
}
