package httpapi

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	localAccountID = "account_id"
	localPhone     = "phone"
)

// issueToken signs a session token for an account.
func (s *Server) issueToken(accountID int64, phone string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(accountID, 10),
		Audience:  jwt.ClaimStrings{phone},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Auth.TokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// requireAuth validates the bearer token and stores the account id and
// phone in the request locals.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return jsonError(c, fiber.StatusUnauthorized, "missing bearer token")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Auth.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return jsonError(c, fiber.StatusUnauthorized, "invalid or expired token")
	}

	accountID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return jsonError(c, fiber.StatusUnauthorized, "invalid token subject")
	}

	c.Locals(localAccountID, accountID)
	if len(claims.Audience) > 0 {
		c.Locals(localPhone, claims.Audience[0])
	}

	return c.Next()
}

// requireAdmin allows only accounts whose phone is configured as admin.
// Must run after requireAuth.
func (s *Server) requireAdmin(c *fiber.Ctx) error {
	phone, _ := c.Locals(localPhone).(string)
	if phone == "" || !s.cfg.IsAdmin(phone) {
		return jsonError(c, fiber.StatusForbidden, "admin access required")
	}
	return c.Next()
}

func accountIDFromCtx(c *fiber.Ctx) int64 {
	id, _ := c.Locals(localAccountID).(int64)
	return id
}
