package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"ironingOrderManagement/models"
)

// Principal is the authenticated caller carried by a session token.
type Principal struct {
	SessionID string
	Actor     models.Actor
	ExpiresAt time.Time
}

type claims struct {
	SessionID string `json:"sid"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a session token for p that expires ttl after now.
func Issue(secret string, p Principal, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	if p.SessionID == "" || p.Actor.ID == "" || !p.Actor.Role.Valid() {
		return "", errors.New("incomplete principal")
	}
	c := claims{
		SessionID: p.SessionID,
		Name:      p.Actor.Name,
		Role:      string(p.Actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

// ParseBearer accepts an "Authorization: Bearer <token>" style value, or a bare token.
func ParseBearer(header, secret string) (*Principal, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, errors.New("missing authorization")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 {
		if !strings.EqualFold(parts[0], "Bearer") {
			return nil, errors.New("invalid authorization header")
		}
		header = strings.TrimSpace(parts[1])
	}
	return Parse(header, secret)
}

// Parse validates a session token and extracts the principal.
func Parse(tokenStr, secret string) (*Principal, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}

	tok, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return nil, err
	}
	c, _ := tok.Claims.(*claims)
	if c == nil || c.SessionID == "" || c.Subject == "" || c.Name == "" {
		return nil, errors.New("invalid claims")
	}
	role := models.Role(c.Role)
	if !role.Valid() {
		return nil, errors.New("invalid claims: unknown role")
	}
	p := &Principal{
		SessionID: c.SessionID,
		Actor:     models.Actor{ID: c.Subject, Name: c.Name, Role: role},
	}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p, nil
}
