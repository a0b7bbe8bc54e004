package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

var errMissingSecret = errors.New("jwt secret is not configured")

type accessClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IssueAccessToken signs an HS256 access token for userID. The identity
// collaborator issues tokens in production; this is used by the token command
// and tests.
func IssueAccessToken(secret string, userID int, role string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errMissingSecret
	}

	claims := accessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (app *Application) parseAccessToken(header string) (Identity, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return Identity{}, errors.New("authorization header must be a bearer token")
	}

	if app.config.JWTSecret == "" {
		return Identity{}, errMissingSecret
	}

	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(app.config.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(app.now),
	)
	if err != nil {
		return Identity{}, err
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil || userID < 1 {
		return Identity{}, fmt.Errorf("invalid subject %q", claims.Subject)
	}

	role := claims.Role
	if role == "" {
		role = RoleCustomer
	}

	return Identity{UserID: userID, Role: role}, nil
}
