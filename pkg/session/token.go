package session

import (
	"time"

	"github.com/golang-jwt/jwt"
)

// TokenService issues and validates the bearer tokens the agent's own HTTP
// surface accepts. The issuer claim carries the caller's WebID.
type TokenService struct {
	Secret     []byte
	Expiration time.Duration
}

func (s *TokenService) New(webID string) (string, error) {
	claims := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Issuer:    webID,
		ExpiresAt: time.Now().Add(s.Expiration).Unix(),
	})
	return claims.SignedString(s.Secret)
}

func (s *TokenService) Validate(token string) (string, error) {
	claims := &jwt.StandardClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	})
	if err != nil {
		return "", err
	}
	return claims.Issuer, nil
}
