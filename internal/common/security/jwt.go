package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs and verifies HS256 bearer tokens.
type TokenIssuer struct {
	Auth *jwtauth.JWTAuth
	exp  time.Duration
}

func NewTokenIssuer(key []byte, exp time.Duration) *TokenIssuer {
	return &TokenIssuer{
		Auth: jwtauth.New("HS256", key, nil),
		exp:  exp,
	}
}

func (ti *TokenIssuer) GenerateToken(userID, username, role string) (string, error) {
	claims := jwt.MapClaims{
		"userID":   userID,
		"username": username,
		"role":     role,
		"exp":      time.Now().Add(ti.exp).Unix(),
		"iat":      time.Now().Unix(),
	}
	_, tokenString, err := ti.Auth.Encode(claims)
	return tokenString, err
}

// Helper functions to extract claims, used by the auth middleware
func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["userID"].(string)
	if !ok || id == "" {
		return "", errors.New("userID claim is missing or not a string")
	}
	return id, nil
}

func GetUserRoleFromClaims(claims jwt.MapClaims) (string, error) {
	role, ok := claims["role"].(string)
	if !ok {
		return "", errors.New("role claim is missing or not a string")
	}
	return role, nil
}
