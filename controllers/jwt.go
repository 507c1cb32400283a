package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"corretor/models"

	"github.com/golang-jwt/jwt/v5"
)

// sessionClaims é o payload do token de sessão: sub = id do usuário.
type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func issueSessionToken(user models.User, secret string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := sessionClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// parseSessionToken valida assinatura (somente HS256) e expiração e devolve o id do usuário.
func parseSessionToken(token string, secret string) (int64, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("token sem subject válido")
	}
	return id, nil
}
