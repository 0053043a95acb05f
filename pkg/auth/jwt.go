// Package auth issues and verifies guest tokens for the REST API.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWT wraps a signing secret for issuing/verifying tokens.
type JWT struct{ secret []byte }

func New(secret string) *JWT { return &JWT{secret: []byte(secret)} }

// Claims is the decoded identity carried by a guest token.
type Claims struct {
	Subject     string
	DisplayName string
}

// Sign creates a token for sub with the given TTL.
func (j *JWT) Sign(sub, displayName string, ttl time.Duration) (string, error) {
	if sub == "" {
		return "", errors.New("empty subject")
	}
	claims := jwt.MapClaims{
		"sub":  sub,
		"name": displayName,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(ttl).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(j.secret)
}

// Verify checks a token and returns its claims.
func (j *JWT) Verify(tok string) (Claims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, err
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Claims{}, errors.New("no sub")
	}
	name, _ := claims["name"].(string)
	return Claims{Subject: sub, DisplayName: name}, nil
}
