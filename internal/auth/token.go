package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"haoshi-console/internal/models"
)

// Claims carried by a console session token
type Claims struct {
	UserID string      `json:"user_id"`
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	Title  string      `json:"title,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 session tokens
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs a token for p
func (m *TokenManager) Issue(p Principal) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID: p.ID,
		Name:   p.Name,
		Email:  p.Email,
		Role:   p.Role,
		Title:  p.Title,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse verifies a token and returns its principal
func (m *TokenManager) Parse(tokenString string) (Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return Principal{}, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Principal{}, errors.New("invalid token")
	}
	return Principal{
		ID:    claims.UserID,
		Name:  claims.Name,
		Email: claims.Email,
		Role:  claims.Role,
		Title: claims.Title,
	}, nil
}
