package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

// RoleAdmin is the only role this service issues tokens for.
const RoleAdmin = "admin"

// TokenIssuer signs and verifies HMAC bearer tokens.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	if secret == "" {
		// development fallback; production refuses to start without JWT_SECRET
		secret = "sarthi-dev-secret"
	}
	return &TokenIssuer{secret: []byte(secret)}
}

// GenerateToken creates a signed JWT for subject with the given role.
// The token expires after the specified duration.
func (t *TokenIssuer) GenerateToken(subject, role string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ValidateToken parses and validates a token string and returns the token if valid.
func (t *TokenIssuer) ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
}

// SubjectWithRole validates the token and returns its subject when the role
// claim matches.
func (t *TokenIssuer) SubjectWithRole(tokenString, role string) (string, error) {
	token, err := t.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}
	if r, _ := claims["role"].(string); r != role {
		return "", errors.New("token does not carry the required role")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("token does not contain a valid 'sub' claim")
	}
	return sub, nil
}
