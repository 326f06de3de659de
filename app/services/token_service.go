package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/occsec/secure-dialer/config"
)

// Token service error constants
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// SessionClaims is the authenticated identity extracted from a bearer token.
// Identity itself is issued elsewhere; this service only validates.
type SessionClaims struct {
	UserID    string
	Email     string
	Role      string
	FirstName string
	ExpiresAt time.Time
}

// IsAdmin reports whether the session carries the admin role
func (c *SessionClaims) IsAdmin() bool {
	return c.Role == "admin"
}

// TokenService validates bearer tokens issued by the identity provider.
type TokenService interface {
	ValidateToken(tokenString string) (*SessionClaims, error)
}

// TokenServiceImpl implements TokenService using JWT
type TokenServiceImpl struct {
	config *config.JWTConfig
}

// NewTokenService creates a new token service instance
func NewTokenService(cfg *config.JWTConfig) TokenService {
	return &TokenServiceImpl{config: cfg}
}

// ValidateToken parses and validates a JWT, returning its session claims.
func (s *TokenServiceImpl) ValidateToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.Parse(tokenString, s.keyFunc,
		jwt.WithIssuer(s.config.Issuer),
		jwt.WithAudience(s.config.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	session := &SessionClaims{
		UserID: userID,
	}
	if email, ok := claims["email"].(string); ok {
		session.Email = email
	}
	if role, ok := claims["role"].(string); ok {
		session.Role = role
	}
	if firstName, ok := claims["first_name"].(string); ok {
		session.FirstName = firstName
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}

	return session, nil
}

func (s *TokenServiceImpl) keyFunc(token *jwt.Token) (interface{}, error) {
	if s.config.UseRSAKeys {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwt.ParseRSAPublicKeyFromPEM([]byte(s.config.PublicKey))
	}
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return []byte(s.config.SecretKey), nil
}

// MockTokenService implements TokenService for testing
type MockTokenService struct {
	Claims map[string]*SessionClaims
	Err    error
}

// NewMockTokenService creates a mock token service with no known tokens
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{Claims: make(map[string]*SessionClaims)}
}

func (m *MockTokenService) ValidateToken(tokenString string) (*SessionClaims, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if claims, ok := m.Claims[tokenString]; ok {
		return claims, nil
	}
	return nil, ErrTokenInvalid
}
