package auth

import (
	"context"
	"errors"
	"time"

	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/identity"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUser(userID int64) (*identity.User, error)
	HashPassword(password string) (string, error)
}

// TokenGenerator creates and validates the JWT pair.
type TokenGenerator interface {
	GenerateAccessToken(userID int64) (token string, err error)
	GenerateRefreshToken(userID int64) (token string, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUserInactive       = errors.New("user is inactive")
)

type ctxKey string

const ContextUserKey ctxKey = "user"

// UserFromContext returns the fully resolved user the auth middleware
// placed in the request context.
func UserFromContext(ctx context.Context) (*identity.User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*identity.User)
	return u, ok
}

func ContextWithUser(ctx context.Context, u *identity.User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
