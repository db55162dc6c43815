package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/MayankVir/alonie-backend/internal/models"
)

// TokenExpiration defines how long a locally issued token is valid.
const TokenExpiration = 7 * 24 * time.Hour

const tokenIssuer = "alonie-backend"

// ErrTokenInvalid covers malformed, badly signed and expired tokens.
var ErrTokenInvalid = errors.New("invalid or expired token")

// JWTService signs and verifies the locally issued bearer tokens.
type JWTService interface {
	GenerateToken(user *models.User) (string, time.Time, error)
	ParseUserID(token string) (uuid.UUID, error)
}

type jwtService struct {
	secret []byte
}

// NewJWTService creates a JWTService with the shared signing secret.
func NewJWTService(secret string) JWTService {
	return &jwtService{secret: []byte(secret)}
}

func (s *jwtService) GenerateToken(user *models.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(TokenExpiration)

	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		NotBefore: jwt.NewNumericDate(time.Now()),
		Issuer:    tokenIssuer,
		Subject:   user.ID.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, expiresAt, nil
}

func (s *jwtService) ParseUserID(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing algorithm
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrTokenInvalid
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}
	return userID, nil
}
