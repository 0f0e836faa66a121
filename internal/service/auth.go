package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
)

const claimPlayerID = "player_id"

type AuthService interface {
	GenerateToken(playerID string) (string, error)
	ParseToken(tokenString string) (string, error)
}

type authServiceImpl struct {
	secretKey string
	ttl       time.Duration
}

func NewAuthService(secretKey string, ttl time.Duration) AuthService {
	return &authServiceImpl{
		secretKey: secretKey,
		ttl:       ttl,
	}
}

func (that *authServiceImpl) GenerateToken(playerID string) (string, error) {
	claims := jwt.MapClaims{}
	claims[claimPlayerID] = playerID
	claims["exp"] = time.Now().Add(that.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(that.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ParseToken validates the token and returns the player id it was issued for.
func (that *authServiceImpl) ParseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(that.secretKey), nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperror.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", apperror.ErrUnauthorized
	}

	playerID, ok := claims[claimPlayerID].(string)
	if !ok || playerID == "" {
		return "", fmt.Errorf("%w: token has no player", apperror.ErrUnauthorized)
	}

	return playerID, nil
}
