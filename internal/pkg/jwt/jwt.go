package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskhub/internal/pkg/config"
	"taskhub/pkg/constants"
	pkgErrors "taskhub/pkg/errors"
)

// SessionClaims 访问Token，仅携带会话引用，用户状态以服务端会话为准
type SessionClaims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid"`
	Role      string `json:"role"`
	Type      string `json:"type"`
	jwt.RegisteredClaims
}

// GenerateAccessToken 生成访问Token
func GenerateAccessToken(cfg *config.JWTConfig, userID, sessionID, role string, now time.Time) (string, error) {
	claims := SessionClaims{
		UserID:    userID,
		SessionID: sessionID,
		Role:      role,
		Type:      constants.JWTTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.AccessTokenExpire) * time.Second)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// ParseToken 解析并校验Token
func ParseToken(cfg *config.JWTConfig, tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, pkgErrors.ErrTokenExpired
		}
		return nil, pkgErrors.ErrInvalidToken.WithCause(err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Type != constants.JWTTypeAccess || claims.SessionID == "" {
		return nil, pkgErrors.ErrInvalidToken
	}
	return claims, nil
}
