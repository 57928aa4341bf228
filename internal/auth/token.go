package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType はJWTの用途を表す。
type TokenType string

const (
	// TokenTypeAccess はAPI呼び出しに使うアクセストークン。
	TokenTypeAccess TokenType = "access"
	// TokenTypeRefresh はアクセストークンの再発行に使うリフレッシュトークン。
	TokenTypeRefresh TokenType = "refresh"
)

// ErrInvalidToken はトークンの署名・有効期限・用途のいずれかが不正な場合に返される。
var ErrInvalidToken = errors.New("invalid token")

// Claims はこのサービスが発行するJWTのクレーム。
type Claims struct {
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenConfig はトークン発行の設定。
type TokenConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenIssuer はHS256で署名したJWTを発行・検証する。
type TokenIssuer struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokenIssuer はTokenIssuerを生成する。
func NewTokenIssuer(config TokenConfig) *TokenIssuer {
	return &TokenIssuer{config: config, now: time.Now}
}

// Issue は指定ユーザー・用途のトークンを発行する。
func (i *TokenIssuer) Issue(userID string, tokenType TokenType) (string, error) {
	ttl := i.config.AccessTTL
	if tokenType == TokenTypeRefresh {
		ttl = i.config.RefreshTTL
	}

	now := i.now()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.config.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// Parse はトークンを検証し、期待する用途であればユーザーIDを返す。
// 署名不正・期限切れ・用途違いはいずれもErrInvalidTokenを返す。
func (i *TokenIssuer) Parse(tokenString string, want TokenType) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return i.config.Secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.TokenType != want {
		return "", fmt.Errorf("%w: token_type %q, want %q", ErrInvalidToken, claims.TokenType, want)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
