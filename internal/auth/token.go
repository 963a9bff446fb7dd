package auth

import (
	"errors"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/notifier/internal/model"
)

// ErrInvalidToken はセッショントークンの署名・形式・有効期限が不正であることを表す。
var ErrInvalidToken = errors.New("invalid session token")

// ErrSessionNotFound はトークンが指すセッションが期限切れまたは削除済みであることを表す。
var ErrSessionNotFound = errors.New("session not found or expired")

// TokenSigner はセッションIDをHS256署名付きJWTとしてCookieに載せるための署名器。
// トークンのjtiがsessionsテーブルの主キーになる。
type TokenSigner struct {
	secret []byte
}

// NewTokenSigner はTokenSignerを生成する。
func NewTokenSigner(secret string) *TokenSigner {
	return &TokenSigner{secret: []byte(secret)}
}

// Sign はセッションからトークン文字列を生成する。
func (s *TokenSigner) Sign(session *model.Session) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   strconv.FormatInt(session.AccountID, 10),
		IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	})
	return token.SignedString(s.secret)
}

// Parse はトークンを検証し、セッションIDを返す。
func (s *TokenSigner) Parse(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
