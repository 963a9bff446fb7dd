// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/notifier/internal/auth"
	"github.com/hitoshi/notifier/internal/model"
)

// SessionCookieName はセッショントークンを保持するCookieの名前。
const SessionCookieName = "session_token"

// SessionResolver はセッショントークンから有効なセッションを解決するインターフェース。
// auth.Serviceが実装する。
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*model.Session, error)
}

// NewSessionMiddleware はHTTP Only Cookieのセッショントークンを検証し、
// 有効であればアカウントIDをリクエストコンテキストに注入するミドルウェアを返す。
// 未ログイン・不正トークン・期限切れのリクエストも拒否せずに後段へ渡す。
func NewSessionMiddleware(resolver SessionResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := resolver.ResolveSession(r.Context(), cookie.Value)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) {
					slog.Debug("invalid session token", slog.String("error", err.Error()))
				} else {
					slog.Error("failed to resolve session", slog.String("error", err.Error()))
				}
				next.ServeHTTP(w, r)
				return
			}
			if session == nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithAccountID(r.Context(), session.AccountID)))
		})
	}
}
