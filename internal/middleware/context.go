package middleware

import (
	"context"
	"net/http"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	accountIDContextKey = contextKey("account_id")
	requestIDContextKey = contextKey("request_id")
	logFieldsContextKey = contextKey("log_fields")
)

// logFields はロギングミドルウェアより後段で判明する値を受け取る入れ物。
// 後段のミドルウェアが書き込み、ロギングミドルウェアがレスポンス後に読み取る。
type logFields struct {
	accountID int64
}

// ContextWithAccountID はコンテキストにアカウントIDを注入する。
// ロギングミドルウェアの配下であれば、アクセスログにもaccount_idが記録される。
func ContextWithAccountID(ctx context.Context, accountID int64) context.Context {
	if lf, ok := ctx.Value(logFieldsContextKey).(*logFields); ok {
		lf.accountID = accountID
	}
	return context.WithValue(ctx, accountIDContextKey, accountID)
}

// AccountIDFromContext はリクエストコンテキストからログイン中のアカウントIDを取得する。
// 未ログインの場合はfalseを返す。
func AccountIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(accountIDContextKey).(int64)
	return id, ok && id > 0
}

// ContextWithRequestID はコンテキストにリクエストIDを注入する。
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext はリクエストコンテキストからリクエストIDを取得する。
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

func contextWithLogFields(ctx context.Context, lf *logFields) context.Context {
	return context.WithValue(ctx, logFieldsContextKey, lf)
}

// withLogFields はリクエストのlogFieldsを返す。前段で作成済みであればそれを共有する。
func withLogFields(r *http.Request) (*http.Request, *logFields) {
	if lf, ok := r.Context().Value(logFieldsContextKey).(*logFields); ok {
		return r, lf
	}
	lf := &logFields{}
	return r.WithContext(contextWithLogFields(r.Context(), lf)), lf
}
