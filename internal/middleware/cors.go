package middleware

import "net/http"

// NewCORSMiddleware は別オリジンのフロントエンドから通知APIを呼ぶためのCORSミドルウェアを返す。
// セッションCookieを送らせるため、許可オリジンは1つに固定しワイルドカードは使わない。
// CSRFトークンとリクエストIDのヘッダーを許可し、X-Request-IDはレスポンスから読めるようにする。
// CORS_ALLOWED_ORIGINが未設定（allowedOriginが空）の場合は何もしない。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if allowedOrigin == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowedOrigin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, "+csrfHeaderName+", "+RequestIDHeader)
			h.Set("Access-Control-Expose-Headers", RequestIDHeader)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Max-Age", "86400")
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
