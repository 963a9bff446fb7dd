package middleware

import "net/http"

// NewSecurityHeadersMiddleware は全レスポンスに共通のセキュリティヘッダーを付与するミドルウェアを返す。
// 通知APIはJSONしか返さないため、CSPで全リソースの読み込みとフレーム埋め込みを拒否する。
// 受信箱の内容がプロキシやブラウザに残らないよう、キャッシュも無効にする。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r)
		})
	}
}
