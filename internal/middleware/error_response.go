package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/notifier/internal/model"
)

// ミドルウェア層が返すエラーコード。ドメインのエラーコードはmodelに定義する。
const (
	CodeInternalError = "INTERNAL_ERROR"
	CodeCSRFFailed    = "CSRF_FAILED"
	CodeRateLimited   = "RATE_LIMITED"
)

// ErrorResponseBody は通知APIのエラーレスポンス形式。
// request_idはRequestIDミドルウェアが付与したIDで、問い合わせ時にログと突き合わせるために返す。
type ErrorResponseBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Category  string `json:"category"`
	Action    string `json:"action"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteErrorResponse はAPIErrorをJSONで書き込む。
// X-Request-IDレスポンスヘッダーが設定済みであればボディにも含める。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	requestID := w.Header().Get(RequestIDHeader)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:      apiErr.Code,
		Message:   apiErr.Message,
		Category:  apiErr.Category,
		Action:    apiErr.Action,
		RequestID: requestID,
	})
}

// WriteInternalServerError は500を書き込む。原因はログにのみ残し、レスポンスには含めない。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     CodeInternalError,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// writeForbidden はCSRF検証失敗の403を書き込む。
func writeForbidden(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusForbidden, &model.APIError{
		Code:     CodeCSRFFailed,
		Message:  "CSRFトークンの検証に失敗しました。",
		Category: "auth",
		Action:   "/api/csrf-token でトークンを取得し、X-CSRF-Tokenヘッダーで送信してください。",
	})
}
