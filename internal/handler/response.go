package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/notifier/internal/middleware"
	"github.com/hitoshi/notifier/internal/model"
)

// maxRequestBodySize はリクエストボディの上限（1MB）。
const maxRequestBodySize = 1 << 20

// formRequest はフォーム送信（application/x-www-form-urlencoded）からも読み取れるリクエスト。
type formRequest interface {
	fromForm(values url.Values)
}

// decodeRequest はContent-Typeに応じてJSONまたはフォームのボディをdstに読み込む。
func decodeRequest(w http.ResponseWriter, r *http.Request, dst formRequest) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if r.PostForm == nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		}
		if err := r.ParseForm(); err != nil {
			return err
		}
		dst.fromForm(r.PostForm)
		return nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	return json.NewDecoder(r.Body).Decode(dst)
}

// firstValue はkeysの順に最初に見つかった空でないフォーム値を返す。
func firstValue(values url.Values, keys ...string) string {
	for _, key := range keys {
		if v := values.Get(key); v != "" {
			return v
		}
	}
	return ""
}

// parseIDParam はURLパラメータを正の整数IDとして解析する。
func parseIDParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeInvalidIDResponse はURLパラメータのIDが不正な場合の400レスポンスを書き込む。
func writeInvalidIDResponse(w http.ResponseWriter, name string) {
	middleware.WriteErrorResponse(w, http.StatusBadRequest,
		model.NewInvalidRequestError("無効なIDです: "+name))
}

// writeInvalidBodyResponse はリクエストボディの解析に失敗した場合の400レスポンスを書き込む。
func writeInvalidBodyResponse(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     model.ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式またはフォーム形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == model.ErrCodeStorage {
			slog.Error("storage error", slog.String("error", apiErr.Message))
		}
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeConflict:
		return http.StatusConflict
	case model.ErrCodeAuthFailed, codeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeRecipientNotFound, model.ErrCodeAccountNotFound, model.ErrCodeMessageNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidChannel, model.ErrCodeInvalidPage, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeGateway:
		return http.StatusBadGateway
	case model.ErrCodeNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
