// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hitoshi/notifier/internal/auth"
	"github.com/hitoshi/notifier/internal/middleware"
	"github.com/hitoshi/notifier/internal/model"
)

// codeUnauthorized は未ログイン時のエラーコード。
const codeUnauthorized = "UNAUTHORIZED"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, in auth.RegisterInput) (int64, error)
	Login(ctx context.Context, mail, password string) (*auth.LoginResult, error)
	Logout(ctx context.Context, token string) error
	GetCurrentAccount(ctx context.Context, token string) (*model.Account, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler は登録・ログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// signinRequest はアカウント登録リクエスト。
// フォーム送信ではmailId、phoneNumberのフィールド名も受け付ける。
type signinRequest struct {
	Name     string `json:"name"`
	Mail     string `json:"mail"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (req *signinRequest) fromForm(values url.Values) {
	req.Name = values.Get("name")
	req.Mail = firstValue(values, "mail", "mailId")
	req.Phone = firstValue(values, "phone", "phoneNumber")
	req.Password = values.Get("password")
}

// loginRequest はログインリクエスト。
type loginRequest struct {
	Mail     string `json:"mail"`
	Password string `json:"password"`
}

func (req *loginRequest) fromForm(values url.Values) {
	req.Mail = firstValue(values, "mail", "mailId")
	req.Password = values.Get("password")
}

// formField はフォーム入力欄の説明。
type formField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// formDescription はGETで返すフォームの説明。
type formDescription struct {
	Action string      `json:"action"`
	Method string      `json:"method"`
	Fields []formField `json:"fields"`
}

// SigninForm は登録フォームの入力項目を返す。
// GET /signin
func (h *AuthHandler) SigninForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, formDescription{
		Action: "/signin",
		Method: http.MethodPost,
		Fields: []formField{
			{Name: "name", Type: "text", Required: true},
			{Name: "mail", Type: "email", Required: true},
			{Name: "phone", Type: "tel", Required: true},
			{Name: "password", Type: "password", Required: true},
		},
	})
}

// Signin はアカウントを登録する。
// POST /signin
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	id, err := h.service.Register(r.Context(), auth.RegisterInput{
		Name:     req.Name,
		Mail:     req.Mail,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// LoginForm はログインフォームの入力項目を返す。
// GET /login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, formDescription{
		Action: "/login",
		Method: http.MethodPost,
		Fields: []formField{
			{Name: "mail", Type: "email", Required: true},
			{Name: "password", Type: "password", Required: true},
		},
	})
}

// Login はメールアドレスとパスワードで認証し、セッションCookieを設定する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	result, err := h.service.Login(r.Context(), req.Mail, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token, h.config.SessionMaxAge)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":       result.Account.ID,
		"name":     result.Account.Name,
		"redirect": "/homepage/" + strconv.FormatInt(result.Account.ID, 10),
	})
}

// Logout はセッションを破棄してCookieをクリアする。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			// ログアウト失敗してもCookieはクリアする
			slog.Warn("failed to logout", slog.String("error", logoutErr.Error()))
		}
	}

	h.setSessionCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインアカウント情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		writeUnauthorized(w)
		return
	}

	account, err := h.service.GetCurrentAccount(r.Context(), cookie.Value)
	if err != nil {
		var apiErr *model.APIError
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrSessionNotFound) ||
			(errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeAccountNotFound) {
			slog.Debug("current account not resolved", slog.String("error", err.Error()))
			writeUnauthorized(w)
			return
		}
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     codeUnauthorized,
		Message:  "ログインが必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}
