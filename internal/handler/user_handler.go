package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/notifier/internal/model"
	"github.com/hitoshi/notifier/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	GetProfile(ctx context.Context, id int64) (*user.Profile, error)
}

// UserHandler はホーム画面のHTTPハンドラー。
type UserHandler struct {
	service   UserServiceInterface
	presenter *Presenter
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, presenter *Presenter) *UserHandler {
	return &UserHandler{service: service, presenter: presenter}
}

// accountResponse はアカウント情報のAPIレスポンス。パスワードハッシュは含めない。
type accountResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Mail  string `json:"mail"`
	Phone string `json:"phone"`
}

func toAccountResponse(a *model.Account) accountResponse {
	return accountResponse{ID: a.ID, Name: a.Name, Mail: a.Mail, Phone: a.Phone}
}

// homepageResponse は/homepage/{id}のレスポンス。
type homepageResponse struct {
	accountResponse
	CreatedAt     string            `json:"created_at"`
	ReceivedCount int               `json:"received_count"`
	Links         map[string]string `json:"links"`
}

// Homepage はアカウントのホーム画面情報を返す。
// GET /homepage/{id}
func (h *UserHandler) Homepage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeInvalidIDResponse(w, "id")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, homepageResponse{
		accountResponse: toAccountResponse(profile.Account),
		CreatedAt:       h.presenter.Localize(profile.Account.CreatedAt).Format(time.RFC3339),
		ReceivedCount:   profile.ReceivedCount,
		Links:           accountLinks(id),
	})
}
