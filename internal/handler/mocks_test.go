package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/notifier/internal/auth"
	"github.com/hitoshi/notifier/internal/model"
	"github.com/hitoshi/notifier/internal/notification"
	"github.com/hitoshi/notifier/internal/user"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn          func(ctx context.Context, in auth.RegisterInput) (int64, error)
	loginFn             func(ctx context.Context, mail, password string) (*auth.LoginResult, error)
	logoutFn            func(ctx context.Context, token string) error
	getCurrentAccountFn func(ctx context.Context, token string) (*model.Account, error)
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (int64, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return 0, nil
}

func (m *mockAuthService) Login(ctx context.Context, mail, password string) (*auth.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, mail, password)
	}
	return nil, model.NewAuthError()
}

func (m *mockAuthService) Logout(ctx context.Context, token string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, token)
	}
	return nil
}

func (m *mockAuthService) GetCurrentAccount(ctx context.Context, token string) (*model.Account, error) {
	if m.getCurrentAccountFn != nil {
		return m.getCurrentAccountFn(ctx, token)
	}
	return nil, auth.ErrInvalidToken
}

type mockUserService struct {
	getProfileFn func(ctx context.Context, id int64) (*user.Profile, error)
}

func (m *mockUserService) GetProfile(ctx context.Context, id int64) (*user.Profile, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, id)
	}
	return nil, model.NewAccountNotFoundError(id)
}

type mockDispatcher struct {
	dispatchFn func(ctx context.Context, req notification.DispatchRequest) (*notification.DispatchResult, error)
}

func (m *mockDispatcher) Dispatch(ctx context.Context, req notification.DispatchRequest) (*notification.DispatchResult, error) {
	if m.dispatchFn != nil {
		return m.dispatchFn(ctx, req)
	}
	return &notification.DispatchResult{Channel: req.Channel}, nil
}

type mockInbox struct {
	listPageFn func(ctx context.Context, receiverID int64, pageNumber int) (*notification.Page, error)
	viewFn     func(ctx context.Context, id int64) (*model.Notification, error)
	deleteFn   func(ctx context.Context, id int64) error
}

func (m *mockInbox) ListPage(ctx context.Context, receiverID int64, pageNumber int) (*notification.Page, error) {
	if m.listPageFn != nil {
		return m.listPageFn(ctx, receiverID, pageNumber)
	}
	return &notification.Page{Items: []*model.Notification{}, Page: pageNumber, PageSize: 10}, nil
}

func (m *mockInbox) View(ctx context.Context, id int64) (*model.Notification, error) {
	if m.viewFn != nil {
		return m.viewFn(ctx, id)
	}
	return nil, model.NewMessageNotFoundError(id)
}

func (m *mockInbox) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(context.Context) error {
	return m.err
}

// --- テストヘルパー ---

// withChiURLParams はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v\nraw: %s", err, w.Body.String())
	}
}
