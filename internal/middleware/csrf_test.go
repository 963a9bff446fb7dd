package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func csrfProtected() http.Handler {
	return NewCSRFMiddleware(CSRFConfig{})(okHandler())
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCSRFMiddleware_SafeMethodIssuesToken(t *testing.T) {
	w := httptest.NewRecorder()
	csrfProtected().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/signin", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	c := findCookie(w.Result().Cookies(), csrfCookieName)
	if c == nil {
		t.Fatal("CSRFトークンCookieが発行されていない")
	}
	if len(c.Value) != 64 {
		t.Errorf("token length = %d, want 64", len(c.Value))
	}
	if c.HttpOnly {
		t.Error("CSRFトークンCookieはJavaScriptから読める必要がある")
	}
}

func TestCSRFMiddleware_SafeMethodKeepsExistingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/signin", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing"})
	w := httptest.NewRecorder()
	csrfProtected().ServeHTTP(w, req)

	if c := findCookie(w.Result().Cookies(), csrfCookieName); c != nil {
		t.Errorf("既存トークンがあるのに再発行された: %q", c.Value)
	}
}

func TestCSRFMiddleware_PostValidation(t *testing.T) {
	tests := []struct {
		name       string
		cookie     string
		header     string
		wantStatus int
	}{
		{"一致", "token-abc", "token-abc", http.StatusOK},
		{"Cookieなし", "", "token-abc", http.StatusForbidden},
		{"ヘッダーなし", "token-abc", "", http.StatusForbidden},
		{"不一致", "token-abc", "token-xyz", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/notifications/send/1", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(csrfHeaderName, tt.header)
			}
			w := httptest.NewRecorder()
			csrfProtected().ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusForbidden {
				var body ErrorResponseBody
				if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode body: %v", err)
				}
				if body.Code != "CSRF_FAILED" {
					t.Errorf("code = %q, want CSRF_FAILED", body.Code)
				}
			}
		})
	}
}

func TestCSRFMiddleware_AcceptsFormField(t *testing.T) {
	form := url.Values{"csrf_token": {"token-abc"}, "mail": {"a@example.com"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "token-abc"})

	var mail string
	handler := NewCSRFMiddleware(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mail = r.PostFormValue("mail")
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if mail != "a@example.com" {
		t.Errorf("後段でフォーム値が読めない: %q", mail)
	}
}

func TestCSRFTokenHandler(t *testing.T) {
	t.Run("新規発行", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewCSRFTokenHandler(CSRFConfig{CookieDomain: "example.com"}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil))

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		c := findCookie(w.Result().Cookies(), csrfCookieName)
		if c == nil {
			t.Fatal("Cookieが発行されていない")
		}
		if body["token"] != c.Value {
			t.Errorf("token = %q, cookie = %q", body["token"], c.Value)
		}
		if c.Domain != "example.com" {
			t.Errorf("domain = %q, want example.com", c.Domain)
		}
	})

	t.Run("既存トークンを返す", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing"})
		w := httptest.NewRecorder()
		NewCSRFTokenHandler(CSRFConfig{}).ServeHTTP(w, req)

		var body map[string]string
		json.NewDecoder(w.Body).Decode(&body)
		if body["token"] != "existing" {
			t.Errorf("token = %q, want existing", body["token"])
		}
	})
}
