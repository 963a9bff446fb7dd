// Package sms はSMSゲートウェイ（Twilio Messages API）のクライアントを提供する。
package sms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// DefaultBaseURL はTwilio REST APIのベースURL。
const DefaultBaseURL = "https://api.twilio.com"

// Gateway はSMS送信のインターフェース。
// 送信に成功した場合はゲートウェイが採番した配信IDを返す。
type Gateway interface {
	Send(ctx context.Context, to, from, body string) (string, error)
}

// GatewayError はゲートウェイが返したエラー応答を表す。
// Error()はゲートウェイのメッセージを加工せずに返す。
type GatewayError struct {
	StatusCode int
	Code       int    // ゲートウェイ固有のエラーコード
	Message    string // ゲートウェイのエラーメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *GatewayError) Error() string {
	return e.Message
}

// Client はtwilio-goのREST APIクライアントを使うSMSゲートウェイ。
// HTTP通信には呼び出し元が渡した*http.Client（SSRF対策済み）を使う。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    *url.URL // nilの場合はSDKの既定エンドポイントに送る
	accountSID string
	authToken  string
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLが空またはDefaultBaseURLの場合はTwilio本番APIに送信する。
// それ以外の場合はスキームとホストを差し替えて送信する（Twilio互換API向け）。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, accountSID, authToken string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		httpClient: httpClient,
		logger:     logger,
		accountSID: accountSID,
		authToken:  authToken,
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL != "" && baseURL != DefaultBaseURL {
		if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
			c.baseURL = u
		}
	}
	return c
}

// Send はSMSを1通送信し、配信IDを返す。リトライは行わない。
// Twilioのエラー応答はメッセージを加工せずGatewayErrorとして返す。
func (c *Client) Send(ctx context.Context, to, from, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &openapi.CreateMessageParams{}
	params.SetPathAccountSid(c.accountSID)
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	resp, err := c.restClient(ctx).Api.CreateMessage(params)
	if err != nil {
		// キャンセル・タイムアウトはSDKのエラー表現に依存せずctxのエラーを返す
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) {
			c.logger.Error("SMSゲートウェイがエラーステータスを返しました",
				slog.Int("http_status", restErr.Status),
				slog.Int("gateway_code", restErr.Code),
				slog.String("message", restErr.Message),
			)
			return "", &GatewayError{StatusCode: restErr.Status, Code: restErr.Code, Message: restErr.Message}
		}

		c.logger.Error("SMSゲートウェイの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return "", err
	}
	if resp == nil || resp.Sid == nil || *resp.Sid == "" {
		return "", fmt.Errorf("SMSゲートウェイのレスポンスに配信IDがありません")
	}

	status := ""
	if resp.Status != nil {
		status = *resp.Status
	}
	c.logger.Info("SMSを送信しました",
		slog.String("delivery_id", *resp.Sid),
		slog.String("status", status),
	)
	return *resp.Sid, nil
}

// restClient は1回の送信用のTwilio RESTクライアントを生成する。
// SDKのAPIはcontextを受け取らないため、トランスポートでリクエストにctxを結び付ける。
func (c *Client) restClient(ctx context.Context) *twilio.RestClient {
	hc := *c.httpClient
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	hc.Transport = &requestTransport{ctx: ctx, baseURL: c.baseURL, next: next}

	base := &twilioclient.Client{
		Credentials: twilioclient.NewCredentials(c.accountSID, c.authToken),
		HTTPClient:  &hc,
	}
	base.SetAccountSid(c.accountSID)

	return twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   c.accountSID,
		Password:   c.authToken,
		AccountSid: c.accountSID,
		Client:     base,
	})
}

// requestTransport はリクエストに呼び出し元のctxを設定し、
// baseURLが指定されていれば送信先のスキームとホストを差し替える。
type requestTransport struct {
	ctx     context.Context
	baseURL *url.URL
	next    http.RoundTripper
}

// RoundTrip はhttp.RoundTripperを実装する。
func (t *requestTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(t.ctx)
	if t.baseURL != nil {
		r.URL.Scheme = t.baseURL.Scheme
		r.URL.Host = t.baseURL.Host
		r.URL.Path = strings.TrimRight(t.baseURL.Path, "/") + req.URL.Path
		r.Host = t.baseURL.Host
	}
	return t.next.RoundTrip(r)
}

var _ Gateway = (*Client)(nil)
