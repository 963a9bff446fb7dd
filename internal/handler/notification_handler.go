package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/notifier/internal/model"
	"github.com/hitoshi/notifier/internal/notification"
)

// DispatcherInterface は通知送信ハンドラーが必要とするサービスインターフェース。
type DispatcherInterface interface {
	Dispatch(ctx context.Context, req notification.DispatchRequest) (*notification.DispatchResult, error)
}

// InboxInterface は受信箱ハンドラーが必要とするサービスインターフェース。
type InboxInterface interface {
	ListPage(ctx context.Context, receiverID int64, pageNumber int) (*notification.Page, error)
	View(ctx context.Context, id int64) (*model.Notification, error)
	Delete(ctx context.Context, id int64) error
}

// NotificationHandler は通知の送信・受信箱・参照・削除のHTTPハンドラー。
type NotificationHandler struct {
	dispatcher DispatcherInterface
	inbox      InboxInterface
	users      UserServiceInterface
	presenter  *Presenter
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(dispatcher DispatcherInterface, inbox InboxInterface, users UserServiceInterface, presenter *Presenter) *NotificationHandler {
	return &NotificationHandler{
		dispatcher: dispatcher,
		inbox:      inbox,
		users:      users,
		presenter:  presenter,
	}
}

// channelOption は送信フォームで選択できるチャネル。
type channelOption struct {
	Channel        model.Channel `json:"channel"`
	RecipientField string        `json:"recipient_field"`
	Submit         string        `json:"submit"`
	Implemented    bool          `json:"implemented"`
}

// channelOptions は送信フォームのチャネル選択肢。Submitはフォームのaction値。
var channelOptions = []channelOption{
	{Channel: model.ChannelEmail, RecipientField: "recpmail", Submit: "Submit Email", Implemented: false},
	{Channel: model.ChannelSMS, RecipientField: "recpnum", Submit: "Submit Message", Implemented: true},
	{Channel: model.ChannelInternal, RecipientField: "recpname", Submit: "Submit Notification", Implemented: true},
}

// channelFromAction はフォームのaction値からチャネルを解決する。
func channelFromAction(action string) model.Channel {
	for _, opt := range channelOptions {
		if opt.Submit == action {
			return opt.Channel
		}
	}
	return model.Channel(action)
}

// sendRequest は通知送信リクエスト。
type sendRequest struct {
	Channel  string `json:"channel"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	RecpName string `json:"recpname"`
	RecpNum  string `json:"recpnum"`
	RecpMail string `json:"recpmail"`
}

func (req *sendRequest) fromForm(values url.Values) {
	req.Channel = values.Get("channel")
	if req.Channel == "" {
		req.Channel = string(channelFromAction(values.Get("action")))
	}
	req.Subject = values.Get("subject")
	req.Body = firstValue(values, "body", "message")
	req.RecpName = values.Get("recpname")
	req.RecpNum = values.Get("recpnum")
	req.RecpMail = values.Get("recpmail")
}

// sendResponse は通知送信結果のレスポンス。
type sendResponse struct {
	Channel        model.Channel `json:"channel"`
	NotificationID int64         `json:"notification_id,omitempty"`
	DeliveryID     string        `json:"delivery_id,omitempty"`
}

// inboxResponse は受信箱1ページ分のレスポンス。
type inboxResponse struct {
	Items      []notificationResponse `json:"items"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"page_size"`
	TotalPages int                    `json:"total_pages"`
	TotalCount int                    `json:"total_count"`
	HasNext    bool                   `json:"has_next"`
}

// SendForm は送信者情報と選択可能なチャネルを返す。
// GET /notifications/send/{id}
func (h *NotificationHandler) SendForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeInvalidIDResponse(w, "id")
		return
	}

	profile, err := h.users.GetProfile(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sender":   toAccountResponse(profile.Account),
		"action":   "/notifications/send/" + strconv.FormatInt(id, 10),
		"channels": channelOptions,
		"fields": []formField{
			{Name: "subject", Type: "text", Required: true},
			{Name: "body", Type: "textarea", Required: false},
		},
	})
}

// Send は送信者が選択したチャネルで通知を1件送る。
// POST /notifications/send/{id}
func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeInvalidIDResponse(w, "id")
		return
	}

	var req sendRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), notification.DispatchRequest{
		SenderID:       id,
		Channel:        model.Channel(strings.ToLower(strings.TrimSpace(req.Channel))),
		Subject:        req.Subject,
		Body:           req.Body,
		RecipientName:  req.RecpName,
		RecipientPhone: req.RecpNum,
		RecipientMail:  req.RecpMail,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sendResponse{
		Channel:        result.Channel,
		NotificationID: result.NotificationID,
		DeliveryID:     result.DeliveryID,
	})
}

// Inbox は受信箱の指定ページを返す。時刻は表示用タイムゾーンに変換する。
// GET, POST /notifications/inbox/{id}/{pageNo}
func (h *NotificationHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		writeInvalidIDResponse(w, "id")
		return
	}

	rawPage := chi.URLParam(r, "pageNo")
	pageNo, err := strconv.Atoi(rawPage)
	if err != nil {
		handleServiceError(w, model.NewInvalidPageError(rawPage))
		return
	}

	page, err := h.inbox.ListPage(r.Context(), id, pageNo)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, inboxResponse{
		Items:      h.presenter.notifications(page.Items),
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
		TotalCount: page.TotalCount,
		HasNext:    page.Page < page.TotalPages,
	})
}

// Delete は通知を削除する。所有者の確認は行わない。
// POST /delete/{userId}/{deleteId}
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseIDParam(r, "userId")
	if !ok {
		writeInvalidIDResponse(w, "userId")
		return
	}
	deleteID, ok := parseIDParam(r, "deleteId")
	if !ok {
		writeInvalidIDResponse(w, "deleteId")
		return
	}

	if err := h.inbox.Delete(r.Context(), deleteID); err != nil {
		handleServiceError(w, err)
		return
	}

	slog.Info("notification deleted via API",
		slog.Int64("user_id", userID),
		slog.Int64("notification_id", deleteID),
	)
	w.WriteHeader(http.StatusNoContent)
}

// View は通知1件を返す。時刻は表示用タイムゾーンに変換する。
// GET /view/{id}/{messageSno}
func (h *NotificationHandler) View(w http.ResponseWriter, r *http.Request) {
	if _, ok := parseIDParam(r, "id"); !ok {
		writeInvalidIDResponse(w, "id")
		return
	}
	messageID, ok := parseIDParam(r, "messageSno")
	if !ok {
		writeInvalidIDResponse(w, "messageSno")
		return
	}

	n, err := h.inbox.View(r.Context(), messageID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.presenter.notification(n))
}

// accountLinks はアカウントのホーム画面から辿れるパスを返す。
func accountLinks(id int64) map[string]string {
	s := strconv.FormatInt(id, 10)
	return map[string]string{
		"send":  "/notifications/send/" + s,
		"inbox": "/notifications/inbox/" + s + "/1",
	}
}
