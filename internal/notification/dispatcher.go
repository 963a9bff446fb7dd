// Package notification は通知の送信（内部受信箱・SMS・メール）と受信箱の参照・削除を提供する。
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/notifier/internal/metrics"
	"github.com/hitoshi/notifier/internal/model"
	"github.com/hitoshi/notifier/internal/repository"
	"github.com/hitoshi/notifier/internal/sms"
)

// maxSubjectLength はnotifications.subjectのカラム長。
const maxSubjectLength = 200

// Config は送信処理の設定。グローバル状態を参照せず明示的に渡す。
type Config struct {
	SMSFromNumber string // SMSの送信元電話番号
}

// DispatchRequest は通知送信の入力値。
// チャネルに応じて宛先フィールドを使い分ける。
type DispatchRequest struct {
	SenderID       int64
	Channel        model.Channel
	Subject        string
	Body           string
	RecipientName  string // internal: 宛先の表示名
	RecipientPhone string // sms: 宛先の電話番号
	RecipientMail  string // email: 宛先のメールアドレス
}

// DispatchResult は通知送信の結果。
type DispatchResult struct {
	Channel        model.Channel
	NotificationID int64  // internal の場合のみ
	DeliveryID     string // sms の場合のみ
}

// Dispatcher は送信者が選択したチャネルへ通知を1件送る。リトライは行わない。
type Dispatcher struct {
	accounts      repository.AccountRepository
	notifications repository.NotificationRepository
	gateway       sms.Gateway
	metrics       metrics.MetricsCollector
	config        Config
}

// NewDispatcher はDispatcherを生成する。metricsはnilでもよい。
func NewDispatcher(
	accounts repository.AccountRepository,
	notifications repository.NotificationRepository,
	gateway sms.Gateway,
	metricsCollector metrics.MetricsCollector,
	config Config,
) *Dispatcher {
	return &Dispatcher{
		accounts:      accounts,
		notifications: notifications,
		gateway:       gateway,
		metrics:       metricsCollector,
		config:        config,
	}
}

// ComposeSMSText はSMS本文を "From: <name>\nSubject: <subject>\n<body>" 形式で組み立てる。
func ComposeSMSText(senderName, subject, body string) string {
	return "From: " + senderName + "\nSubject: " + subject + "\n" + body
}

// Dispatch はreq.Channelに応じて通知を送信する。
//   - internal: 宛先を表示名で解決し、受信箱に保存する
//   - sms: ゲートウェイを1回呼び出す
//   - email: 未実装のためNotImplementedErrorを返す（副作用なし）
func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	if !req.Channel.Valid() {
		return nil, model.NewInvalidChannelError(string(req.Channel))
	}
	if req.Channel == model.ChannelEmail {
		d.record(req.Channel, metrics.ResultFailure)
		return nil, model.NewNotImplementedError(req.Channel)
	}

	if utf8.RuneCountInString(req.Subject) > maxSubjectLength {
		return nil, model.NewInvalidRequestError(fmt.Sprintf("件名は%d文字以内で入力してください。", maxSubjectLength))
	}

	sender, err := d.accounts.FindByID(ctx, req.SenderID)
	if err != nil {
		return nil, model.NewStorageError(err)
	}
	if sender == nil {
		return nil, model.NewAccountNotFoundError(req.SenderID)
	}

	var result *DispatchResult
	if req.Channel == model.ChannelInternal {
		result, err = d.dispatchInternal(ctx, sender, req)
	} else {
		result, err = d.dispatchSMS(ctx, sender, req)
	}
	if err != nil {
		d.record(req.Channel, metrics.ResultFailure)
		return nil, err
	}

	d.record(req.Channel, metrics.ResultSuccess)
	return result, nil
}

// dispatchInternal は宛先アカウントの受信箱に通知を保存する。
// 件名と本文は入力されたまま保存し、送信者名などを付加しない。
func (d *Dispatcher) dispatchInternal(ctx context.Context, sender *model.Account, req DispatchRequest) (*DispatchResult, error) {
	name := strings.TrimSpace(req.RecipientName)
	if name == "" {
		return nil, model.NewInvalidRequestError("宛先のユーザー名を入力してください。")
	}

	receiver, err := d.accounts.FindByName(ctx, name)
	if err != nil {
		return nil, model.NewStorageError(err)
	}
	if receiver == nil {
		return nil, model.NewRecipientNotFoundError(name)
	}

	n := &model.Notification{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		SenderName: sender.Name,
		Subject:    req.Subject,
		Body:       req.Body,
	}
	if err := d.notifications.Create(ctx, n); err != nil {
		slog.Error("failed to store notification",
			slog.Int64("sender_id", sender.ID),
			slog.Int64("receiver_id", receiver.ID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewStorageError(err)
	}

	slog.Info("internal notification stored",
		slog.Int64("notification_id", n.ID),
		slog.Int64("sender_id", sender.ID),
		slog.Int64("receiver_id", receiver.ID),
	)
	return &DispatchResult{Channel: model.ChannelInternal, NotificationID: n.ID}, nil
}

// dispatchSMS はSMSゲートウェイで1通送信する。ゲートウェイのエラーメッセージは加工しない。
func (d *Dispatcher) dispatchSMS(ctx context.Context, sender *model.Account, req DispatchRequest) (*DispatchResult, error) {
	to := strings.TrimSpace(req.RecipientPhone)
	if to == "" {
		return nil, model.NewInvalidRequestError("宛先の電話番号を入力してください。")
	}

	text := ComposeSMSText(sender.Name, req.Subject, req.Body)

	start := time.Now()
	deliveryID, err := d.gateway.Send(ctx, to, d.config.SMSFromNumber, text)
	if d.metrics != nil {
		d.metrics.RecordGatewayLatency(time.Since(start))
	}
	if err != nil {
		slog.Error("sms dispatch failed",
			slog.Int64("sender_id", sender.ID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewGatewayError(err)
	}

	slog.Info("sms dispatched",
		slog.Int64("sender_id", sender.ID),
		slog.String("delivery_id", deliveryID),
	)
	return &DispatchResult{Channel: model.ChannelSMS, DeliveryID: deliveryID}, nil
}

func (d *Dispatcher) record(channel model.Channel, result string) {
	if d.metrics != nil {
		d.metrics.RecordDispatch(string(channel), result)
	}
}
