package handler

import (
	"log/slog"
	"time"

	"github.com/hitoshi/notifier/internal/model"
)

// DefaultDisplayTimezone は表示用タイムゾーンの既定値。
const DefaultDisplayTimezone = "Asia/Kolkata"

// displayTimeLayout は人が読むための表示形式。
const displayTimeLayout = "2006-01-02 15:04:05 MST"

// LoadDisplayLocation はタイムゾーン名からLocationを読み込む。
// タイムゾーンデータベースが利用できない場合はIST（UTC+5:30）の固定ゾーンを返す。
func LoadDisplayLocation(name string) *time.Location {
	if name == "" {
		name = DefaultDisplayTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("failed to load display timezone, falling back to IST",
			slog.String("timezone", name),
			slog.String("error", err.Error()),
		)
		return time.FixedZone("IST", 5*60*60+30*60)
	}
	return loc
}

// Presenter は保存済みの時刻を表示用タイムゾーンに変換する。
// 永続化されたレコードは変更しない。
type Presenter struct {
	location *time.Location
}

// NewPresenter はPresenterを生成する。locがnilの場合はDefaultDisplayTimezoneを使用する。
func NewPresenter(loc *time.Location) *Presenter {
	if loc == nil {
		loc = LoadDisplayLocation(DefaultDisplayTimezone)
	}
	return &Presenter{location: loc}
}

// Localize は時刻を表示用タイムゾーンに変換する。
// ゾーン情報を持たない時刻（Local扱い）はUTCとみなしてから変換する。
func (p *Presenter) Localize(t time.Time) time.Time {
	if t.Location() == time.Local {
		t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	}
	return t.In(p.location)
}

// notificationResponse は通知1件のAPIレスポンス。
type notificationResponse struct {
	ID            int64  `json:"id"`
	SenderID      int64  `json:"sender_id"`
	ReceiverID    int64  `json:"receiver_id"`
	SenderName    string `json:"sender_name"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	SentAt        string `json:"sent_at"`
	SentAtDisplay string `json:"sent_at_display"`
}

// notification は通知を表示用のレスポンスに変換する。
func (p *Presenter) notification(n *model.Notification) notificationResponse {
	sentAt := p.Localize(n.SentAt)
	return notificationResponse{
		ID:            n.ID,
		SenderID:      n.SenderID,
		ReceiverID:    n.ReceiverID,
		SenderName:    n.SenderName,
		Subject:       n.Subject,
		Body:          n.Body,
		SentAt:        sentAt.Format(time.RFC3339),
		SentAtDisplay: sentAt.Format(displayTimeLayout),
	}
}

// notifications は通知一覧を表示用のレスポンスに変換する。空の場合も空配列を返す。
func (p *Presenter) notifications(items []*model.Notification) []notificationResponse {
	out := make([]notificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, p.notification(n))
	}
	return out
}
