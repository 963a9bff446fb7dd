// Package model はドメインモデルを定義する。
package model

import "time"

// Notification はアカウント間でやり取りされる内部通知を表す。
// SenderNameは送信時点の表示名のコピーで、Accountから再取得はしない。
// SentAtは作成時のUTC時刻で、以後変更されない。
type Notification struct {
	ID         int64
	SenderID   int64
	ReceiverID int64
	SenderName string
	Subject    string
	Body       string
	SentAt     time.Time
}

// Channel は送信通知の配信先チャネルを表す。
type Channel string

const (
	// ChannelInternal はアプリ内の受信箱に保存するチャネル。
	ChannelInternal Channel = "internal"
	// ChannelSMS はSMSゲートウェイ経由で送信するチャネル。
	ChannelSMS Channel = "sms"
	// ChannelEmail はメール送信チャネル。未実装。
	ChannelEmail Channel = "email"
)

// Valid はチャネルが定義済みの値かどうかを返す。
func (c Channel) Valid() bool {
	switch c {
	case ChannelInternal, ChannelSMS, ChannelEmail:
		return true
	default:
		return false
	}
}
