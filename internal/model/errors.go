// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, notification, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeConflict          = "CONFLICT"
	ErrCodeAuthFailed        = "AUTH_FAILED"
	ErrCodeRecipientNotFound = "RECIPIENT_NOT_FOUND"
	ErrCodeStorage           = "STORAGE_ERROR"
	ErrCodeGateway           = "GATEWAY_ERROR"
	ErrCodeNotImplemented    = "NOT_IMPLEMENTED"
	ErrCodeAccountNotFound   = "ACCOUNT_NOT_FOUND"
	ErrCodeMessageNotFound   = "MESSAGE_NOT_FOUND"
	ErrCodeInvalidChannel    = "INVALID_CHANNEL"
	ErrCodeInvalidPage       = "INVALID_PAGE"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
)

// NewConflictError はmail、phone、nameの一意制約違反エラーを生成する。
func NewConflictError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeConflict,
		Message:  fmt.Sprintf("この%sは既に登録されています。", field),
		Category: "validation",
		Action:   "別の値を入力するか、登録済みのアカウントでログインしてください。",
	}
}

// NewAuthError はログイン失敗エラーを生成する。
// メールアドレス不明とパスワード不一致を区別しない。
func NewAuthError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthFailed,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewRecipientNotFoundError は内部通知の宛先が見つからない場合のエラーを生成する。
func NewRecipientNotFoundError(name string) *APIError {
	return &APIError{
		Code:     ErrCodeRecipientNotFound,
		Message:  fmt.Sprintf("宛先のユーザーが見つかりません: %s", name),
		Category: "notification",
		Action:   "宛先のユーザー名を確認してください。",
	}
}

// NewStorageError は永続化の失敗を表すエラーを生成する。
// ストアのエラーメッセージをそのまま呼び出し元に返す。
func NewStorageError(cause error) *APIError {
	return &APIError{
		Code:     ErrCodeStorage,
		Message:  cause.Error(),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewGatewayError はSMSゲートウェイの送信失敗エラーを生成する。
// ゲートウェイのエラーメッセージは加工しない。
func NewGatewayError(cause error) *APIError {
	return &APIError{
		Code:     ErrCodeGateway,
		Message:  cause.Error(),
		Category: "notification",
		Action:   "宛先の電話番号を確認してください。",
	}
}

// NewNotImplementedError は未実装チャネルが指定された場合のエラーを生成する。
func NewNotImplementedError(channel Channel) *APIError {
	return &APIError{
		Code:     ErrCodeNotImplemented,
		Message:  fmt.Sprintf("%sチャネルは未実装です。", channel),
		Category: "notification",
		Action:   "internal または sms チャネルを選択してください。",
	}
}

// NewAccountNotFoundError はアカウントが見つからない場合のエラーを生成する。
func NewAccountNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeAccountNotFound,
		Message:  fmt.Sprintf("指定されたアカウントが見つかりません: %d", id),
		Category: "auth",
		Action:   "アカウントIDを確認してください。",
	}
}

// NewMessageNotFoundError は通知が見つからない場合のエラーを生成する。
func NewMessageNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeMessageNotFound,
		Message:  fmt.Sprintf("指定された通知が見つかりません: %d", id),
		Category: "notification",
		Action:   "通知IDを確認してください。",
	}
}

// NewInvalidChannelError は未定義のチャネルが指定された場合のエラーを生成する。
func NewInvalidChannelError(channel string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidChannel,
		Message:  fmt.Sprintf("無効なチャネルです: %s", channel),
		Category: "validation",
		Action:   "チャネルには internal、sms、email のいずれかを指定してください。",
	}
}

// NewInvalidPageError はページ番号が不正な場合のエラーを生成する。
func NewInvalidPageError(page string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPage,
		Message:  fmt.Sprintf("無効なページ番号です: %s", page),
		Category: "validation",
		Action:   "ページ番号には1以上の整数を指定してください。",
	}
}

// NewInvalidRequestError は入力値の検証エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  reason,
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}
