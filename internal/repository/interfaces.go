// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/notifier/internal/model"
)

var (
	// ErrDuplicate は一意制約違反を表す。DuplicateErrorでラップして返される。
	ErrDuplicate = errors.New("duplicate key")
	// ErrNotFound は更新・削除対象の行が存在しないことを表す。
	ErrNotFound = errors.New("record not found")
)

// AccountRepository はアカウントデータの永続化インターフェース。
type AccountRepository interface {
	// Create はアカウントを作成し、採番されたIDとcreated_atをaccountに設定する。
	// mail、phone、nameの重複時はErrDuplicateをラップしたDuplicateErrorを返す。
	Create(ctx context.Context, account *model.Account) error

	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Account, error)

	// FindByMail はメールアドレスでアカウントを検索する。見つからない場合はnilを返す。
	FindByMail(ctx context.Context, mail string) (*model.Account, error)

	// FindByName は表示名でアカウントを検索する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, name string) (*model.Account, error)
}

// NotificationRepository は内部通知の永続化インターフェース。
type NotificationRepository interface {
	// Create は通知を作成し、採番されたIDとsent_atをnotificationに設定する。
	Create(ctx context.Context, notification *model.Notification) error

	// FindByID は指定IDの通知を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Notification, error)

	// ListByReceiver は受信者の通知をsent_at昇順（同時刻はid昇順）で取得する。
	ListByReceiver(ctx context.Context, receiverID int64, limit, offset int) ([]*model.Notification, error)

	// CountByReceiver は受信者の通知件数を返す。
	CountByReceiver(ctx context.Context, receiverID int64) (int, error)

	// DeleteByID は指定IDの通知を削除する。対象がない場合はErrNotFoundを返す。
	DeleteByID(ctx context.Context, id int64) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}
