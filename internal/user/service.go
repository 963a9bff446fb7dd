// Package user はアカウントのホーム画面向けドメインロジックを提供する。
package user

import (
	"context"

	"github.com/hitoshi/notifier/internal/model"
	"github.com/hitoshi/notifier/internal/repository"
)

// NotificationCounter は受信通知件数の取得インターフェース。
type NotificationCounter interface {
	CountByReceiver(ctx context.Context, receiverID int64) (int, error)
}

// Profile はホーム画面に表示するアカウント情報。
type Profile struct {
	Account       *model.Account
	ReceivedCount int // 受信箱の通知件数
}

// Service はアカウント参照のサービス層。
type Service struct {
	accounts repository.AccountRepository
	counter  NotificationCounter
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(accounts repository.AccountRepository, counter NotificationCounter) *Service {
	return &Service{accounts: accounts, counter: counter}
}

// GetProfile は指定IDのアカウントと受信件数を返す。
// 存在しない場合はAccountNotFoundErrorを返す。
func (s *Service) GetProfile(ctx context.Context, id int64) (*Profile, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, model.NewStorageError(err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError(id)
	}

	profile := &Profile{Account: account}
	if s.counter != nil {
		count, err := s.counter.CountByReceiver(ctx, id)
		if err != nil {
			return nil, model.NewStorageError(err)
		}
		profile.ReceivedCount = count
	}
	return profile, nil
}
