// Package model はドメインモデルを定義する。
package model

import "time"

// Account は登録済みユーザーのアカウントを表す。
// name、mail、phoneはそれぞれ一意。登録後は更新も削除もされない。
type Account struct {
	ID           int64
	Name         string
	Mail         string
	Phone        string
	PasswordHash string // 平文は保持しない
	CreatedAt    time.Time
}

// Session はアカウントのログインセッションを表す。
type Session struct {
	ID        string
	AccountID int64
	ExpiresAt time.Time
	CreatedAt time.Time
}
