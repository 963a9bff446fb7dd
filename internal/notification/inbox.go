package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/notifier/internal/model"
	"github.com/hitoshi/notifier/internal/repository"
)

// DefaultPageSize は受信箱の1ページあたりの件数。
const DefaultPageSize = 10

// Page は受信箱の1ページ分の通知。
type Page struct {
	Items      []*model.Notification // sent_at昇順
	Page       int                   // 1始まりのページ番号
	PageSize   int
	TotalPages int
	TotalCount int
}

// Inbox は受信者ごとの通知一覧・単体参照・削除を提供する。
// 時刻はUTCのまま返し、表示用のタイムゾーン変換は呼び出し側で行う。
type Inbox struct {
	notifications repository.NotificationRepository
	pageSize      int
}

// NewInbox はInboxを生成する。pageSizeが0以下の場合はDefaultPageSizeを使用する。
func NewInbox(notifications repository.NotificationRepository, pageSize int) *Inbox {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Inbox{notifications: notifications, pageSize: pageSize}
}

// PageSize は1ページあたりの件数を返す。
func (i *Inbox) PageSize() int {
	return i.pageSize
}

// ListPage は受信者の通知をpageNumberページ目（1始まり）について返す。
// 最終ページを超えるページ番号は空のItemsを返し、エラーにはしない。
func (i *Inbox) ListPage(ctx context.Context, receiverID int64, pageNumber int) (*Page, error) {
	if pageNumber < 1 {
		return nil, model.NewInvalidPageError(fmt.Sprint(pageNumber))
	}

	total, err := i.notifications.CountByReceiver(ctx, receiverID)
	if err != nil {
		return nil, model.NewStorageError(err)
	}

	page := &Page{
		Items:      []*model.Notification{},
		Page:       pageNumber,
		PageSize:   i.pageSize,
		TotalPages: totalPages(total, i.pageSize),
		TotalCount: total,
	}
	if pageNumber > page.TotalPages {
		return page, nil
	}

	offset := (pageNumber - 1) * i.pageSize
	items, err := i.notifications.ListByReceiver(ctx, receiverID, i.pageSize, offset)
	if err != nil {
		return nil, model.NewStorageError(err)
	}
	if items != nil {
		page.Items = items
	}
	return page, nil
}

// View は指定IDの通知を返す。存在しない場合はMessageNotFoundErrorを返す。
func (i *Inbox) View(ctx context.Context, id int64) (*model.Notification, error) {
	n, err := i.notifications.FindByID(ctx, id)
	if err != nil {
		return nil, model.NewStorageError(err)
	}
	if n == nil {
		return nil, model.NewMessageNotFoundError(id)
	}
	return n, nil
}

// Delete は指定IDの通知を削除する。
// 存在しないIDや削除済みIDにはMessageNotFoundErrorを返す。
func (i *Inbox) Delete(ctx context.Context, id int64) error {
	err := i.notifications.DeleteByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewMessageNotFoundError(id)
	}
	if err != nil {
		return model.NewStorageError(err)
	}

	slog.Info("notification deleted", slog.Int64("notification_id", id))
	return nil
}

// totalPages はceil(count/size)を返す。
func totalPages(count, size int) int {
	return (count + size - 1) / size
}
