package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/notifier/internal/model"
)

// PostgresNotificationRepo はPostgreSQLを使用した通知リポジトリ。
type PostgresNotificationRepo struct {
	db *sql.DB
}

// NewPostgresNotificationRepo はPostgresNotificationRepoを生成する。
func NewPostgresNotificationRepo(db *sql.DB) *PostgresNotificationRepo {
	return &PostgresNotificationRepo{db: db}
}

// Create は通知を作成する。
// sender_id、receiver_idはaccountsへの外部キーで存在が保証される。
func (r *PostgresNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO notifications (sender_id, receiver_id, sender_name, subject, body)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, sent_at`,
		n.SenderID, n.ReceiverID, n.SenderName, n.Subject, n.Body,
	).Scan(&n.ID, &n.SentAt)
	if err != nil {
		return fmt.Errorf("通知の保存に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの通知を取得する。見つからない場合はnilを返す。
func (r *PostgresNotificationRepo) FindByID(ctx context.Context, id int64) (*model.Notification, error) {
	n := &model.Notification{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, sender_id, receiver_id, sender_name, subject, body, sent_at
		 FROM notifications WHERE id = $1`,
		id,
	).Scan(&n.ID, &n.SenderID, &n.ReceiverID, &n.SenderName, &n.Subject, &n.Body, &n.SentAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("通知の取得に失敗しました: %w", err)
	}

	return n, nil
}

// ListByReceiver は受信者の通知をsent_at昇順で取得する。
// 同一時刻の通知はid昇順で並べ、ページ間で順序が揺れないようにする。
func (r *PostgresNotificationRepo) ListByReceiver(ctx context.Context, receiverID int64, limit, offset int) ([]*model.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sender_id, receiver_id, sender_name, subject, body, sent_at
		 FROM notifications
		 WHERE receiver_id = $1
		 ORDER BY sent_at ASC, id ASC
		 LIMIT $2 OFFSET $3`,
		receiverID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("受信箱の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var list []*model.Notification
	for rows.Next() {
		n := &model.Notification{}
		if err := rows.Scan(&n.ID, &n.SenderID, &n.ReceiverID, &n.SenderName, &n.Subject, &n.Body, &n.SentAt); err != nil {
			return nil, fmt.Errorf("通知のスキャンに失敗しました: %w", err)
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("受信箱の取得に失敗しました: %w", err)
	}

	return list, nil
}

// CountByReceiver は受信者の通知件数を返す。
func (r *PostgresNotificationRepo) CountByReceiver(ctx context.Context, receiverID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM notifications WHERE receiver_id = $1`,
		receiverID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("通知件数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// DeleteByID は指定IDの通知を削除する。対象がない場合はErrNotFoundを返す。
func (r *PostgresNotificationRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("通知の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("通知 %d: %w", id, ErrNotFound)
	}
	return nil
}

// compile-time interface check
var _ NotificationRepository = (*PostgresNotificationRepo)(nil)
