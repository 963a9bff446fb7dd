package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/notifier/internal/model"
)

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

// Create はアカウントを作成する。
// IDとcreated_atはDB側で採番・設定し、accountに書き戻す。
func (r *PostgresAccountRepo) Create(ctx context.Context, account *model.Account) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO accounts (name, mail, phone, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		account.Name, account.Mail, account.Phone, account.PasswordHash,
	).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		if dup, ok := asDuplicateError(err); ok {
			return dup
		}
		return fmt.Errorf("アカウントの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

// FindByMail はメールアドレスでアカウントを検索する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByMail(ctx context.Context, mail string) (*model.Account, error) {
	return r.findOne(ctx, `WHERE mail = $1`, mail)
}

// FindByName は表示名でアカウントを検索する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByName(ctx context.Context, name string) (*model.Account, error) {
	return r.findOne(ctx, `WHERE name = $1`, name)
}

func (r *PostgresAccountRepo) findOne(ctx context.Context, where string, arg any) (*model.Account, error) {
	account := &model.Account{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, mail, phone, password_hash, created_at FROM accounts `+where,
		arg,
	).Scan(&account.ID, &account.Name, &account.Mail, &account.Phone, &account.PasswordHash, &account.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}

	return account, nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
