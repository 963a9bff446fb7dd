package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"github.com/hitoshi/notifier/internal/database"
	"github.com/hitoshi/notifier/internal/model"
)

// setupIntegrationDB はTEST_DATABASE_URLのDBにマイグレーションを適用し、全行を削除して返す。
// 接続できない場合はテストをスキップする。
func setupIntegrationDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL が未設定のためスキップ")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("データベースへの接続に失敗: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("テスト用データベースに接続できません（スキップ）: %v", err)
	}
	if _, err := database.RunMigrations(dbURL); err != nil {
		db.Close()
		t.Fatalf("マイグレーション実行に失敗: %v", err)
	}
	if _, err := db.Exec(`TRUNCATE sessions, notifications, accounts RESTART IDENTITY CASCADE`); err != nil {
		db.Close()
		t.Fatalf("テーブルの初期化に失敗: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func createAccount(t *testing.T, repo *PostgresAccountRepo, name, mail, phone string) *model.Account {
	t.Helper()
	account := &model.Account{Name: name, Mail: mail, Phone: phone, PasswordHash: "hash"}
	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("アカウント作成に失敗: %v", err)
	}
	return account
}

func TestPostgresAccountRepo_CreateAndFind(t *testing.T) {
	db := setupIntegrationDB(t)
	repo := NewPostgresAccountRepo(db)
	ctx := context.Background()

	a := createAccount(t, repo, "A", "a@x.com", "+15550001")
	if a.ID == 0 {
		t.Fatal("IDが採番されていない")
	}
	if a.CreatedAt.IsZero() {
		t.Error("CreatedAtが設定されていない")
	}

	byMail, err := repo.FindByMail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("FindByMail: %v", err)
	}
	if byMail == nil || byMail.ID != a.ID {
		t.Fatalf("FindByMail = %+v, want id %d", byMail, a.ID)
	}

	byName, err := repo.FindByName(ctx, "A")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if byName == nil || byName.Phone != "+15550001" {
		t.Fatalf("FindByName = %+v", byName)
	}

	missing, err := repo.FindByID(ctx, a.ID+100)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if missing != nil {
		t.Errorf("存在しないIDでnil以外が返った: %+v", missing)
	}
}

func TestPostgresAccountRepo_Create_Duplicate(t *testing.T) {
	db := setupIntegrationDB(t)
	repo := NewPostgresAccountRepo(db)
	ctx := context.Background()

	first := createAccount(t, repo, "A", "a@x.com", "+15550001")

	err := repo.Create(ctx, &model.Account{Name: "B", Mail: "a@x.com", Phone: "+15550002", PasswordHash: "hash"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
	var dup *DuplicateError
	if !errors.As(err, &dup) || dup.Field != "mail" {
		t.Errorf("DuplicateError.Field = %v, want mail", dup)
	}

	// 最初のアカウントは影響を受けない
	got, err := repo.FindByID(ctx, first.ID)
	if err != nil || got == nil || got.Mail != "a@x.com" {
		t.Errorf("既存アカウントが変化した: %+v, err=%v", got, err)
	}
}

func TestPostgresNotificationRepo_ListOrderAndPaging(t *testing.T) {
	db := setupIntegrationDB(t)
	accounts := NewPostgresAccountRepo(db)
	repo := NewPostgresNotificationRepo(db)
	ctx := context.Background()

	sender := createAccount(t, accounts, "A", "a@x.com", "+15550001")
	receiver := createAccount(t, accounts, "B", "b@x.com", "+15550002")

	for i := 0; i < 25; i++ {
		n := &model.Notification{
			SenderID:   sender.ID,
			ReceiverID: receiver.ID,
			SenderName: sender.Name,
			Subject:    "Hi",
			Body:       "Test",
		}
		if err := repo.Create(ctx, n); err != nil {
			t.Fatalf("通知作成に失敗: %v", err)
		}
	}

	count, err := repo.CountByReceiver(ctx, receiver.ID)
	if err != nil {
		t.Fatalf("CountByReceiver: %v", err)
	}
	if count != 25 {
		t.Errorf("count = %d, want 25", count)
	}

	page3, err := repo.ListByReceiver(ctx, receiver.ID, 10, 20)
	if err != nil {
		t.Fatalf("ListByReceiver: %v", err)
	}
	if len(page3) != 5 {
		t.Errorf("len(page3) = %d, want 5", len(page3))
	}

	all, err := repo.ListByReceiver(ctx, receiver.ID, 100, 0)
	if err != nil {
		t.Fatalf("ListByReceiver: %v", err)
	}
	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		if cur.SentAt.Before(prev.SentAt) || (cur.SentAt.Equal(prev.SentAt) && cur.ID < prev.ID) {
			t.Fatalf("昇順になっていない: %d(%v) の後に %d(%v)", prev.ID, prev.SentAt, cur.ID, cur.SentAt)
		}
	}

	beyond, err := repo.ListByReceiver(ctx, receiver.ID, 10, 30)
	if err != nil {
		t.Fatalf("ListByReceiver: %v", err)
	}
	if len(beyond) != 0 {
		t.Errorf("最終ページ以降 = %d件, want 0", len(beyond))
	}
}

func TestPostgresNotificationRepo_DeleteByID(t *testing.T) {
	db := setupIntegrationDB(t)
	accounts := NewPostgresAccountRepo(db)
	repo := NewPostgresNotificationRepo(db)
	ctx := context.Background()

	a := createAccount(t, accounts, "A", "a@x.com", "+15550001")
	n := &model.Notification{SenderID: a.ID, ReceiverID: a.ID, SenderName: "A", Subject: "s", Body: "b"}
	if err := repo.Create(ctx, n); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.DeleteByID(ctx, n.ID); err != nil {
		t.Fatalf("1回目の削除に失敗: %v", err)
	}
	if err := repo.DeleteByID(ctx, n.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("2回目の削除 err = %v, want ErrNotFound", err)
	}

	got, err := repo.FindByID(ctx, n.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got != nil {
		t.Errorf("削除済みの通知が取得できた: %+v", got)
	}
}

func TestPostgresSessionRepo_ExpiredSessionNotReturned(t *testing.T) {
	db := setupIntegrationDB(t)
	accounts := NewPostgresAccountRepo(db)
	repo := NewPostgresSessionRepo(db)
	ctx := context.Background()

	a := createAccount(t, accounts, "A", "a@x.com", "+15550001")
	now := time.Now()

	valid := &model.Session{ID: "valid", AccountID: a.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	expired := &model.Session{ID: "expired", AccountID: a.ID, ExpiresAt: now.Add(-time.Hour), CreatedAt: now}
	for _, s := range []*model.Session{valid, expired} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create(%s): %v", s.ID, err)
		}
	}

	got, err := repo.FindByID(ctx, "valid")
	if err != nil || got == nil || got.AccountID != a.ID {
		t.Fatalf("有効なセッションが取得できない: %+v, err=%v", got, err)
	}

	got, err = repo.FindByID(ctx, "expired")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got != nil {
		t.Errorf("期限切れセッションが返された: %+v", got)
	}

	if err := repo.DeleteByID(ctx, "valid"); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	got, _ = repo.FindByID(ctx, "valid")
	if got != nil {
		t.Error("削除後もセッションが取得できた")
	}
}
