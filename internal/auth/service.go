// Package auth はアカウント登録、パスワード認証、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/notifier/internal/model"
	"github.com/hitoshi/notifier/internal/repository"
	"github.com/hitoshi/notifier/internal/security"
)

// 入力値の最大長（accountsテーブルのカラム長に合わせる）
const (
	maxNameLength  = 50
	maxMailLength  = 254
	maxPhoneLength = 20
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// RegisterInput はアカウント登録の入力値。
type RegisterInput struct {
	Name     string
	Mail     string
	Phone    string
	Password string
}

// LoginResult はログイン成功時の結果。
type LoginResult struct {
	Account *model.Account
	Session *model.Session
	Token   string // Cookieに設定する署名済みトークン
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	accounts repository.AccountRepository
	sessions repository.SessionRepository
	hasher   PasswordHasher
	tokens   *TokenSigner
	markup   security.MarkupDetector
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	accounts repository.AccountRepository,
	sessions repository.SessionRepository,
	hasher PasswordHasher,
	tokens *TokenSigner,
	markup security.MarkupDetector,
	config ServiceConfig,
) *Service {
	return &Service{
		accounts: accounts,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		markup:   markup,
		config:   config,
	}
}

// Register はアカウントを登録し、採番されたIDを返す。
// mail、phone、nameが既存アカウントと重複する場合はConflictErrorを返す。
// パスワードはハッシュ化して保存し、平文は保持しない。
// 名前は内部通知の宛先として他のアカウントに表示されるため、マークアップを含む場合は拒否する。
func (s *Service) Register(ctx context.Context, in RegisterInput) (int64, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Mail = strings.TrimSpace(in.Mail)
	in.Phone = strings.TrimSpace(in.Phone)

	if err := validateRegisterInput(in); err != nil {
		return 0, err
	}
	if s.markup != nil && s.markup.ContainsMarkup(in.Name) {
		return 0, model.NewInvalidRequestError("名前にHTMLタグは使用できません。")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &model.Account{
		Name:         in.Name,
		Mail:         in.Mail,
		Phone:        in.Phone,
		PasswordHash: hash,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		var dup *repository.DuplicateError
		if errors.As(err, &dup) {
			return 0, model.NewConflictError(dup.Field)
		}
		return 0, model.NewStorageError(err)
	}

	slog.Info("account registered",
		slog.Int64("account_id", account.ID),
		slog.String("name", account.Name),
	)
	return account.ID, nil
}

// Login はメールアドレスとパスワードで認証し、セッションを発行する。
// メールアドレス不明とパスワード不一致は同じAuthErrorとして扱う。
func (s *Service) Login(ctx context.Context, mail, password string) (*LoginResult, error) {
	account, err := s.accounts.FindByMail(ctx, strings.TrimSpace(mail))
	if err != nil {
		return nil, model.NewStorageError(err)
	}
	if account == nil || !s.hasher.Verify(account.PasswordHash, password) {
		slog.Warn("login failed", slog.String("mail", mail))
		return nil, model.NewAuthError()
	}

	session, err := s.createSession(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Sign(session)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	slog.Info("account logged in", slog.Int64("account_id", account.ID))
	return &LoginResult{Account: account, Session: session, Token: token}, nil
}

// Logout はトークンが指すセッションを破棄する。
func (s *Service) Logout(ctx context.Context, token string) error {
	sessionID, err := s.tokens.Parse(token)
	if err != nil {
		return err
	}

	if err := s.sessions.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("account logged out", slog.String("session_id", sessionID))
	return nil
}

// ResolveSession はトークンを検証し、有効なセッションを返す。
// 期限切れ・削除済みの場合はnilを返す。
func (s *Service) ResolveSession(ctx context.Context, token string) (*model.Session, error) {
	sessionID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

// GetCurrentAccount はトークンから現在ログイン中のアカウントを取得する。
func (s *Service) GetCurrentAccount(ctx context.Context, token string) (*model.Account, error) {
	session, err := s.ResolveSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	account, err := s.accounts.FindByID(ctx, session.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError(session.AccountID)
	}
	return account, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, accountID int64) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		AccountID: accountID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

func validateRegisterInput(in RegisterInput) error {
	switch {
	case in.Name == "":
		return model.NewInvalidRequestError("名前を入力してください。")
	case in.Mail == "":
		return model.NewInvalidRequestError("メールアドレスを入力してください。")
	case in.Phone == "":
		return model.NewInvalidRequestError("電話番号を入力してください。")
	case in.Password == "":
		return model.NewInvalidRequestError("パスワードを入力してください。")
	case utf8.RuneCountInString(in.Name) > maxNameLength:
		return model.NewInvalidRequestError(fmt.Sprintf("名前は%d文字以内で入力してください。", maxNameLength))
	case len(in.Mail) > maxMailLength || !strings.Contains(in.Mail, "@"):
		return model.NewInvalidRequestError("メールアドレスの形式が正しくありません。")
	case len(in.Phone) > maxPhoneLength:
		return model.NewInvalidRequestError(fmt.Sprintf("電話番号は%d文字以内で入力してください。", maxPhoneLength))
	}
	return nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
