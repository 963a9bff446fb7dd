package notification

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/notifier/internal/model"
	"github.com/hitoshi/notifier/internal/repository"
)

// memAccounts はテスト用のインメモリAccountRepository。
type memAccounts struct {
	mu       sync.Mutex
	accounts []*model.Account
	err      error // 設定時は全操作がこのエラーを返す
}

func (m *memAccounts) Create(_ context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.accounts {
		switch {
		case existing.Mail == a.Mail:
			return &repository.DuplicateError{Field: "mail"}
		case existing.Phone == a.Phone:
			return &repository.DuplicateError{Field: "phone"}
		case existing.Name == a.Name:
			return &repository.DuplicateError{Field: "name"}
		}
	}
	a.ID = int64(len(m.accounts) + 1)
	a.CreatedAt = time.Now().UTC()
	m.accounts = append(m.accounts, a)
	return nil
}

func (m *memAccounts) find(match func(*model.Account) bool) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.accounts {
		if match(a) {
			return a, nil
		}
	}
	return nil, nil
}

func (m *memAccounts) FindByID(_ context.Context, id int64) (*model.Account, error) {
	return m.find(func(a *model.Account) bool { return a.ID == id })
}

func (m *memAccounts) FindByMail(_ context.Context, mail string) (*model.Account, error) {
	return m.find(func(a *model.Account) bool { return a.Mail == mail })
}

func (m *memAccounts) FindByName(_ context.Context, name string) (*model.Account, error) {
	return m.find(func(a *model.Account) bool { return a.Name == name })
}

// memNotifications はテスト用のインメモリNotificationRepository。
// sent_atは作成順に1秒ずつ進める。
type memNotifications struct {
	mu        sync.Mutex
	items     map[int64]*model.Notification
	nextID    int64
	clock     time.Time
	createErr error
}

func newMemNotifications() *memNotifications {
	return &memNotifications{
		items: make(map[int64]*model.Notification),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memNotifications) Create(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	m.clock = m.clock.Add(time.Second)
	n.ID = m.nextID
	if n.SentAt.IsZero() {
		n.SentAt = m.clock
	}
	stored := *n
	m.items[n.ID] = &stored
	return nil
}

func (m *memNotifications) FindByID(_ context.Context, id int64) (*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	copied := *n
	return &copied, nil
}

func (m *memNotifications) byReceiver(receiverID int64) []*model.Notification {
	var result []*model.Notification
	for _, n := range m.items {
		if n.ReceiverID == receiverID {
			copied := *n
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SentAt.Equal(result[j].SentAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].SentAt.Before(result[j].SentAt)
	})
	return result
}

func (m *memNotifications) ListByReceiver(_ context.Context, receiverID int64, limit, offset int) ([]*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.byReceiver(receiverID)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memNotifications) CountByReceiver(_ context.Context, receiverID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byReceiver(receiverID)), nil
}

func (m *memNotifications) DeleteByID(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("notification %d: %w", id, repository.ErrNotFound)
	}
	delete(m.items, id)
	return nil
}

var _ repository.AccountRepository = (*memAccounts)(nil)
var _ repository.NotificationRepository = (*memNotifications)(nil)
