package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"agenthub/internal/users"
)

type fakeAccounts struct {
	byID map[int64]*users.Account
	all  []users.Account
}

func (f *fakeAccounts) GetByID(ctx context.Context, id int64) (*users.Account, error) {
	account, ok := f.byID[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return account, nil
}

func (f *fakeAccounts) List(ctx context.Context) ([]users.Account, error) {
	return f.all, nil
}

type fakeUsage struct {
	resets []int64
	err    error
}

func (f *fakeUsage) ResetUsage(ctx context.Context, userID int64) error {
	if f.err != nil {
		return f.err
	}
	f.resets = append(f.resets, userID)
	return nil
}

type fakeStats struct {
	counts map[string]int
	since  time.Time
}

func (f *fakeStats) MessageCountsByDay(ctx context.Context, since time.Time) (map[string]int, error) {
	f.since = since
	return f.counts, nil
}

func newTestService(usage *fakeUsage, stats *fakeStats) (*Service, *fakeAccounts) {
	accounts := &fakeAccounts{
		byID: map[int64]*users.Account{
			1: {ID: 1, Login: "root", IsAdmin: true},
			2: {ID: 2, Login: "alice"},
		},
		all: []users.Account{
			{ID: 2, Login: "alice"},
			{ID: 1, Login: "root", IsAdmin: true},
		},
	}
	return NewService(accounts, usage, stats), accounts
}

func TestService_RequiresAdmin(t *testing.T) {
	usage := &fakeUsage{}
	svc, _ := newTestService(usage, &fakeStats{})

	if _, err := svc.Users(context.Background(), 2); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if _, err := svc.ChatStats(context.Background(), 2); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if err := svc.ResetConversations(context.Background(), 2, 1); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if len(usage.resets) != 0 {
		t.Fatalf("denied caller must not reach the counter")
	}
}

func TestService_Users(t *testing.T) {
	svc, accounts := newTestService(&fakeUsage{}, &fakeStats{})

	got, err := svc.Users(context.Background(), 1)
	if err != nil {
		t.Fatalf("Users: %v", err)
	}
	if len(got) != len(accounts.all) || got[0].Login != "alice" {
		t.Fatalf("unexpected listing: %+v", got)
	}
}

func TestService_ChatStats(t *testing.T) {
	stats := &fakeStats{counts: map[string]int{"2026-08-31": 7}}
	svc, _ := newTestService(&fakeUsage{}, stats)

	got, err := svc.ChatStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("ChatStats: %v", err)
	}
	if got["2026-08-31"] != 7 {
		t.Fatalf("unexpected stats: %+v", got)
	}

	window := time.Since(stats.since)
	if window < statsWindow-time.Minute || window > statsWindow+time.Minute {
		t.Fatalf("expected a 30-day window, got %v", window)
	}
}

func TestService_ResetConversations(t *testing.T) {
	usage := &fakeUsage{}
	svc, _ := newTestService(usage, &fakeStats{})

	if err := svc.ResetConversations(context.Background(), 1, 2); err != nil {
		t.Fatalf("ResetConversations: %v", err)
	}
	if len(usage.resets) != 1 || usage.resets[0] != 2 {
		t.Fatalf("expected reset for user 2, got %+v", usage.resets)
	}
}

func TestService_ResetConversationsError(t *testing.T) {
	usage := &fakeUsage{err: errors.New("база недоступна")}
	svc, _ := newTestService(usage, &fakeStats{})

	if err := svc.ResetConversations(context.Background(), 1, 2); err == nil {
		t.Fatalf("expected error")
	}
}
