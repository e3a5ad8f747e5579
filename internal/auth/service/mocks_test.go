package service_test

import (
	"context"
	"testing"

	"github.com/AlibekovAA/sessionauth/internal/account/domain"
	accountrepo "github.com/AlibekovAA/sessionauth/internal/account/repository"
	"github.com/AlibekovAA/sessionauth/internal/auth/service"
	"github.com/AlibekovAA/sessionauth/internal/common/logger"
)

type mockAccountRepo struct {
	findByIDFunc           func(ctx context.Context, id domain.ID) (domain.Account, error)
	findByUsernameFunc     func(ctx context.Context, username string) (domain.Account, error)
	findBySessionTokenFunc func(ctx context.Context, token string) (domain.Account, error)
	insertFunc             func(ctx context.Context, account domain.Account) (domain.Account, error)
	updateFunc             func(ctx context.Context, account domain.Account) (domain.Account, error)
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id domain.ID) (domain.Account, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return domain.Account{}, accountrepo.ErrAccountNotFound
}

func (m *mockAccountRepo) FindByUsername(ctx context.Context, username string) (domain.Account, error) {
	if m.findByUsernameFunc != nil {
		return m.findByUsernameFunc(ctx, username)
	}
	return domain.Account{}, accountrepo.ErrAccountNotFound
}

func (m *mockAccountRepo) FindBySessionToken(ctx context.Context, token string) (domain.Account, error) {
	if m.findBySessionTokenFunc != nil {
		return m.findBySessionTokenFunc(ctx, token)
	}
	return domain.Account{}, accountrepo.ErrAccountNotFound
}

func (m *mockAccountRepo) Insert(ctx context.Context, account domain.Account) (domain.Account, error) {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, account)
	}
	account.ID = "account-1"
	account.Version = 1
	return account, nil
}

func (m *mockAccountRepo) Update(ctx context.Context, account domain.Account) (domain.Account, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, account)
	}
	account.Version++
	return account, nil
}

type mockHasher struct {
	hashFunc    func(password string) (string, error)
	compareFunc func(digest string, password string) error
	compares    int
}

func (m *mockHasher) Hash(_ context.Context, password string) (string, error) {
	if m.hashFunc != nil {
		return m.hashFunc(password)
	}
	return "hashed_" + password, nil
}

func (m *mockHasher) Compare(_ context.Context, digest string, password string) error {
	m.compares++
	if m.compareFunc != nil {
		return m.compareFunc(digest, password)
	}
	return nil
}

// sequenceTokens hands out the given tokens in order and repeats the last one.
func sequenceTokens(tokens ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		token := tokens[i]
		if i < len(tokens)-1 {
			i++
		}
		return token, nil
	}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("", "test", "critical")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func setupAuthService(t *testing.T, tokens ...string) (*service.AuthService, *mockAccountRepo, *mockHasher) {
	t.Helper()
	if len(tokens) == 0 {
		tokens = []string{"token-1", "token-2", "token-3", "token-4"}
	}
	repo := &mockAccountRepo{}
	hasher := &mockHasher{}
	svc := service.NewAuthService(repo, hasher, sequenceTokens(tokens...), testLogger(t))
	return svc, repo, hasher
}

func ptr(s string) *string {
	return &s
}
