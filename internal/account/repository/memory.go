package repository

import (
	"context"
	"sync"

	"github.com/AlibekovAA/sessionauth/internal/account/domain"
	"github.com/AlibekovAA/sessionauth/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/sessionauth/internal/common/crypto"
)

// MemoryRepository keeps accounts in process memory with the same
// uniqueness and versioning rules as the Postgres store.
type MemoryRepository struct {
	mu         sync.RWMutex
	byID       map[domain.ID]domain.Account
	byUsername map[string]domain.ID
	byToken    map[string]domain.ID
	ids        commoncrypto.IDGenerator
	clock      clock.Clock
}

func NewMemoryRepository(ids commoncrypto.IDGenerator, clk clock.Clock) *MemoryRepository {
	return &MemoryRepository{
		byID:       make(map[domain.ID]domain.Account),
		byUsername: make(map[string]domain.ID),
		byToken:    make(map[string]domain.ID),
		ids:        ids,
		clock:      clk,
	}
}

func (r *MemoryRepository) FindByID(ctx context.Context, id domain.ID) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[id]
	if !ok {
		return domain.Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (r *MemoryRepository) FindByUsername(ctx context.Context, username string) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return domain.Account{}, ErrAccountNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryRepository) FindBySessionToken(ctx context.Context, token string) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byToken[token]
	if !ok {
		return domain.Account{}, ErrAccountNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryRepository) Insert(ctx context.Context, account domain.Account) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}

	id, err := r.ids.NewID()
	if err != nil {
		return domain.Account{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[account.Username]; taken {
		return domain.Account{}, ErrUsernameTaken
	}
	if _, taken := r.byToken[account.SessionToken]; taken {
		return domain.Account{}, ErrSessionTokenTaken
	}

	now := r.clock.Now()
	account.ID = domain.ID(id)
	account.Version = 1
	account.CreatedAt = now
	account.UpdatedAt = now

	r.byID[account.ID] = account
	r.byUsername[account.Username] = account.ID
	r.byToken[account.SessionToken] = account.ID
	return account, nil
}

func (r *MemoryRepository) Update(ctx context.Context, account domain.Account) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[account.ID]
	if !ok {
		return domain.Account{}, ErrAccountNotFound
	}
	if stored.Version != account.Version {
		return domain.Account{}, ErrStaleAccount
	}
	if owner, taken := r.byUsername[account.Username]; taken && owner != account.ID {
		return domain.Account{}, ErrUsernameTaken
	}
	if owner, taken := r.byToken[account.SessionToken]; taken && owner != account.ID {
		return domain.Account{}, ErrSessionTokenTaken
	}

	delete(r.byUsername, stored.Username)
	delete(r.byToken, stored.SessionToken)

	account.CreatedAt = stored.CreatedAt
	account.UpdatedAt = r.clock.Now()
	account.Version = stored.Version + 1

	r.byID[account.ID] = account
	r.byUsername[account.Username] = account.ID
	r.byToken[account.SessionToken] = account.ID
	return account, nil
}
