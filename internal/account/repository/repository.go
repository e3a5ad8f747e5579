package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlibekovAA/sessionauth/internal/account/domain"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrStaleAccount    = errors.New("account was modified concurrently")

	ErrConflict          = errors.New("uniqueness conflict")
	ErrUsernameTaken     = fmt.Errorf("%w: username already exists", ErrConflict)
	ErrSessionTokenTaken = fmt.Errorf("%w: session token already exists", ErrConflict)
)

// Repository stores accounts. Implementations enforce username and session
// token uniqueness atomically and assign ID, Version and timestamps.
type Repository interface {
	FindByID(ctx context.Context, id domain.ID) (domain.Account, error)
	FindByUsername(ctx context.Context, username string) (domain.Account, error)
	FindBySessionToken(ctx context.Context, token string) (domain.Account, error)
	Insert(ctx context.Context, account domain.Account) (domain.Account, error)
	// Update writes account if its Version still matches the stored row and
	// returns the row with the bumped Version.
	Update(ctx context.Context, account domain.Account) (domain.Account, error)
}
