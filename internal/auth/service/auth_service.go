package service

import (
	"context"
	"errors"
	"sync"

	"github.com/AlibekovAA/sessionauth/internal/account/domain"
	accountrepo "github.com/AlibekovAA/sessionauth/internal/account/repository"
	"github.com/AlibekovAA/sessionauth/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/sessionauth/internal/common/crypto"
	"github.com/AlibekovAA/sessionauth/internal/common/logger"
)

const dummyPassword = "not-a-real-password"

// AuthService is the credential and session manager. It keeps no state
// between calls beyond the lazily built dummy digest.
type AuthService struct {
	repo      accountrepo.Repository
	hasher    commoncrypto.PasswordHasher
	newToken  commoncrypto.TokenGenerator
	validator *Validator
	log       *logger.Logger

	dummyOnce   sync.Once
	dummyDigest string
}

func NewAuthService(
	repo accountrepo.Repository,
	hasher commoncrypto.PasswordHasher,
	newToken commoncrypto.TokenGenerator,
	log *logger.Logger,
) *AuthService {
	if newToken == nil {
		newToken = commoncrypto.GenerateSessionToken
	}
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		newToken:  newToken,
		validator: NewValidator(),
		log:       log,
	}
}

type RegisterInput struct {
	Username string
	// Password is nil when the caller supplied none.
	Password *string
}

type ChangePasswordInput struct {
	AccountID       domain.ID
	CurrentPassword string
	NewPassword     string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (domain.Account, error) {
	s.log.WithFields(ctx, logger.Fields{
		"username": input.Username,
		"action":   "register_attempt",
	}).Info("register attempt")

	token, err := s.newToken()
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_token_failed",
		}).Errorf("register failed: token generation error: %v", err)
		recordRegistration(resultError)
		return domain.Account{}, ErrTokenGeneration.WithCause(err)
	}

	violations := s.validator.ValidateAccount(input.Username, input.Password, input.Password != nil, token)

	if input.Username != "" {
		_, err := s.repo.FindByUsername(ctx, input.Username)
		switch {
		case err == nil:
			violations = append(violations, usernameTaken())
		case !errors.Is(err, accountrepo.ErrAccountNotFound):
			s.log.WithFields(ctx, logger.Fields{
				"username": input.Username,
				"action":   "register_lookup_failed",
			}).Errorf("register failed: %v", err)
			recordRegistration(resultError)
			return domain.Account{}, storageError(err)
		}
	}

	if len(violations) > 0 {
		vErr := &ValidationError{Violations: violations}
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_validation_failed",
		}).Warnf("register validation failed: %v", vErr)
		recordRegistration(resultInvalid)
		return domain.Account{}, vErr
	}

	digest, err := s.hasher.Hash(ctx, *input.Password)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_hash_failed",
		}).Errorf("register failed: password hash error: %v", err)
		recordRegistration(resultError)
		return domain.Account{}, ErrHashing.WithCause(err)
	}

	candidate := domain.Account{
		Username:       input.Username,
		PasswordDigest: digest,
		SessionToken:   token,
	}

	for attempt := 1; attempt <= constants.MaxTokenCollisionRetry; attempt++ {
		created, err := s.repo.Insert(ctx, candidate)
		if err == nil {
			s.log.WithFields(ctx, logger.Fields{
				"username": created.Username,
				"user_id":  string(created.ID),
				"action":   "register_success",
			}).Info("register success")
			recordRegistration(resultSuccess)
			return created, nil
		}

		switch {
		case errors.Is(err, accountrepo.ErrUsernameTaken):
			s.log.WithFields(ctx, logger.Fields{
				"username": input.Username,
				"action":   "register_username_exists",
			}).Warn("register failed: already exists")
			recordRegistration(resultConflict)
			return domain.Account{}, &ValidationError{Violations: []Violation{usernameTaken()}}
		case errors.Is(err, accountrepo.ErrSessionTokenTaken):
			recordTokenCollision()
			s.log.WithFields(ctx, logger.Fields{
				"username": input.Username,
				"attempt":  attempt,
				"action":   "register_token_collision",
			}).Warn("register: session token collision, regenerating")
			if candidate.SessionToken, err = s.newToken(); err != nil {
				recordRegistration(resultError)
				return domain.Account{}, ErrTokenGeneration.WithCause(err)
			}
		default:
			s.log.WithFields(ctx, logger.Fields{
				"username": input.Username,
				"action":   "register_create_failed",
			}).Errorf("register failed: %v", err)
			recordRegistration(resultError)
			return domain.Account{}, storageError(err)
		}
	}

	recordRegistration(resultConflict)
	return domain.Account{}, &ValidationError{Violations: []Violation{sessionTokenTaken()}}
}

// Authenticate verifies password against the digest of the account found
// by an exact username match. Unknown usernames and wrong passwords both
// yield ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (domain.Account, error) {
	s.log.WithFields(ctx, logger.Fields{
		"username": username,
		"action":   "login_attempt",
	}).Info("login attempt")

	// bcrypt ignores bytes past the limit, so a longer input could match a
	// digest made from its prefix.
	if len(password) > constants.PasswordMaxBytes {
		s.burnCompare(ctx, password)
		s.log.WithFields(ctx, logger.Fields{
			"username": username,
			"action":   "login_password_too_long",
		}).Warn("login failed: password exceeds bcrypt limit")
		recordAuthentication(resultInvalid)
		return domain.Account{}, ErrInvalidCredentials
	}

	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, accountrepo.ErrAccountNotFound) {
			s.burnCompare(ctx, password)
			s.log.WithFields(ctx, logger.Fields{
				"username": username,
				"action":   "login_user_not_found",
			}).Warn("login failed: not found")
			recordAuthentication(resultInvalid)
			return domain.Account{}, ErrInvalidCredentials
		}
		s.log.WithFields(ctx, logger.Fields{
			"username": username,
			"action":   "login_fetch_failed",
		}).Errorf("login failed: %v", err)
		recordAuthentication(resultError)
		return domain.Account{}, storageError(err)
	}

	if err := s.hasher.Compare(ctx, account.PasswordDigest, password); err != nil {
		if errors.Is(err, commoncrypto.ErrMismatchedPassword) {
			s.log.WithFields(ctx, logger.Fields{
				"username": username,
				"user_id":  string(account.ID),
				"action":   "login_invalid_password",
			}).Warn("login failed: invalid password")
			recordAuthentication(resultInvalid)
			return domain.Account{}, ErrInvalidCredentials
		}
		s.log.WithFields(ctx, logger.Fields{
			"username": username,
			"user_id":  string(account.ID),
			"action":   "login_compare_failed",
		}).Errorf("login failed: compare error: %v", err)
		recordAuthentication(resultError)
		return domain.Account{}, ErrHashing.WithCause(err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"username": account.Username,
		"user_id":  string(account.ID),
		"action":   "login_success",
	}).Info("login success")
	recordAuthentication(resultSuccess)
	return account, nil
}

// RotateSession replaces the account's session token and persists it
// before returning. Every earlier token stops resolving once this returns.
func (s *AuthService) RotateSession(ctx context.Context, id domain.ID) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= constants.MaxStaleUpdateRetry; attempt++ {
		account, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, accountrepo.ErrAccountNotFound) {
				s.log.WithFields(ctx, logger.Fields{
					"user_id": string(id),
					"action":  "rotate_session_not_found",
				}).Warn("rotate session failed: not found")
				recordSessionRotation(resultInvalid)
				return "", ErrAccountNotFound
			}
			s.log.WithFields(ctx, logger.Fields{
				"user_id": string(id),
				"action":  "rotate_session_fetch_failed",
			}).Errorf("rotate session failed: %v", err)
			recordSessionRotation(resultError)
			return "", storageError(err)
		}

		token, err := s.newToken()
		if err != nil {
			recordSessionRotation(resultError)
			return "", ErrTokenGeneration.WithCause(err)
		}
		account.SessionToken = token

		updated, err := s.repo.Update(ctx, account)
		switch {
		case err == nil:
			s.log.WithFields(ctx, logger.Fields{
				"user_id": string(updated.ID),
				"version": updated.Version,
				"action":  "rotate_session_success",
			}).Info("session rotated")
			recordSessionRotation(resultSuccess)
			return updated.SessionToken, nil
		case errors.Is(err, accountrepo.ErrStaleAccount):
			lastErr = err
			s.log.WithFields(ctx, logger.Fields{
				"user_id": string(id),
				"attempt": attempt,
				"action":  "rotate_session_stale",
			}).Warn("rotate session: account changed concurrently, retrying")
		case errors.Is(err, accountrepo.ErrSessionTokenTaken):
			lastErr = err
			recordTokenCollision()
			s.log.WithFields(ctx, logger.Fields{
				"user_id": string(id),
				"attempt": attempt,
				"action":  "rotate_session_token_collision",
			}).Warn("rotate session: session token collision, regenerating")
		case errors.Is(err, accountrepo.ErrAccountNotFound):
			recordSessionRotation(resultInvalid)
			return "", ErrAccountNotFound
		default:
			s.log.WithFields(ctx, logger.Fields{
				"user_id": string(id),
				"action":  "rotate_session_update_failed",
			}).Errorf("rotate session failed: %v", err)
			recordSessionRotation(resultError)
			return "", storageError(err)
		}
	}

	recordSessionRotation(resultConflict)
	if errors.Is(lastErr, accountrepo.ErrSessionTokenTaken) {
		return "", ErrTokenGeneration.WithCause(lastErr)
	}
	return "", ErrConcurrentModification.WithCause(lastErr)
}

// ChangePassword recomputes the digest after verifying the current
// password. The session token is left as is.
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	if violations := s.validator.ValidatePassword(input.NewPassword); len(violations) > 0 {
		recordPasswordChange(resultInvalid)
		return &ValidationError{Violations: violations}
	}

	for attempt := 1; attempt <= constants.MaxStaleUpdateRetry; attempt++ {
		account, err := s.repo.FindByID(ctx, input.AccountID)
		if err != nil {
			recordPasswordChange(resultError)
			return lookupError(err, ErrAccountNotFound)
		}

		if len(input.CurrentPassword) > constants.PasswordMaxBytes {
			s.burnCompare(ctx, input.CurrentPassword)
			recordPasswordChange(resultInvalid)
			return ErrInvalidCredentials
		}

		if err := s.hasher.Compare(ctx, account.PasswordDigest, input.CurrentPassword); err != nil {
			if errors.Is(err, commoncrypto.ErrMismatchedPassword) {
				s.log.WithFields(ctx, logger.Fields{
					"user_id": string(account.ID),
					"action":  "change_password_invalid_current",
				}).Warn("change password failed: current password mismatch")
				recordPasswordChange(resultInvalid)
				return ErrInvalidCredentials
			}
			recordPasswordChange(resultError)
			return ErrHashing.WithCause(err)
		}

		digest, err := s.hasher.Hash(ctx, input.NewPassword)
		if err != nil {
			recordPasswordChange(resultError)
			return ErrHashing.WithCause(err)
		}
		account.PasswordDigest = digest

		_, err = s.repo.Update(ctx, account)
		switch {
		case err == nil:
			s.log.WithFields(ctx, logger.Fields{
				"user_id": string(account.ID),
				"action":  "change_password_success",
			}).Info("password changed")
			recordPasswordChange(resultSuccess)
			return nil
		case errors.Is(err, accountrepo.ErrStaleAccount):
			s.log.WithFields(ctx, logger.Fields{
				"user_id": string(account.ID),
				"attempt": attempt,
				"action":  "change_password_stale",
			}).Warn("change password: account changed concurrently, retrying")
		case errors.Is(err, accountrepo.ErrAccountNotFound):
			recordPasswordChange(resultInvalid)
			return ErrAccountNotFound
		default:
			recordPasswordChange(resultError)
			return storageError(err)
		}
	}

	recordPasswordChange(resultConflict)
	return ErrConcurrentModification
}

// ResolveSession returns the account currently holding token.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (domain.Account, error) {
	if token == "" {
		return domain.Account{}, ErrInvalidSession
	}

	account, err := s.repo.FindBySessionToken(ctx, token)
	if err != nil {
		if !errors.Is(err, accountrepo.ErrAccountNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"action": "resolve_session_failed",
			}).Errorf("resolve session failed: %v", err)
		}
		return domain.Account{}, lookupError(err, ErrInvalidSession)
	}
	return account, nil
}

// burnCompare spends roughly one verification worth of time so a missing
// username costs the same as a wrong password.
func (s *AuthService) burnCompare(ctx context.Context, password string) {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(context.WithoutCancel(ctx), dummyPassword)
		if err != nil {
			s.log.Warnf("dummy digest unavailable: %v", err)
			return
		}
		s.dummyDigest = digest
	})
	if s.dummyDigest == "" {
		return
	}
	_ = s.hasher.Compare(ctx, s.dummyDigest, password)
}
