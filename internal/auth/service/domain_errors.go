package service

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/sessionauth/internal/common/errors"
)

var (
	ErrValidation = commonerrors.NewDomainError(
		"VALIDATION_FAILED",
		commonerrors.CategoryValidation,
		http.StatusUnprocessableEntity,
		"validation failed",
	)

	ErrInvalidCredentials = commonerrors.NewDomainError(
		"INVALID_CREDENTIALS",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid username or password",
	)

	ErrInvalidSession = commonerrors.NewDomainError(
		"INVALID_SESSION",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid or expired session",
	)

	ErrAccountNotFound = commonerrors.NewDomainError(
		"ACCOUNT_NOT_FOUND",
		commonerrors.CategoryNotFound,
		http.StatusNotFound,
		"account not found",
	)

	ErrConcurrentModification = commonerrors.NewDomainError(
		"CONCURRENT_MODIFICATION",
		commonerrors.CategoryConflict,
		http.StatusConflict,
		"account was modified concurrently, try again",
	)

	ErrStorage = commonerrors.NewDomainError(
		"STORAGE_ERROR",
		commonerrors.CategoryInternal,
		http.StatusInternalServerError,
		"storage operation failed",
	)

	ErrHashing = commonerrors.NewDomainError(
		"PASSWORD_HASH_FAILED",
		commonerrors.CategoryInternal,
		http.StatusInternalServerError,
		"failed to process password",
	)

	ErrTokenGeneration = commonerrors.NewDomainError(
		"TOKEN_GENERATION_FAILED",
		commonerrors.CategoryInternal,
		http.StatusInternalServerError,
		"failed to generate session token",
	)
)
