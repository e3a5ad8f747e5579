package service

import (
	"errors"

	accountrepo "github.com/AlibekovAA/sessionauth/internal/account/repository"
)

func storageError(err error) error {
	return ErrStorage.WithCause(err)
}

func lookupError(err error, notFound error) error {
	if errors.Is(err, accountrepo.ErrAccountNotFound) {
		return notFound
	}
	return storageError(err)
}

func sessionTokenTaken() Violation {
	return Violation{Field: "session_token", Rule: RuleTaken, Message: "Session token has already been taken"}
}
