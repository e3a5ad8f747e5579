package crypto

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/AlibekovAA/sessionauth/internal/common/constants"
)

// GenerateSessionToken returns SessionTokenBytes of crypto/rand entropy as
// unpadded base64url.
func GenerateSessionToken() (string, error) {
	b := make([]byte, constants.SessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

type TokenGenerator func() (string, error)
