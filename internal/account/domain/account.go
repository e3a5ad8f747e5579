package domain

import "time"

type ID string

// Account is a stored user record. It has no plaintext password field; the
// password only ever exists as PasswordDigest.
type Account struct {
	ID             ID
	Username       string
	PasswordDigest string
	SessionToken   string
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Summary struct {
	ID        ID        `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func (a Account) Summary() Summary {
	return Summary{
		ID:        a.ID,
		Username:  a.Username,
		CreatedAt: a.CreatedAt,
	}
}
