package domain

import "time"

const MaxUsernameLength = 80

// Account is a registered identity owning a private list of tasks.
type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	AccountID int64  `json:"account_id"`
	Username  string `json:"username"`
}

func (i Identity) IsZero() bool {
	return i.AccountID == 0
}
