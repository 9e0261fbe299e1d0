package domain

import "time"

// Session is the server-side record behind a signed session cookie.
type Session struct {
	ID        string    `json:"id"`
	AccountID int64     `json:"account_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

func (s *Session) Identity() Identity {
	if s == nil {
		return Identity{}
	}
	return Identity{AccountID: s.AccountID, Username: s.Username}
}
