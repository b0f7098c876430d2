package domain

import "time"

// TimestampFormat renders session timestamps as ISO-8601 UTC with milliseconds.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

type Session struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	LoggedInAt string `json:"logged_in_at"`
}

func NewSession(email, name string, now time.Time) Session {
	return Session{
		Email:      email,
		Name:       name,
		LoggedInAt: now.UTC().Format(TimestampFormat),
	}
}

// DisplayName falls back to the email when no name was given.
func (s Session) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Email
}
