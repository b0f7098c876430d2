// Package auth holds the storefront's credential format checks.
//
// There is no credential store: any well-formed login succeeds and passwords
// are never persisted. Replace this package wholesale if real authentication
// is ever needed.
package auth

import (
	"strings"
	"unicode/utf8"

	"github.com/fjod/techhub/internal/domain"
)

const (
	MinLoginPasswordLength    = 3
	MinRegisterPasswordLength = 6
	MinNameLength             = 2
)

func ValidateLogin(email, password string) error {
	var v domain.ValidationError
	if !validEmail(email) {
		v.Add("email")
	}
	if utf8.RuneCountInString(password) < MinLoginPasswordLength {
		v.Add("password")
	}
	return v.Err()
}

func ValidateRegistration(name, email, password string) error {
	var v domain.ValidationError
	if utf8.RuneCountInString(name) < MinNameLength {
		v.Add("name")
	}
	if !validEmail(email) {
		v.Add("email")
	}
	if utf8.RuneCountInString(password) < MinRegisterPasswordLength {
		v.Add("password")
	}
	return v.Err()
}

// NameFromEmail is the display name used for plain logins.
func NameFromEmail(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}

func validEmail(email string) bool {
	return strings.Contains(email, "@")
}
