package checkout

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fjod/techhub/internal/domain"
)

var expiryPattern = regexp.MustCompile(`^\d{2}/\d{2}$`)

// Form is the checkout submission. Card fields are only shape-checked and
// never leave this package.
type Form struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Zip        string `json:"zip"`
	CardNumber string `json:"card_number"`
	CardExpiry string `json:"card_expiry"`
	CardCVC    string `json:"card_cvc"`
}

func (f Form) Validate() error {
	var v domain.ValidationError
	if utf8.RuneCountInString(f.Name) < 2 {
		v.Add("name")
	}
	if !strings.Contains(f.Email, "@") {
		v.Add("email")
	}
	if utf8.RuneCountInString(f.Address) < 5 {
		v.Add("address")
	}
	if utf8.RuneCountInString(f.City) < 2 {
		v.Add("city")
	}
	if utf8.RuneCountInString(f.Zip) < 4 {
		v.Add("zip")
	}
	if utf8.RuneCountInString(strings.Join(strings.Fields(f.CardNumber), "")) < 13 {
		v.Add("card_number")
	}
	if !expiryPattern.MatchString(f.CardExpiry) {
		v.Add("card_expiry")
	}
	if utf8.RuneCountInString(f.CardCVC) < 3 {
		v.Add("card_cvc")
	}
	return v.Err()
}
