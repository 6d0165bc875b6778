package mpesa

import (
	"errors"
	"strings"
)

var ErrInvalidPhone = errors.New("phone number must be a Kenyan mobile number")

// NormalizePhone accepts 07XXXXXXXX, 7XXXXXXXX, +2547XXXXXXXX and the 01
// prefix range, and returns the 2547XXXXXXXX form Daraja requires.
func NormalizePhone(raw string) (string, error) {
	s := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "+")

	switch {
	case len(s) == 10 && s[0] == '0':
		s = "254" + s[1:]
	case len(s) == 9 && (s[0] == '7' || s[0] == '1'):
		s = "254" + s
	}

	if len(s) != 12 || !strings.HasPrefix(s, "254") || (s[3] != '7' && s[3] != '1') {
		return "", ErrInvalidPhone
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", ErrInvalidPhone
		}
	}
	return s, nil
}
