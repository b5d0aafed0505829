package tools

import "regexp"

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// CheckPassword returns the name of the offending field ("password") when the
// plaintext does not satisfy the minimum length policy, empty string otherwise.
// A non-positive minLen falls back to the default policy of 8 characters.
func CheckPassword(password string, minLen int) string {
	if minLen <= 0 {
		minLen = 8
	}
	if len(password) < minLen {
		return "password"
	}
	return ""
}
