package tools

import (
	"regexp"
	"strings"
)

const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// ValidateEmail ignora caixa e espaços nas pontas.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(strings.ToLower(strings.TrimSpace(email)))
}

// CheckPassword devolve "password" quando a senha é curta demais, "" quando ok.
func CheckPassword(password string) string {
	if len([]rune(password)) < MinPasswordLength {
		return "password"
	}
	return ""
}
