package validation

import (
	"regexp"
	"strings"

	"github.com/Varun5711/bookshelf/internal/apperr"
)

const (
	MaxUsernameLength = 50
	// bcrypt ignores everything past 72 bytes, so longer passwords are rejected outright.
	MaxPasswordLength = 72
	MaxBookIDLength   = 128
	MaxEmailLength    = 255
)

var emailRegex = regexp.MustCompile(`.+@.+\..+`)

var reservedUsernames = map[string]bool{
	"admin":   true,
	"root":    true,
	"system":  true,
	"api":     true,
	"graphql": true,
	"me":      true,
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return &apperr.ValidationError{Field: "username", Message: "is required"}
	}
	if len(username) > MaxUsernameLength {
		return &apperr.ValidationError{Field: "username", Message: "must be at most 50 characters"}
	}
	if strings.ContainsAny(username, " \t\r\n") {
		return &apperr.ValidationError{Field: "username", Message: "must not contain whitespace"}
	}
	if reservedUsernames[strings.ToLower(username)] {
		return &apperr.ValidationError{Field: "username", Message: "is reserved"}
	}
	return nil
}

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &apperr.ValidationError{Field: "email", Message: "is required"}
	}
	if len(email) > MaxEmailLength {
		return &apperr.ValidationError{Field: "email", Message: "must be at most 255 characters"}
	}
	if !emailRegex.MatchString(email) {
		return &apperr.ValidationError{Field: "email", Message: "must use a valid email address"}
	}
	return nil
}

func ValidatePassword(password string) error {
	if password == "" {
		return &apperr.ValidationError{Field: "password", Message: "is required"}
	}
	if len(password) > MaxPasswordLength {
		return &apperr.ValidationError{Field: "password", Message: "must be at most 72 bytes"}
	}
	return nil
}

// ValidateRegistration checks all three registration fields and returns the first failure.
func ValidateRegistration(username, email, password string) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return ValidatePassword(password)
}

func ValidateBookID(bookID string) error {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return &apperr.ValidationError{Field: "bookId", Message: "is required"}
	}
	if len(bookID) > MaxBookIDLength {
		return &apperr.ValidationError{Field: "bookId", Message: "is too long"}
	}
	return nil
}

func ValidateBook(bookID, title string) error {
	if err := ValidateBookID(bookID); err != nil {
		return err
	}
	if strings.TrimSpace(title) == "" {
		return &apperr.ValidationError{Field: "title", Message: "is required"}
	}
	return nil
}
