package user

import (
	"time"

	"github.com/Varun5711/bookshelf/internal/models"
)

type User struct {
	ID           string        `json:"id"`
	Username     string        `json:"username"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	SavedBooks   []models.Book `json:"savedBooks"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// BookCount is derived from SavedBooks and never stored.
func (u *User) BookCount() int {
	return len(u.SavedBooks)
}

func (u *User) HasBook(bookID string) bool {
	for _, b := range u.SavedBooks {
		if b.BookID == bookID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can't mutate stored state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.SavedBooks = make([]models.Book, len(u.SavedBooks))
	for i, b := range u.SavedBooks {
		c.SavedBooks[i] = b.Clone()
	}
	return &c
}

type CreateUserRequest struct {
	Username string
	Email    string
	Password string
}

type LoginRequest struct {
	Email    string
	Password string
}

type AuthResponse struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}
