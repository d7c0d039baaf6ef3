package storage

import (
	"context"
	"sync"
	"time"

	"github.com/Varun5711/bookshelf/internal/apperr"
	"github.com/Varun5711/bookshelf/internal/models"
	usermodel "github.com/Varun5711/bookshelf/internal/models/user"
	"github.com/google/uuid"
)

// MemoryUserStorage keeps users in process. Every method runs under one lock, which gives
// the same all-or-nothing and uniqueness guarantees as the Postgres constraints.
type MemoryUserStorage struct {
	mu         sync.RWMutex
	users      map[string]*usermodel.User
	byEmail    map[string]string
	byUsername map[string]string
	writes     int
}

func NewMemoryUserStorage() *MemoryUserStorage {
	return &MemoryUserStorage{
		users:      make(map[string]*usermodel.User),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

func (s *MemoryUserStorage) CreateUser(ctx context.Context, req *usermodel.CreateUserRequest, passwordHash string) (*usermodel.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[req.Username]; exists {
		return nil, &apperr.ConflictError{Field: "username"}
	}
	if _, exists := s.byEmail[req.Email]; exists {
		return nil, &apperr.ConflictError{Field: "email"}
	}

	now := time.Now()
	user := &usermodel.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		SavedBooks:   []models.Book{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID
	s.byUsername[user.Username] = user.ID
	s.writes++

	return user.Clone(), nil
}

func (s *MemoryUserStorage) GetUserByEmail(ctx context.Context, email string) (*usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byEmail[email]
	if !exists {
		return nil, nil
	}
	return s.users[id].Clone(), nil
}

func (s *MemoryUserStorage) GetUserByID(ctx context.Context, userID string) (*usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[userID]
	if !exists {
		return nil, nil
	}
	return user.Clone(), nil
}

func (s *MemoryUserStorage) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[userID]
	if !exists {
		return &apperr.NotFoundError{Resource: "user", ID: userID}
	}

	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()
	s.writes++
	return nil
}

func (s *MemoryUserStorage) AddBook(ctx context.Context, userID string, book models.Book) (*usermodel.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[userID]
	if !exists {
		return nil, &apperr.NotFoundError{Resource: "user", ID: userID}
	}

	if !user.HasBook(book.BookID) {
		user.SavedBooks = append(user.SavedBooks, book.Clone())
		user.UpdatedAt = time.Now()
		s.writes++
	}

	return user.Clone(), nil
}

func (s *MemoryUserStorage) RemoveBook(ctx context.Context, userID, bookID string) (*usermodel.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[userID]
	if !exists {
		return nil, &apperr.NotFoundError{Resource: "user", ID: userID}
	}

	idx := -1
	for i, b := range user.SavedBooks {
		if b.BookID == bookID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, &apperr.NotFoundError{Resource: "book", ID: bookID}
	}

	books := make([]models.Book, 0, len(user.SavedBooks)-1)
	books = append(books, user.SavedBooks[:idx]...)
	books = append(books, user.SavedBooks[idx+1:]...)
	user.SavedBooks = books
	user.UpdatedAt = time.Now()
	s.writes++

	return user.Clone(), nil
}

func (s *MemoryUserStorage) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// Writes returns how many mutations have been applied.
func (s *MemoryUserStorage) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
