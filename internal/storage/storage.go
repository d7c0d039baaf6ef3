package storage

import (
	"context"

	"github.com/Varun5711/bookshelf/internal/models"
	usermodel "github.com/Varun5711/bookshelf/internal/models/user"
)

// UserStorage persists users and their saved books. Lookups return (nil, nil) when the user
// does not exist. Username and email uniqueness is enforced here, atomically, and reported as
// *apperr.ConflictError.
type UserStorage interface {
	CreateUser(ctx context.Context, req *usermodel.CreateUserRequest, passwordHash string) (*usermodel.User, error)
	GetUserByEmail(ctx context.Context, email string) (*usermodel.User, error)
	GetUserByID(ctx context.Context, userID string) (*usermodel.User, error)
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
	// AddBook appends book to the user's list; saving a bookId that is already present is a no-op.
	AddBook(ctx context.Context, userID string, book models.Book) (*usermodel.User, error)
	// RemoveBook fails with *apperr.NotFoundError when bookID is not in the list.
	RemoveBook(ctx context.Context, userID, bookID string) (*usermodel.User, error)
	CountUsers(ctx context.Context) (int, error)
}
