package service

import (
	"context"
	"fmt"

	"github.com/Varun5711/bookshelf/internal/auth"
	usermodel "github.com/Varun5711/bookshelf/internal/models/user"
	"github.com/Varun5711/bookshelf/internal/storage"
)

// CredentialStore owns password hashing on top of user storage. Plaintext passwords enter here
// and only hashes leave.
type CredentialStore struct {
	users  storage.UserStorage
	hasher *auth.Hasher

	// dummyHash is compared against when a login names an unknown email, so both paths pay
	// for one bcrypt comparison.
	dummyHash string
}

func NewCredentialStore(users storage.UserStorage, hasher *auth.Hasher) (*CredentialStore, error) {
	dummy, err := hasher.Hash("bookshelf-dummy-password")
	if err != nil {
		return nil, err
	}
	return &CredentialStore{users: users, hasher: hasher, dummyHash: dummy}, nil
}

func (c *CredentialStore) CreateUser(ctx context.Context, username, email, password string) (*usermodel.User, error) {
	passwordHash, err := c.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	return c.users.CreateUser(ctx, &usermodel.CreateUserRequest{
		Username: username,
		Email:    email,
	}, passwordHash)
}

func (c *CredentialStore) VerifyPassword(user *usermodel.User, password string) bool {
	if user == nil {
		c.hasher.Check(c.dummyHash, password)
		return false
	}
	return c.hasher.Check(user.PasswordHash, password)
}

func (c *CredentialStore) FindByEmail(ctx context.Context, email string) (*usermodel.User, error) {
	return c.users.GetUserByEmail(ctx, email)
}

func (c *CredentialStore) FindByID(ctx context.Context, userID string) (*usermodel.User, error) {
	return c.users.GetUserByID(ctx, userID)
}

// ChangePassword always re-hashes. Nothing else in the service writes the hash.
func (c *CredentialStore) ChangePassword(ctx context.Context, user *usermodel.User, password string) error {
	passwordHash, err := c.hasher.Hash(password)
	if err != nil {
		return err
	}
	if err := c.users.UpdatePasswordHash(ctx, user.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	user.PasswordHash = passwordHash
	return nil
}
