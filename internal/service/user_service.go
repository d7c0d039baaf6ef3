package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Varun5711/bookshelf/internal/apperr"
	"github.com/Varun5711/bookshelf/internal/auth"
	"github.com/Varun5711/bookshelf/internal/books"
	"github.com/Varun5711/bookshelf/internal/metrics"
	"github.com/Varun5711/bookshelf/internal/models"
	usermodel "github.com/Varun5711/bookshelf/internal/models/user"
	"github.com/Varun5711/bookshelf/internal/storage"
	"github.com/Varun5711/bookshelf/internal/validation"
	"github.com/sirupsen/logrus"
)

type UserService struct {
	users       storage.UserStorage
	credentials *CredentialStore
	jwtManager  *auth.JWTManager
	searcher    books.Searcher
	metrics     *metrics.Metrics
	log         *logrus.Entry
}

type Option func(*UserService)

func WithSearcher(s books.Searcher) Option {
	return func(svc *UserService) { svc.searcher = s }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(svc *UserService) { svc.metrics = m }
}

func WithLogger(log *logrus.Entry) Option {
	return func(svc *UserService) { svc.log = log }
}

func NewUserService(users storage.UserStorage, credentials *CredentialStore, jwtManager *auth.JWTManager, opts ...Option) *UserService {
	svc := &UserService{
		users:       users,
		credentials: credentials,
		jwtManager:  jwtManager,
		log:         logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *UserService) Register(ctx context.Context, req *usermodel.CreateUserRequest) (*usermodel.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := validation.NormalizeEmail(req.Email)

	if err := validation.ValidateRegistration(username, email, req.Password); err != nil {
		s.metrics.RecordAuth("register", "invalid")
		return nil, err
	}

	user, err := s.credentials.CreateUser(ctx, username, email, req.Password)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			s.metrics.RecordAuth("register", "conflict")
			return nil, err
		}
		s.metrics.RecordAuth("register", "error")
		s.log.WithError(err).Error("Failed to create user")
		return nil, err
	}

	s.metrics.RecordAuth("register", "success")
	s.refreshUserCount(ctx)
	s.log.WithField("user_id", user.ID).Info("User registered")

	return s.issue(user)
}

func (s *UserService) Login(ctx context.Context, req *usermodel.LoginRequest) (*usermodel.AuthResponse, error) {
	email := validation.NormalizeEmail(req.Email)
	if email == "" {
		return nil, &apperr.ValidationError{Field: "email", Message: "is required"}
	}
	if req.Password == "" {
		return nil, &apperr.ValidationError{Field: "password", Message: "is required"}
	}

	user, err := s.credentials.FindByEmail(ctx, email)
	if err != nil {
		s.metrics.RecordAuth("login", "error")
		s.log.WithError(err).Error("Failed to look up user")
		return nil, err
	}

	if !s.credentials.VerifyPassword(user, req.Password) {
		s.metrics.RecordAuth("login", "invalid_credentials")
		s.log.Info("Login rejected")
		return nil, apperr.InvalidCredentials()
	}

	s.metrics.RecordAuth("login", "success")
	s.log.WithField("user_id", user.ID).Info("User logged in")

	return s.issue(user)
}

// Me returns the caller's own user record.
func (s *UserService) Me(ctx context.Context) (*usermodel.User, error) {
	identity, err := auth.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	return s.currentUser(ctx, identity)
}

func (s *UserService) SaveBook(ctx context.Context, book models.Book) (*usermodel.User, error) {
	identity, err := auth.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	book.BookID = strings.TrimSpace(book.BookID)
	if err := validation.ValidateBook(book.BookID, book.Title); err != nil {
		s.metrics.RecordBookOp("save", "invalid")
		return nil, err
	}

	user, err := s.users.AddBook(ctx, identity.ID, book)
	if err != nil {
		s.metrics.RecordBookOp("save", "error")
		return nil, s.translateMissingUser(err)
	}

	s.metrics.RecordBookOp("save", "success")
	s.log.WithFields(logrus.Fields{"user_id": identity.ID, "book_id": book.BookID}).Debug("Book saved")
	return user, nil
}

func (s *UserService) RemoveBook(ctx context.Context, bookID string) (*usermodel.User, error) {
	identity, err := auth.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	bookID = strings.TrimSpace(bookID)
	if err := validation.ValidateBookID(bookID); err != nil {
		s.metrics.RecordBookOp("remove", "invalid")
		return nil, err
	}

	user, err := s.users.RemoveBook(ctx, identity.ID, bookID)
	if err != nil {
		var nf *apperr.NotFoundError
		if errors.As(err, &nf) && nf.Resource == "book" {
			s.metrics.RecordBookOp("remove", "not_found")
			return nil, err
		}
		s.metrics.RecordBookOp("remove", "error")
		return nil, s.translateMissingUser(err)
	}

	s.metrics.RecordBookOp("remove", "success")
	s.log.WithFields(logrus.Fields{"user_id": identity.ID, "book_id": bookID}).Debug("Book removed")
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, currentPassword, newPassword string) (*usermodel.User, error) {
	identity, err := auth.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		return nil, err
	}

	user, err := s.currentUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	if !s.credentials.VerifyPassword(user, currentPassword) {
		s.metrics.RecordAuth("change_password", "invalid_credentials")
		return nil, apperr.InvalidCredentials()
	}

	if err := s.credentials.ChangePassword(ctx, user, newPassword); err != nil {
		s.metrics.RecordAuth("change_password", "error")
		return nil, s.translateMissingUser(err)
	}

	s.metrics.RecordAuth("change_password", "success")
	s.log.WithField("user_id", user.ID).Info("Password changed")
	return user, nil
}

// SearchBooks is public; anonymous callers may search.
func (s *UserService) SearchBooks(ctx context.Context, query string) ([]models.Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &apperr.ValidationError{Field: "query", Message: "is required"}
	}
	if s.searcher == nil {
		return []models.Book{}, nil
	}

	results, err := s.searcher.Search(ctx, query)
	if err != nil {
		s.log.WithError(err).WithField("query", query).Warn("Book search failed")
		return nil, err
	}
	return results, nil
}

func (s *UserService) issue(user *usermodel.User) (*usermodel.AuthResponse, error) {
	token, expiresAt, err := s.jwtManager.GenerateToken(auth.Identity{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
	if err != nil {
		s.log.WithError(err).Error("Failed to generate token")
		return nil, err
	}

	return &usermodel.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// currentUser loads the identity's record. A valid token for an account that no longer
// exists is treated as unauthenticated.
func (s *UserService) currentUser(ctx context.Context, identity auth.Identity) (*usermodel.User, error) {
	user, err := s.credentials.FindByID(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotAuthenticated()
	}
	return user, nil
}

func (s *UserService) translateMissingUser(err error) error {
	var nf *apperr.NotFoundError
	if errors.As(err, &nf) && nf.Resource == "user" {
		return apperr.NotAuthenticated()
	}
	return err
}

func (s *UserService) refreshUserCount(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	if n, err := s.users.CountUsers(ctx); err == nil {
		s.metrics.SetUsers(n)
	}
}
