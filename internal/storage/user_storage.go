package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Varun5711/bookshelf/internal/apperr"
	"github.com/Varun5711/bookshelf/internal/database"
	"github.com/Varun5711/bookshelf/internal/models"
	usermodel "github.com/Varun5711/bookshelf/internal/models/user"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var constraintFields = map[string]string{
	"users_username_key": "username",
	"users_email_key":    "email",
}

type PostgresUserStorage struct {
	db *database.DBManager
}

func NewUserStorage(db *database.DBManager) *PostgresUserStorage {
	return &PostgresUserStorage{db: db}
}

func (s *PostgresUserStorage) CreateUser(ctx context.Context, req *usermodel.CreateUserRequest, passwordHash string) (*usermodel.User, error) {
	userID := uuid.New().String()
	now := time.Now()

	query := `
		INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, username, email, password_hash, created_at, updated_at
	`

	var user usermodel.User
	err := s.db.Write().QueryRow(ctx, query,
		userID,
		req.Username,
		req.Email,
		passwordHash,
		now,
		now,
	).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if conflict := conflictFromPgError(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.SavedBooks = []models.Book{}
	return &user, nil
}

func (s *PostgresUserStorage) GetUserByEmail(ctx context.Context, email string) (*usermodel.User, error) {
	return s.getUser(ctx, s.db.Read(), "email", email)
}

func (s *PostgresUserStorage) GetUserByID(ctx context.Context, userID string) (*usermodel.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, nil
	}
	return s.getUser(ctx, s.db.Read(), "id", userID)
}

func (s *PostgresUserStorage) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, updated_at = NOW()
		WHERE id = $2
	`

	tag, err := s.db.Write().Exec(ctx, query, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &apperr.NotFoundError{Resource: "user", ID: userID}
	}
	return nil
}

func (s *PostgresUserStorage) AddBook(ctx context.Context, userID string, book models.Book) (*usermodel.User, error) {
	authors := book.Authors
	if authors == nil {
		authors = []string{}
	}

	query := `
		INSERT INTO saved_books (user_id, book_id, title, authors, description, image, link)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, book_id) DO NOTHING
	`

	_, err := s.db.Write().Exec(ctx, query,
		userID,
		book.BookID,
		book.Title,
		authors,
		book.Description,
		book.Image,
		book.Link,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, &apperr.NotFoundError{Resource: "user", ID: userID}
		}
		return nil, fmt.Errorf("failed to save book: %w", err)
	}

	return s.mustGetUser(ctx, userID)
}

func (s *PostgresUserStorage) RemoveBook(ctx context.Context, userID, bookID string) (*usermodel.User, error) {
	query := `
		DELETE FROM saved_books
		WHERE user_id = $1 AND book_id = $2
	`

	tag, err := s.db.Write().Exec(ctx, query, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, &apperr.NotFoundError{Resource: "book", ID: bookID}
	}

	return s.mustGetUser(ctx, userID)
}

func (s *PostgresUserStorage) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.Read().QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// mustGetUser reads from the primary so a mutation is visible in its own response.
func (s *PostgresUserStorage) mustGetUser(ctx context.Context, userID string) (*usermodel.User, error) {
	user, err := s.getUser(ctx, s.db.Write(), "id", userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &apperr.NotFoundError{Resource: "user", ID: userID}
	}
	return user, nil
}

func (s *PostgresUserStorage) getUser(ctx context.Context, pool *pgxpool.Pool, column, value string) (*usermodel.User, error) {
	query := fmt.Sprintf(`
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM users
		WHERE %s = $1
	`, column)

	var user usermodel.User
	err := pool.QueryRow(ctx, query, value).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	books, err := s.listBooks(ctx, pool, user.ID)
	if err != nil {
		return nil, err
	}
	user.SavedBooks = books

	return &user, nil
}

func (s *PostgresUserStorage) listBooks(ctx context.Context, pool *pgxpool.Pool, userID string) ([]models.Book, error) {
	query := `
		SELECT book_id, title, authors, description, image, link
		FROM saved_books
		WHERE user_id = $1
		ORDER BY position
	`

	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved books: %w", err)
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.BookID, &b.Title, &b.Authors, &b.Description, &b.Image, &b.Link); err != nil {
			return nil, fmt.Errorf("failed to scan saved book: %w", err)
		}
		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved books: %w", err)
	}

	return books, nil
}

func conflictFromPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return nil
	}
	field, ok := constraintFields[pgErr.ConstraintName]
	if !ok {
		field = "user"
	}
	return &apperr.ConflictError{Field: field}
}
