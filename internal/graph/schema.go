// Package graph exposes the user service over GraphQL.
package graph

import (
	"context"
	_ "embed"
	"net/http"

	"github.com/Varun5711/bookshelf/internal/models"
	usermodel "github.com/Varun5711/bookshelf/internal/models/user"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/sirupsen/logrus"
)

//go:embed schema.graphql
var schemaSDL string

const maxQueryDepth = 8

type UserService interface {
	Register(ctx context.Context, req *usermodel.CreateUserRequest) (*usermodel.AuthResponse, error)
	Login(ctx context.Context, req *usermodel.LoginRequest) (*usermodel.AuthResponse, error)
	Me(ctx context.Context) (*usermodel.User, error)
	SaveBook(ctx context.Context, book models.Book) (*usermodel.User, error)
	RemoveBook(ctx context.Context, bookID string) (*usermodel.User, error)
	ChangePassword(ctx context.Context, currentPassword, newPassword string) (*usermodel.User, error)
	SearchBooks(ctx context.Context, query string) ([]models.Book, error)
}

func NewSchema(users UserService, log *logrus.Entry) *graphql.Schema {
	return graphql.MustParseSchema(
		schemaSDL,
		&Resolver{users: users, log: log},
		graphql.MaxDepth(maxQueryDepth),
		graphql.Logger(panicLogger{log: log}),
	)
}

func NewHandler(schema *graphql.Schema) http.Handler {
	return &relay.Handler{Schema: schema}
}

type panicLogger struct {
	log *logrus.Entry
}

func (l panicLogger) LogPanic(ctx context.Context, value interface{}) {
	l.log.WithField("panic", value).Error("GraphQL resolver panicked")
}
