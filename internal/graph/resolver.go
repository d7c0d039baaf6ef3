package graph

import (
	"context"
	"errors"

	"github.com/Varun5711/bookshelf/internal/apperr"
	"github.com/Varun5711/bookshelf/internal/middleware"
	"github.com/Varun5711/bookshelf/internal/models"
	usermodel "github.com/Varun5711/bookshelf/internal/models/user"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/sirupsen/logrus"
)

type Resolver struct {
	users UserService
	log   *logrus.Entry
}

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	user, err := r.users.Me(ctx)
	if err != nil {
		return nil, r.publicError(ctx, err)
	}
	return &userResolver{u: user}, nil
}

func (r *Resolver) SearchBooks(ctx context.Context, args struct{ Query string }) ([]*bookResolver, error) {
	results, err := r.users.SearchBooks(ctx, args.Query)
	if err != nil {
		return nil, r.publicError(ctx, err)
	}
	return bookResolvers(results), nil
}

func (r *Resolver) Login(ctx context.Context, args struct {
	Email    string
	Password string
}) (*authResolver, error) {
	resp, err := r.users.Login(ctx, &usermodel.LoginRequest{Email: args.Email, Password: args.Password})
	if err != nil {
		return nil, r.publicError(ctx, err)
	}
	return &authResolver{resp: resp}, nil
}

func (r *Resolver) AddUser(ctx context.Context, args struct {
	Username string
	Email    string
	Password string
}) (*authResolver, error) {
	resp, err := r.users.Register(ctx, &usermodel.CreateUserRequest{
		Username: args.Username,
		Email:    args.Email,
		Password: args.Password,
	})
	if err != nil {
		return nil, r.publicError(ctx, err)
	}
	return &authResolver{resp: resp}, nil
}

type bookInput struct {
	BookID      string
	Title       string
	Authors     *[]string
	Description *string
	Image       *string
	Link        *string
}

func (in bookInput) toBook() models.Book {
	b := models.Book{
		BookID:  in.BookID,
		Title:   in.Title,
		Authors: []string{},
	}
	if in.Authors != nil {
		b.Authors = append(b.Authors, *in.Authors...)
	}
	if in.Description != nil {
		b.Description = *in.Description
	}
	if in.Image != nil {
		b.Image = *in.Image
	}
	if in.Link != nil {
		b.Link = *in.Link
	}
	return b
}

func (r *Resolver) SaveBook(ctx context.Context, args struct{ Input bookInput }) (*userResolver, error) {
	user, err := r.users.SaveBook(ctx, args.Input.toBook())
	if err != nil {
		return nil, r.publicError(ctx, err)
	}
	return &userResolver{u: user}, nil
}

func (r *Resolver) RemoveBook(ctx context.Context, args struct{ BookID string }) (*userResolver, error) {
	user, err := r.users.RemoveBook(ctx, args.BookID)
	if err != nil {
		return nil, r.publicError(ctx, err)
	}
	return &userResolver{u: user}, nil
}

func (r *Resolver) ChangePassword(ctx context.Context, args struct {
	CurrentPassword string
	NewPassword     string
}) (*userResolver, error) {
	user, err := r.users.ChangePassword(ctx, args.CurrentPassword, args.NewPassword)
	if err != nil {
		return nil, r.publicError(ctx, err)
	}
	return &userResolver{u: user}, nil
}

type authResolver struct {
	resp *usermodel.AuthResponse
}

func (a *authResolver) Token() graphql.ID {
	return graphql.ID(a.resp.Token)
}

func (a *authResolver) User() *userResolver {
	return &userResolver{u: a.resp.User}
}

type userResolver struct {
	u *usermodel.User
}

func (u *userResolver) ID() graphql.ID {
	return graphql.ID(u.u.ID)
}

func (u *userResolver) Username() string {
	return u.u.Username
}

func (u *userResolver) Email() string {
	return u.u.Email
}

func (u *userResolver) BookCount() int32 {
	return int32(u.u.BookCount())
}

func (u *userResolver) SavedBooks() []*bookResolver {
	return bookResolvers(u.u.SavedBooks)
}

type bookResolver struct {
	b models.Book
}

func bookResolvers(books []models.Book) []*bookResolver {
	out := make([]*bookResolver, len(books))
	for i := range books {
		out[i] = &bookResolver{b: books[i]}
	}
	return out
}

func (b *bookResolver) BookID() string {
	return b.b.BookID
}

func (b *bookResolver) Title() string {
	return b.b.Title
}

func (b *bookResolver) Authors() []string {
	if b.b.Authors == nil {
		return []string{}
	}
	return b.b.Authors
}

func (b *bookResolver) Description() string {
	return b.b.Description
}

func (b *bookResolver) Image() *string {
	return optional(b.b.Image)
}

func (b *bookResolver) Link() *string {
	return optional(b.b.Link)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// internalError hides the cause of unexpected failures from clients.
type internalError struct{}

func (internalError) Error() string { return "internal server error" }

func (internalError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": apperr.CodeInternal}
}

type extensioner interface {
	error
	Extensions() map[string]interface{}
}

// publicError returns the typed error carrying the extension code, or a generic internal
// error for anything unexpected.
func (r *Resolver) publicError(ctx context.Context, err error) error {
	var ext extensioner
	if apperr.Code(err) != apperr.CodeInternal && errors.As(err, &ext) {
		return ext
	}
	r.log.WithError(err).WithField("request_id", middleware.GetRequestID(ctx)).Error("Resolver failed")
	return internalError{}
}
