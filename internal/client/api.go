package client

import (
	"context"

	"github.com/Varun5711/bookshelf/internal/models"
)

// Me is the client's view of the signed-in user, shaped like the `me` query.
type Me struct {
	ID         string        `json:"_id"`
	Username   string        `json:"username"`
	Email      string        `json:"email"`
	BookCount  int           `json:"bookCount"`
	SavedBooks []models.Book `json:"savedBooks"`
}

func (m Me) Clone() Me {
	c := m
	c.SavedBooks = make([]models.Book, len(m.SavedBooks))
	for i, b := range m.SavedBooks {
		c.SavedBooks[i] = b.Clone()
	}
	return c
}

type AuthResult struct {
	Token string `json:"token"`
	User  Me     `json:"user"`
}

const userFields = `_id username email bookCount savedBooks { bookId title authors description image link }`

const (
	loginMutation = `mutation Login($email: String!, $password: String!) {
  login(email: $email, password: $password) { token user { ` + userFields + ` } }
}`
	addUserMutation = `mutation AddUser($username: String!, $email: String!, $password: String!) {
  addUser(username: $username, email: $email, password: $password) { token user { ` + userFields + ` } }
}`
	meQuery = `query Me {
  me { ` + userFields + ` }
}`
	searchBooksQuery = `query SearchBooks($query: String!) {
  searchBooks(query: $query) { bookId title authors description image link }
}`
	saveBookMutation = `mutation SaveBook($input: BookInput!) {
  saveBook(input: $input) { ` + userFields + ` }
}`
	removeBookMutation = `mutation RemoveBook($bookId: String!) {
  removeBook(bookId: $bookId) { ` + userFields + ` }
}`
	changePasswordMutation = `mutation ChangePassword($currentPassword: String!, $newPassword: String!) {
  changePassword(currentPassword: $currentPassword, newPassword: $newPassword) { ` + userFields + ` }
}`
)

// API is the typed surface of the bookshelf GraphQL endpoint.
type API struct {
	gql *GraphQLClient
}

func NewAPI(gql *GraphQLClient) *API {
	return &API{gql: gql}
}

func (a *API) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out struct {
		Login AuthResult `json:"login"`
	}
	err := a.gql.Do(ctx, loginMutation, map[string]interface{}{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Login, nil
}

func (a *API) AddUser(ctx context.Context, username, email, password string) (*AuthResult, error) {
	var out struct {
		AddUser AuthResult `json:"addUser"`
	}
	err := a.gql.Do(ctx, addUserMutation, map[string]interface{}{
		"username": username,
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.AddUser, nil
}

func (a *API) Me(ctx context.Context) (*Me, error) {
	var out struct {
		Me *Me `json:"me"`
	}
	if err := a.gql.Do(ctx, meQuery, nil, &out); err != nil {
		return nil, err
	}
	return out.Me, nil
}

func (a *API) SearchBooks(ctx context.Context, query string) ([]models.Book, error) {
	var out struct {
		SearchBooks []models.Book `json:"searchBooks"`
	}
	if err := a.gql.Do(ctx, searchBooksQuery, map[string]interface{}{"query": query}, &out); err != nil {
		return nil, err
	}
	return out.SearchBooks, nil
}

func (a *API) SaveBook(ctx context.Context, book models.Book) (*Me, error) {
	input := map[string]interface{}{
		"bookId":      book.BookID,
		"title":       book.Title,
		"authors":     book.Authors,
		"description": book.Description,
	}
	if book.Image != "" {
		input["image"] = book.Image
	}
	if book.Link != "" {
		input["link"] = book.Link
	}

	var out struct {
		SaveBook Me `json:"saveBook"`
	}
	if err := a.gql.Do(ctx, saveBookMutation, map[string]interface{}{"input": input}, &out); err != nil {
		return nil, err
	}
	return &out.SaveBook, nil
}

func (a *API) RemoveBook(ctx context.Context, bookID string) (*Me, error) {
	var out struct {
		RemoveBook Me `json:"removeBook"`
	}
	if err := a.gql.Do(ctx, removeBookMutation, map[string]interface{}{"bookId": bookID}, &out); err != nil {
		return nil, err
	}
	return &out.RemoveBook, nil
}

func (a *API) ChangePassword(ctx context.Context, currentPassword, newPassword string) (*Me, error) {
	var out struct {
		ChangePassword Me `json:"changePassword"`
	}
	err := a.gql.Do(ctx, changePasswordMutation, map[string]interface{}{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.ChangePassword, nil
}
