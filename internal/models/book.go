package models

// Book is a catalog entry as returned by search and as saved in a user's list.
type Book struct {
	BookID      string   `json:"bookId"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Description string   `json:"description"`
	Image       string   `json:"image,omitempty"`
	Link        string   `json:"link,omitempty"`
}

func (b Book) Clone() Book {
	if b.Authors != nil {
		b.Authors = append([]string(nil), b.Authors...)
	}
	return b
}
