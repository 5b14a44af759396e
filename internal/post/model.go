package post

import "time"

type Post struct {
	ID         int       `json:"id"`
	Created    time.Time `json:"created"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	AuthorID   int       `json:"author_id"`
	AuthorName string    `json:"author_name"`
}

// OwnedBy is the ownership predicate checked before any edit or delete.
func (p *Post) OwnedBy(userID int) bool {
	return p != nil && userID != 0 && p.AuthorID == userID
}

// PostInput is the create/edit form after binding.
type PostInput struct {
	Title   string `form:"title" validate:"required,max=100"`
	Content string `form:"content" validate:"required"`
}
