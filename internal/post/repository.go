package post

import (
	"context"
	"database/sql"
	"errors"

	"blog_service/internal/db"

	"github.com/sirupsen/logrus"
)

var ErrPostNotFound = errors.New("post not found")

type PostRepository struct{}

type PostRepositoryInterface interface {
	Create(ctx context.Context, tx *sql.Tx, post *Post) (int, error)
	GetByID(ctx context.Context, q db.Querier, id int) (*Post, error)
	List(ctx context.Context, q db.Querier) ([]*Post, error)
	ListByAuthor(ctx context.Context, q db.Querier, authorID int) ([]*Post, error)
	Update(ctx context.Context, tx *sql.Tx, post *Post) error
	Delete(ctx context.Context, tx *sql.Tx, id, authorID int) error
}

func NewPostRepository() PostRepositoryInterface {
	return &PostRepository{}
}

const selectPost = `
	SELECT p.id, p.created, p.title, p.content, p.author_id, u.username
	FROM posts p
	JOIN users u ON u.id = p.author_id
`

// Create inserts post and returns the new id
func (r *PostRepository) Create(ctx context.Context, tx *sql.Tx, post *Post) (int, error) {
	query := `
		INSERT INTO posts (
			created, title, content, author_id
		)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int
	err := tx.QueryRowContext(ctx, query,
		post.Created,
		post.Title,
		post.Content,
		post.AuthorID,
	).Scan(&id)

	if err != nil {
		logrus.WithError(err).Error("Failed to create post")
		return 0, err
	}

	logrus.WithFields(logrus.Fields{
		"post_id":   id,
		"author_id": post.AuthorID,
	}).Info("Post created successfully")

	return id, nil
}

// GetByID retrieves a post with its author's username
func (r *PostRepository) GetByID(ctx context.Context, q db.Querier, id int) (*Post, error) {
	post := &Post{}
	err := q.QueryRowContext(ctx, selectPost+`WHERE p.id = $1`, id).Scan(
		&post.ID,
		&post.Created,
		&post.Title,
		&post.Content,
		&post.AuthorID,
		&post.AuthorName,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		logrus.WithError(err).WithField("post_id", id).Error("Failed to get post")
		return nil, err
	}

	return post, nil
}

// List returns every post in id order
func (r *PostRepository) List(ctx context.Context, q db.Querier) ([]*Post, error) {
	return r.list(ctx, q, selectPost+`ORDER BY p.id ASC`)
}

// ListByAuthor returns the posts written by authorID in id order
func (r *PostRepository) ListByAuthor(ctx context.Context, q db.Querier, authorID int) ([]*Post, error) {
	return r.list(ctx, q, selectPost+`WHERE p.author_id = $1 ORDER BY p.id ASC`, authorID)
}

func (r *PostRepository) list(ctx context.Context, q db.Querier, query string, args ...any) ([]*Post, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		logrus.WithError(err).Error("Failed to list posts")
		return nil, err
	}
	defer rows.Close()

	posts := []*Post{}
	for rows.Next() {
		post := &Post{}
		if err := rows.Scan(
			&post.ID,
			&post.Created,
			&post.Title,
			&post.Content,
			&post.AuthorID,
			&post.AuthorName,
		); err != nil {
			logrus.WithError(err).Error("Failed to scan post")
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

// Update replaces title and content. The statement is scoped to the author, so
// it touches nothing when the post belongs to someone else.
func (r *PostRepository) Update(ctx context.Context, tx *sql.Tx, post *Post) error {
	query := `
		UPDATE posts
		SET title = $1, content = $2
		WHERE id = $3 AND author_id = $4
	`

	result, err := tx.ExecContext(ctx, query, post.Title, post.Content, post.ID, post.AuthorID)
	if err != nil {
		logrus.WithError(err).WithField("post_id", post.ID).Error("Failed to update post")
		return err
	}

	return requireRow(result)
}

// Delete removes the post permanently
func (r *PostRepository) Delete(ctx context.Context, tx *sql.Tx, id, authorID int) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		logrus.WithError(err).WithField("post_id", id).Error("Failed to delete post")
		return err
	}

	return requireRow(result)
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}
