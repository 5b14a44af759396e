package post

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"blog_service/internal/apperr"
	"blog_service/internal/utils"

	"github.com/sirupsen/logrus"
)

const (
	MsgTitleRequired   = "Title is required!"
	MsgContentRequired = "Content is required!"
	MsgTitleTooLong    = "Title must be at most 100 characters."
	MsgPostNotFound    = "Post not found."
	MsgNotOwner        = "You can only change your own posts."
	MsgLoginRequired   = "Please log in to access this page."
)

type PostServiceInterface interface {
	CreatePost(ctx context.Context, authorID int, input PostInput) (*Post, error)
	GetPost(ctx context.Context, id int) (*Post, error)
	ListPosts(ctx context.Context) ([]*Post, error)
	ListPostsByAuthor(ctx context.Context, authorID int) ([]*Post, error)
	GetPostForEdit(ctx context.Context, actorID, postID int) (*Post, error)
	UpdatePost(ctx context.Context, actorID, postID int, input PostInput) (*Post, error)
	DeletePost(ctx context.Context, actorID, postID int) error
}

type PostService struct {
	repo   PostRepositoryInterface
	db     *sql.DB
	events EventPublisher
}

func NewPostService(repo PostRepositoryInterface, db *sql.DB, events EventPublisher) PostServiceInterface {
	if events == nil {
		events = DiscardEvents
	}
	return &PostService{
		repo:   repo,
		db:     db,
		events: events,
	}
}

// CreatePost stores a post authored by authorID. The author always comes from the
// caller's identity, never from the form.
func (s *PostService) CreatePost(ctx context.Context, authorID int, input PostInput) (*Post, error) {
	if authorID == 0 {
		return nil, apperr.Unauthenticated(MsgLoginRequired)
	}

	input, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	post := &Post{
		Created:  time.Now().UTC(),
		Title:    input.Title,
		Content:  input.Content,
		AuthorID: authorID,
	}

	if err := utils.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		id, err := s.repo.Create(ctx, tx, post)
		if err != nil {
			return err
		}
		post.ID = id
		return nil
	}); err != nil {
		return nil, apperr.Storage("Could not save post. Please try again.", err)
	}

	s.publish(ctx, NewEvent(EventCreated, post))
	return post, nil
}

// GetPost returns NotFound for any id that does not exist.
func (s *PostService) GetPost(ctx context.Context, id int) (*Post, error) {
	post, err := s.repo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, lookupError(err)
	}
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context) ([]*Post, error) {
	posts, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, apperr.Storage("Could not load posts.", err)
	}
	return posts, nil
}

// ListPostsByAuthor is always scoped to the caller's own id.
func (s *PostService) ListPostsByAuthor(ctx context.Context, authorID int) ([]*Post, error) {
	if authorID == 0 {
		return nil, apperr.Unauthenticated(MsgLoginRequired)
	}

	posts, err := s.repo.ListByAuthor(ctx, s.db, authorID)
	if err != nil {
		return nil, apperr.Storage("Could not load posts.", err)
	}
	return posts, nil
}

// GetPostForEdit loads a post the actor is allowed to change.
func (s *PostService) GetPostForEdit(ctx context.Context, actorID, postID int) (*Post, error) {
	if actorID == 0 {
		return nil, apperr.Unauthenticated(MsgLoginRequired)
	}

	post, err := s.repo.GetByID(ctx, s.db, postID)
	if err != nil {
		return nil, lookupError(err)
	}
	if !post.OwnedBy(actorID) {
		return nil, apperr.Forbidden(MsgNotOwner)
	}
	return post, nil
}

// UpdatePost replaces title and content of a post owned by actorID. The id and
// creation time never change.
func (s *PostService) UpdatePost(ctx context.Context, actorID, postID int, input PostInput) (*Post, error) {
	if actorID == 0 {
		return nil, apperr.Unauthenticated(MsgLoginRequired)
	}

	var updated *Post
	err := utils.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		post, err := s.repo.GetByID(ctx, tx, postID)
		if err != nil {
			return lookupError(err)
		}
		if !post.OwnedBy(actorID) {
			logrus.WithFields(logrus.Fields{
				"post_id":  postID,
				"actor_id": actorID,
			}).Warn("Rejected edit of another user's post")
			return apperr.Forbidden(MsgNotOwner)
		}

		clean, err := normalizeInput(input)
		if err != nil {
			return err
		}

		post.Title = clean.Title
		post.Content = clean.Content
		if err := s.repo.Update(ctx, tx, post); err != nil {
			return lookupError(err)
		}

		updated = post
		return nil
	})
	if err != nil {
		return nil, asAppError(err, "Could not update post. Please try again.")
	}

	s.publish(ctx, NewEvent(EventUpdated, updated))
	return updated, nil
}

// DeletePost permanently removes a post owned by actorID.
func (s *PostService) DeletePost(ctx context.Context, actorID, postID int) error {
	if actorID == 0 {
		return apperr.Unauthenticated(MsgLoginRequired)
	}

	var deleted *Post
	err := utils.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		post, err := s.repo.GetByID(ctx, tx, postID)
		if err != nil {
			return lookupError(err)
		}
		if !post.OwnedBy(actorID) {
			logrus.WithFields(logrus.Fields{
				"post_id":  postID,
				"actor_id": actorID,
			}).Warn("Rejected delete of another user's post")
			return apperr.Forbidden(MsgNotOwner)
		}

		if err := s.repo.Delete(ctx, tx, postID, actorID); err != nil {
			return lookupError(err)
		}

		deleted = post
		return nil
	})
	if err != nil {
		return asAppError(err, "Could not delete post. Please try again.")
	}

	s.publish(ctx, NewEvent(EventDeleted, deleted))
	return nil
}

// publish never fails the request; the write has already committed.
func (s *PostService) publish(ctx context.Context, event Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event":   event.Type,
			"post_id": event.PostID,
		}).Warn("Failed to publish post event")
	}
}

func normalizeInput(input PostInput) (PostInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	if strings.TrimSpace(input.Content) == "" {
		input.Content = ""
	}

	fe := utils.ValidateStruct(input)
	if fe == nil {
		return input, nil
	}

	switch {
	case fe.Field == "title" && fe.Tag == "required":
		return input, apperr.Validation("title", MsgTitleRequired)
	case fe.Field == "title":
		return input, apperr.Validation("title", MsgTitleTooLong)
	default:
		return input, apperr.Validation("content", MsgContentRequired)
	}
}

func lookupError(err error) error {
	if errors.Is(err, ErrPostNotFound) {
		return apperr.NotFound(MsgPostNotFound)
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Storage("Could not load post.", err)
}

// asAppError keeps typed errors and turns anything else into a storage failure.
func asAppError(err error, message string) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if appErr.Kind == apperr.KindStorage {
			return apperr.Storage(message, appErr.Err)
		}
		return appErr
	}
	return apperr.Storage(message, err)
}
