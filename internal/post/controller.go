package post

import (
	"fmt"
	"net/http"
	"strconv"

	"blog_service/internal/apperr"
	"blog_service/internal/auth"
	"blog_service/internal/observability"
	"blog_service/internal/web"

	"github.com/gin-gonic/gin"
)

type PostController struct {
	postService PostServiceInterface
	metrics     *observability.Metrics
}

func NewPostController(postService PostServiceInterface, metrics *observability.Metrics) *PostController {
	return &PostController{
		postService: postService,
		metrics:     metrics,
	}
}

// Index lists every post. Public.
func (h *PostController) Index(c *gin.Context) {
	posts, err := h.postService.ListPosts(c.Request.Context())
	if err != nil {
		web.RenderError(c, err)
		return
	}

	web.Render(c, http.StatusOK, "index.html", gin.H{"Title": "Posts", "Posts": posts})
}

// Show renders a single post. Public.
func (h *PostController) Show(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		web.RenderError(c, apperr.NotFound(MsgPostNotFound))
		return
	}

	post, err := h.postService.GetPost(c.Request.Context(), id)
	if err != nil {
		web.RenderError(c, err)
		return
	}

	identity, _ := auth.GetIdentity(c)
	canEdit := identity != nil && post.OwnedBy(identity.UserID)

	web.Render(c, http.StatusOK, "post.html", gin.H{"Title": post.Title, "Post": post, "CanEdit": canEdit})
}

// MyPosts lists the caller's own posts
func (h *PostController) MyPosts(c *gin.Context) {
	identity, ok := auth.GetIdentity(c)
	if !ok {
		web.RenderError(c, apperr.Unauthenticated(MsgLoginRequired))
		return
	}

	posts, err := h.postService.ListPostsByAuthor(c.Request.Context(), identity.UserID)
	if err != nil {
		web.RenderError(c, err)
		return
	}

	web.Render(c, http.StatusOK, "posts.html", gin.H{"Title": "My posts", "Posts": posts})
}

func (h *PostController) ShowCreate(c *gin.Context) {
	web.Render(c, http.StatusOK, "create.html", gin.H{"Title": "New post", "Form": PostInput{}})
}

// Create handles the new post form
func (h *PostController) Create(c *gin.Context) {
	identity, ok := auth.GetIdentity(c)
	if !ok {
		web.RenderError(c, apperr.Unauthenticated(MsgLoginRequired))
		return
	}

	var req PostInput
	_ = c.ShouldBind(&req)

	_, err := h.postService.CreatePost(c.Request.Context(), identity.UserID, req)
	h.metrics.RecordPostOperation("create", outcome(err))
	if err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			web.AddFlash(c, web.Danger, apperr.Message(err))
			web.Render(c, http.StatusBadRequest, "create.html", gin.H{"Title": "New post", "Form": req})
			return
		}
		web.RenderError(c, err)
		return
	}

	web.AddFlash(c, web.Success, "Your post has been created!")
	web.Redirect(c, "/")
}

// ShowEdit renders the edit form for a post the caller owns
func (h *PostController) ShowEdit(c *gin.Context) {
	identity, ok := auth.GetIdentity(c)
	if !ok {
		web.RenderError(c, apperr.Unauthenticated(MsgLoginRequired))
		return
	}

	id, ok := postID(c)
	if !ok {
		web.RenderError(c, apperr.NotFound(MsgPostNotFound))
		return
	}

	post, err := h.postService.GetPostForEdit(c.Request.Context(), identity.UserID, id)
	if err != nil {
		web.RenderError(c, err)
		return
	}

	web.Render(c, http.StatusOK, "edit.html", gin.H{
		"Title":  "Edit post",
		"PostID": post.ID,
		"Form":   PostInput{Title: post.Title, Content: post.Content},
	})
}

// Update handles the edit form
func (h *PostController) Update(c *gin.Context) {
	identity, ok := auth.GetIdentity(c)
	if !ok {
		web.RenderError(c, apperr.Unauthenticated(MsgLoginRequired))
		return
	}

	id, ok := postID(c)
	if !ok {
		web.RenderError(c, apperr.NotFound(MsgPostNotFound))
		return
	}

	var req PostInput
	_ = c.ShouldBind(&req)

	post, err := h.postService.UpdatePost(c.Request.Context(), identity.UserID, id, req)
	h.metrics.RecordPostOperation("update", outcome(err))
	if err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			web.AddFlash(c, web.Danger, apperr.Message(err))
			web.Render(c, http.StatusBadRequest, "edit.html", gin.H{"Title": "Edit post", "PostID": id, "Form": req})
			return
		}
		web.RenderError(c, err)
		return
	}

	web.AddFlash(c, web.Success, "Your post has been updated!")
	web.Redirect(c, fmt.Sprintf("/%d", post.ID))
}

// Delete removes a post the caller owns
func (h *PostController) Delete(c *gin.Context) {
	identity, ok := auth.GetIdentity(c)
	if !ok {
		web.RenderError(c, apperr.Unauthenticated(MsgLoginRequired))
		return
	}

	id, ok := postID(c)
	if !ok {
		web.RenderError(c, apperr.NotFound(MsgPostNotFound))
		return
	}

	err := h.postService.DeletePost(c.Request.Context(), identity.UserID, id)
	h.metrics.RecordPostOperation("delete", outcome(err))
	if err != nil {
		web.RenderError(c, err)
		return
	}

	web.AddFlash(c, web.Info, "Your post has been deleted.")
	web.Redirect(c, "/")
}

func postID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return apperr.KindOf(err).String()
}
