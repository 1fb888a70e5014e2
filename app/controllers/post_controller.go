package controllers

import (
	"net/http"

	"pressroom/app/api"
	"pressroom/app/models"
	"pressroom/app/services"

	"github.com/gorilla/mux"
)

// PostController handles HTTP requests for the post feed
type PostController struct {
	feed *services.FeedService
}

// NewPostController creates a new PostController
func NewPostController(feed *services.FeedService) *PostController {
	return &PostController{feed: feed}
}

// Index handles listing posts
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := pc.feed.List(r.Context(), api.PostQuery{
		Page:     queryInt(r, "page", 1),
		Limit:    queryInt(r, "limit", 10),
		Category: q.Get("category"),
		Search:   q.Get("search"),
	})
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, page)
}

// Show handles displaying a single post
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	post, err := pc.feed.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, post)
}

// Like toggles the caller's like
func (pc *PostController) Like(w http.ResponseWriter, r *http.Request) {
	e, err := pc.feed.ToggleLike(r.Context(), mux.Vars(r)["id"])
	pc.sendEngagement(w, e, err)
}

// Share records a share to a platform
func (pc *PostController) Share(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Platform models.SharePlatform `json:"platform"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := pc.feed.Share(r.Context(), mux.Vars(r)["id"], req.Platform)
	pc.sendEngagement(w, e, err)
}

// Bookmark toggles the caller's bookmark
func (pc *PostController) Bookmark(w http.ResponseWriter, r *http.Request) {
	e, err := pc.feed.ToggleBookmark(r.Context(), mux.Vars(r)["id"])
	pc.sendEngagement(w, e, err)
}

// Bookmarks lists the caller's bookmarks
func (pc *PostController) Bookmarks(w http.ResponseWriter, r *http.Request) {
	posts, err := pc.feed.Bookmarks(r.Context())
	if err != nil {
		sendError(w, err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	sendJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// Report flags a post for moderation
func (pc *PostController) Report(w http.ResponseWriter, r *http.Request) {
	var report models.ContentReport
	if !decodeJSON(w, r, &report) {
		return
	}
	if err := pc.feed.Report(r.Context(), mux.Vars(r)["id"], report); err != nil {
		sendError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// sendEngagement answers with the settled counters. A failed mutation still
// reports the rolled back counters next to the error.
func (pc *PostController) sendEngagement(w http.ResponseWriter, e models.Engagement, err error) {
	if err != nil {
		status, body := describe(err)
		sendJSON(w, status, map[string]any{"error": body.Error, "engagement": e})
		return
	}
	sendJSON(w, http.StatusOK, e)
}
