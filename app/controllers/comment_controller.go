package controllers

import (
	"fmt"
	"net/http"

	"pressroom/app/commenttree"
	"pressroom/app/services"

	"github.com/gorilla/mux"
)

// CommentController handles HTTP requests for comments
type CommentController struct {
	comments *services.CommentService
}

// NewCommentController creates a new CommentController
func NewCommentController(comments *services.CommentService) *CommentController {
	return &CommentController{comments: comments}
}

// Index handles listing the comment thread of a post
func (cc *CommentController) Index(w http.ResponseWriter, r *http.Request) {
	tree, err := cc.comments.Load(r.Context(), mux.Vars(r)["postId"])
	if err != nil {
		sendError(w, err)
		return
	}
	sendTree(w, http.StatusOK, tree)
}

// Create handles posting a comment or a reply
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content    string `json:"content"`
		ParentID   string `json:"parentId"`
		GuestName  string `json:"guestName"`
		GuestEmail string `json:"guestEmail"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	var guest *services.Guest
	if req.GuestName != "" || req.GuestEmail != "" {
		guest = &services.Guest{Name: req.GuestName, Email: req.GuestEmail}
	}
	c, err := cc.comments.Add(r.Context(), mux.Vars(r)["postId"], req.ParentID, req.Content, guest)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, c)
}

// Edit handles changing a comment's content
func (cc *CommentController) Edit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PostID  string `json:"postId"`
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PostID == "" {
		sendError(w, missingPostID)
		return
	}
	c, err := cc.comments.Edit(r.Context(), req.PostID, mux.Vars(r)["id"], req.Content)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, c)
}

// Delete handles removing a comment; postId comes from the query.
func (cc *CommentController) Delete(w http.ResponseWriter, r *http.Request) {
	postID := r.URL.Query().Get("postId")
	if postID == "" {
		sendError(w, missingPostID)
		return
	}
	if err := cc.comments.Delete(r.Context(), postID, mux.Vars(r)["id"]); err != nil {
		sendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Like toggles the caller's like on a comment; postId comes from the query.
func (cc *CommentController) Like(w http.ResponseWriter, r *http.Request) {
	postID := r.URL.Query().Get("postId")
	if postID == "" {
		sendError(w, missingPostID)
		return
	}
	tree, err := cc.comments.ToggleLike(r.Context(), postID, mux.Vars(r)["id"])
	if err != nil {
		sendError(w, err)
		return
	}
	sendTree(w, http.StatusOK, tree)
}

var missingPostID = fmt.Errorf("%w: postId is required", services.ErrInvalid)

func sendTree(w http.ResponseWriter, status int, tree commenttree.Tree) {
	if tree == nil {
		tree = commenttree.Tree{}
	}
	sendJSON(w, status, map[string]any{"comments": tree, "count": commenttree.Count(tree)})
}
