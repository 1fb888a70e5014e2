package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"pressroom/app/models"
)

// Posts lists the feed.
func (c *Client) Posts(ctx context.Context, q PostQuery) (PostPage, error) {
	r := get("/blog/posts", "/blog/posts")
	r.query = url.Values{}
	if q.Page > 0 {
		r.query.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		r.query.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Category != "" {
		r.query.Set("category", q.Category)
	}
	if q.Search != "" {
		r.query.Set("search", q.Search)
	}
	var out PostPage
	err := c.do(ctx, r, &out)
	return out, err
}

// Post fetches one post with its current counters.
func (c *Client) Post(ctx context.Context, id string) (models.Post, error) {
	var out models.Post
	err := c.do(ctx, get("/blog/posts/{id}", "/blog/posts/"+url.PathEscape(id)), &out)
	return out, err
}

// LikePost toggles the caller's like on a post.
func (c *Client) LikePost(ctx context.Context, id string) (LikeResult, error) {
	var out LikeResult
	err := c.do(ctx, post("/blog/posts/{id}/like", "/blog/posts/"+url.PathEscape(id)+"/like", nil), &out)
	return out, err
}

// SharePost records a share.
func (c *Client) SharePost(ctx context.Context, id string, platform models.SharePlatform) (ShareResult, error) {
	var out ShareResult
	body := map[string]string{"platform": string(platform)}
	err := c.do(ctx, post("/blog/posts/{id}/share", "/blog/posts/"+url.PathEscape(id)+"/share", body), &out)
	return out, err
}

// BookmarkPost toggles the caller's bookmark on a post.
func (c *Client) BookmarkPost(ctx context.Context, id string) (BookmarkResult, error) {
	var out BookmarkResult
	err := c.do(ctx, post("/blog/posts/{id}/bookmark", "/blog/posts/"+url.PathEscape(id)+"/bookmark", nil), &out)
	return out, err
}

// Bookmarks lists the caller's bookmarked posts.
func (c *Client) Bookmarks(ctx context.Context) ([]models.Post, error) {
	var out struct {
		Posts []models.Post `json:"posts"`
	}
	err := c.do(ctx, get("/blog/bookmarks", "/blog/bookmarks"), &out)
	return out.Posts, err
}

// ReportPost flags a post for moderation.
func (c *Client) ReportPost(ctx context.Context, id string, report models.ContentReport) error {
	return c.do(ctx, post("/blog/posts/{id}/report", "/blog/posts/"+url.PathEscape(id)+"/report", report), nil)
}

// Comments fetches the full comment tree of a post.
func (c *Client) Comments(ctx context.Context, postID string) ([]models.Comment, error) {
	var out struct {
		Comments []models.Comment `json:"comments"`
	}
	err := c.do(ctx, get("/blog/posts/{id}/comments", "/blog/posts/"+url.PathEscape(postID)+"/comments"), &out)
	return out.Comments, err
}

// AddComment posts a comment or a reply.
func (c *Client) AddComment(ctx context.Context, postID string, nc NewComment) (models.Comment, error) {
	var out models.Comment
	err := c.do(ctx, post("/blog/posts/{id}/comments", "/blog/posts/"+url.PathEscape(postID)+"/comments", nc), &out)
	return out, err
}

// EditComment replaces a comment's content.
func (c *Client) EditComment(ctx context.Context, id, content string) (models.Comment, error) {
	var out models.Comment
	r := request{
		method: http.MethodPut,
		route:  "/blog/comments/{id}",
		path:   "/blog/comments/" + url.PathEscape(id),
		body:   map[string]string{"content": content},
	}
	err := c.do(ctx, r, &out)
	return out, err
}

// DeleteComment removes a comment and its replies.
func (c *Client) DeleteComment(ctx context.Context, id string) error {
	r := request{method: http.MethodDelete, route: "/blog/comments/{id}", path: "/blog/comments/" + url.PathEscape(id)}
	return c.do(ctx, r, nil)
}

// LikeComment toggles the caller's like on a comment.
func (c *Client) LikeComment(ctx context.Context, id string) (LikeResult, error) {
	var out LikeResult
	err := c.do(ctx, post("/blog/comments/{id}/like", "/blog/comments/"+url.PathEscape(id)+"/like", nil), &out)
	return out, err
}
