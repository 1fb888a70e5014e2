package services

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"pressroom/app/commenttree"
	"pressroom/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	commentLikeRoute = "POST /blog/comments/{id}/like"
	addCommentRoute  = "POST /blog/posts/{id}/comments"
	editCommentRoute = "PUT /blog/comments/{id}"
)

func newComments(e *env) *CommentService {
	return NewCommentService(e.client, e.sess, e.logger, e.metrics)
}

func TestCommentAddAndReply(t *testing.T) {
	e := newEnv(t)
	e.loginAs(t, models.RoleJournalist)
	p := e.srv.AddPost(models.Post{Title: "Thread"})
	old := e.srv.AddComment(p.ID, "", models.Comment{Content: "older"})
	svc := newComments(e)

	top, err := svc.Add(context.Background(), p.ID, "", "newest", nil)
	require.NoError(t, err)
	reply, err := svc.Add(context.Background(), p.ID, old.ID, "a reply", nil)
	require.NoError(t, err)

	tree, ok := svc.Thread(p.ID)
	require.True(t, ok)
	require.Len(t, tree, 2)
	assert.Equal(t, top.ID, tree[0].ID)
	parent, _ := commenttree.Find(tree, old.ID)
	require.Len(t, parent.Replies, 1)
	assert.Equal(t, reply.ID, parent.Replies[0].ID)
}

func TestCommentReplyDepthLimit(t *testing.T) {
	e := newEnv(t)
	e.loginAs(t, models.RoleJournalist)
	p := e.srv.AddPost(models.Post{Title: "Deep"})
	a := e.srv.AddComment(p.ID, "", models.Comment{Content: "a"})
	b := e.srv.AddComment(p.ID, a.ID, models.Comment{Content: "b"})
	c := e.srv.AddComment(p.ID, b.ID, models.Comment{Content: "c"})
	d := e.srv.AddComment(p.ID, c.ID, models.Comment{Content: "d"})
	svc := newComments(e)

	_, err := svc.Add(context.Background(), p.ID, c.ID, "still fine", nil)
	require.NoError(t, err)

	_, err = svc.Add(context.Background(), p.ID, d.ID, "too deep", nil)
	assert.ErrorIs(t, err, ErrTooDeep)
}

func TestCommentGuest(t *testing.T) {
	e := newEnv(t)
	p := e.srv.AddPost(models.Post{Title: "Guests welcome"})
	svc := newComments(e)

	_, err := svc.Add(context.Background(), p.ID, "", "hello", nil)
	assert.ErrorIs(t, err, ErrInvalid)

	c, err := svc.Add(context.Background(), p.ID, "", "hello", &Guest{Name: "Sam", Email: "sam@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Sam", c.Author.Label())
}

func TestCommentAddRejectsInvalidDraft(t *testing.T) {
	e := newEnv(t)
	p := e.srv.AddPost(models.Post{Title: "Strict"})
	svc := newComments(e)

	_, err := svc.Add(context.Background(), p.ID, "", "hello", &Guest{Name: "Sam", Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalid)

	e.loginAs(t, models.RoleJournalist)
	_, err = svc.Add(context.Background(), p.ID, "", strings.Repeat("a", 2500), nil)
	assert.ErrorIs(t, err, ErrInvalid)

	assert.Zero(t, e.srv.Hits(addCommentRoute))
	assert.Zero(t, e.srv.Hits("GET /blog/posts/{id}/comments"))
}

func TestCommentEditRejectsInvalidContent(t *testing.T) {
	e := newEnv(t)
	u := e.loginAs(t, models.RoleJournalist)
	p := e.srv.AddPost(models.Post{Title: "Strict"})
	mine := e.srv.AddComment(p.ID, "", models.Comment{Content: "short", Author: models.Author{ID: u.ID}})
	svc := newComments(e)

	_, err := svc.Edit(context.Background(), p.ID, mine.ID, strings.Repeat("a", 2500))
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = svc.Edit(context.Background(), p.ID, mine.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalid)

	assert.Zero(t, e.srv.Hits(editCommentRoute))
}

func TestCommentAddFailureLeavesThread(t *testing.T) {
	e := newEnv(t)
	e.loginAs(t, models.RoleJournalist)
	p := e.srv.AddPost(models.Post{Title: "Flaky"})
	e.srv.AddComment(p.ID, "", models.Comment{Content: "only"})
	svc := newComments(e)
	before, err := svc.Load(context.Background(), p.ID)
	require.NoError(t, err)
	e.srv.Fail(addCommentRoute, http.StatusServiceUnavailable, 1)

	_, err = svc.Add(context.Background(), p.ID, "", "lost", nil)

	require.Error(t, err)
	after, _ := svc.Thread(p.ID)
	assert.True(t, commenttree.Equal(before, after))
	assert.Equal(t, 1, e.logs.FilterMessage("add comment failed").Len())
}

func TestCommentEditAndDelete(t *testing.T) {
	e := newEnv(t)
	u := e.loginAs(t, models.RoleJournalist)
	p := e.srv.AddPost(models.Post{Title: "Edits"})
	mine := e.srv.AddComment(p.ID, "", models.Comment{Content: "typo", Author: models.Author{ID: u.ID}})
	e.srv.AddComment(p.ID, mine.ID, models.Comment{Content: "reply"})
	svc := newComments(e)

	_, err := svc.Edit(context.Background(), p.ID, mine.ID, "fixed")
	require.NoError(t, err)
	tree, _ := svc.Thread(p.ID)
	got, _ := commenttree.Find(tree, mine.ID)
	assert.Equal(t, "fixed", got.Content)
	assert.True(t, got.Edited)
	assert.Len(t, got.Replies, 1)

	require.NoError(t, svc.Delete(context.Background(), p.ID, mine.ID))
	tree, _ = svc.Thread(p.ID)
	assert.Zero(t, commenttree.Count(tree))
}

func TestCommentToggleLikeOptimistic(t *testing.T) {
	e := newEnv(t)
	u := e.loginAs(t, models.RoleJournalist)
	p := e.srv.AddPost(models.Post{Title: "Likes"})
	a := e.srv.AddComment(p.ID, "", models.Comment{Content: "a"})
	b := e.srv.AddComment(p.ID, a.ID, models.Comment{Content: "b"})
	svc := newComments(e)
	_, err := svc.Load(context.Background(), p.ID)
	require.NoError(t, err)

	release := e.srv.Hold(commentLikeRoute)
	done := make(chan error)
	go func() {
		_, err := svc.ToggleLike(context.Background(), p.ID, b.ID)
		done <- err
	}()
	require.Eventually(t, func() bool {
		tree, _ := svc.Thread(p.ID)
		c, _ := commenttree.Find(tree, b.ID)
		return c.UserLiked && c.LikedBy(u.ID)
	}, testTimeout, testTick)

	release()
	require.NoError(t, <-done)
	tree, _ := svc.Thread(p.ID)
	c, _ := commenttree.Find(tree, b.ID)
	assert.Equal(t, 1, c.LikesCount)
	parent, _ := commenttree.Find(tree, a.ID)
	assert.Zero(t, parent.LikesCount)
}

func TestCommentToggleLikeRollsBack(t *testing.T) {
	e := newEnv(t)
	e.loginAs(t, models.RoleJournalist)
	p := e.srv.AddPost(models.Post{Title: "Likes"})
	a := e.srv.AddComment(p.ID, "", models.Comment{Content: "a"})
	svc := newComments(e)
	before, err := svc.Load(context.Background(), p.ID)
	require.NoError(t, err)
	e.srv.FailNetwork(commentLikeRoute, 1)

	after, err := svc.ToggleLike(context.Background(), p.ID, a.ID)

	require.Error(t, err)
	assert.True(t, commenttree.Equal(before, after))
}

func TestCommentToggleLikeUnknown(t *testing.T) {
	e := newEnv(t)
	e.loginAs(t, models.RoleJournalist)
	p := e.srv.AddPost(models.Post{Title: "Likes"})
	svc := newComments(e)

	_, err := svc.ToggleLike(context.Background(), p.ID, "missing")
	assert.Error(t, err)
	assert.Zero(t, e.srv.Hits(commentLikeRoute))
}
