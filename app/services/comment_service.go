package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pressroom/app/api"
	"pressroom/app/commenttree"
	"pressroom/app/metrics"
	"pressroom/app/models"
	"pressroom/app/optimistic"

	"go.uber.org/zap"
)

// ErrTooDeep is returned when replying below the deepest reply level.
var ErrTooDeep = errors.New("services: reply nesting too deep")

// Guest identifies a commenter without an account.
type Guest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CommentService keeps one comment thread per post. Likes are optimistic;
// adding, editing and deleting wait for the server and then patch the tree.
type CommentService struct {
	api     BlogAPI
	session Session
	logger  *zap.Logger
	states  *states[commenttree.Tree]
}

// NewCommentService creates a new CommentService
func NewCommentService(a BlogAPI, sess Session, logger *zap.Logger, m *metrics.Metrics) *CommentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("comments")
	return &CommentService{
		api:     a,
		session: sess,
		logger:  logger,
		states:  newStates[commenttree.Tree](logger, m, "post_id"),
	}
}

// Load fetches the thread of postID and replaces the local copy.
func (s *CommentService) Load(ctx context.Context, postID string) (commenttree.Tree, error) {
	comments, err := s.api.Comments(ctx, postID)
	if err != nil {
		return nil, err
	}
	tree := commenttree.Tree(comments)
	if st, created := s.states.get(postID, tree); !created {
		st.Set(tree)
	}
	return tree, nil
}

// Thread returns the thread as currently shown.
func (s *CommentService) Thread(postID string) (commenttree.Tree, bool) {
	st, ok := s.states.lookup(postID)
	if !ok {
		return nil, false
	}
	return st.View(), true
}

func (s *CommentService) thread(ctx context.Context, postID string) (*optimistic.State[commenttree.Tree], error) {
	if st, ok := s.states.lookup(postID); ok {
		return st, nil
	}
	if _, err := s.Load(ctx, postID); err != nil {
		return nil, err
	}
	st, _ := s.states.get(postID, nil)
	return st, nil
}

// Add posts a comment, or a reply when parentID is set. Without a cached
// user the comment is posted as guest, which then must be given.
func (s *CommentService) Add(ctx context.Context, postID, parentID, content string, guest *Guest) (models.Comment, error) {
	draft := models.Comment{PostID: postID, ParentID: parentID, Content: strings.TrimSpace(content)}
	if u, err := s.session.User(); err == nil {
		draft.Author = models.Author{ID: u.ID, Name: u.DisplayName()}
	} else {
		if guest == nil {
			return models.Comment{}, fmt.Errorf("%w: guests need a name and email", ErrInvalid)
		}
		draft.Author = models.Author{GuestName: strings.TrimSpace(guest.Name), GuestEmail: strings.TrimSpace(guest.Email)}
	}
	if err := draft.ValidateDraft(); err != nil {
		return models.Comment{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	nc := api.NewComment{Content: draft.Content, ParentID: parentID}
	if draft.Author.IsGuest() {
		nc.GuestName, nc.GuestEmail = draft.Author.GuestName, draft.Author.GuestEmail
	}

	st, err := s.thread(ctx, postID)
	if err != nil {
		return models.Comment{}, err
	}
	if parentID != "" {
		depth, ok := commenttree.Depth(st.View(), parentID)
		if !ok {
			return models.Comment{}, fmt.Errorf("%w: parent comment %s", api.ErrNotFound, parentID)
		}
		if !models.CanReply(depth) {
			return models.Comment{}, ErrTooDeep
		}
	}

	c, err := s.api.AddComment(ctx, postID, nc)
	if err != nil {
		s.logger.Warn("add comment failed", zap.String("post_id", postID), zap.String("parent_id", parentID), zap.Error(err))
		return models.Comment{}, err
	}
	st.Update(func(t commenttree.Tree) commenttree.Tree {
		return commenttree.InsertReply(t, parentID, c)
	})
	return c, nil
}

// Edit changes a comment's content.
func (s *CommentService) Edit(ctx context.Context, postID, commentID, content string) (models.Comment, error) {
	u, err := currentUser(s.session)
	if err != nil {
		return models.Comment{}, err
	}
	content = strings.TrimSpace(content)
	draft := models.Comment{ID: commentID, PostID: postID, Content: content, Author: models.Author{ID: u.ID}}
	if err := draft.Validate(); err != nil {
		return models.Comment{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	st, err := s.thread(ctx, postID)
	if err != nil {
		return models.Comment{}, err
	}
	c, err := s.api.EditComment(ctx, commentID, content)
	if err != nil {
		s.logger.Warn("edit comment failed", zap.String("post_id", postID), zap.String("comment_id", commentID), zap.Error(err))
		return models.Comment{}, err
	}
	c.Replies = nil
	st.Update(func(t commenttree.Tree) commenttree.Tree {
		return commenttree.Edit(commenttree.Replace(t, c), c.ID, c.Content)
	})
	return c, nil
}

// Delete removes a comment and its replies.
func (s *CommentService) Delete(ctx context.Context, postID, commentID string) error {
	st, err := s.thread(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.api.DeleteComment(ctx, commentID); err != nil {
		s.logger.Warn("delete comment failed", zap.String("post_id", postID), zap.String("comment_id", commentID), zap.Error(err))
		return err
	}
	st.Update(func(t commenttree.Tree) commenttree.Tree {
		return commenttree.Remove(t, commentID)
	})
	return nil
}

// ToggleLike flips the caller's like on a comment right away and settles it
// with the server's count.
func (s *CommentService) ToggleLike(ctx context.Context, postID, commentID string) (commenttree.Tree, error) {
	u, err := currentUser(s.session)
	if err != nil {
		return nil, err
	}
	st, err := s.thread(ctx, postID)
	if err != nil {
		return nil, err
	}
	if _, ok := commenttree.Find(st.View(), commentID); !ok {
		return nil, fmt.Errorf("%w: comment %s", api.ErrNotFound, commentID)
	}
	return optimistic.Do(ctx, st, optimistic.Mutation[commenttree.Tree, api.LikeResult]{
		Kind: KindCommentLike,
		Apply: func(t commenttree.Tree) commenttree.Tree {
			return commenttree.ToggleLike(t, commentID, u.ID)
		},
		Commit: func(ctx context.Context) (api.LikeResult, error) {
			return s.api.LikeComment(ctx, commentID)
		},
		Reconcile: func(t commenttree.Tree, r api.LikeResult) commenttree.Tree {
			return commenttree.SetLikeState(t, commentID, u.ID, r.LikesCount, r.UserLiked)
		},
	})
}
