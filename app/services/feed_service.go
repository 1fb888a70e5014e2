package services

import (
	"context"
	"fmt"
	"slices"

	"pressroom/app/api"
	"pressroom/app/metrics"
	"pressroom/app/models"
	"pressroom/app/optimistic"

	"go.uber.org/zap"
)

// Optimistic mutation kinds.
const (
	KindPostLike    = "post_like"
	KindShare       = "share"
	KindBookmark    = "bookmark"
	KindCommentLike = "comment_like"
)

// FeedService serves the post feed and applies likes, shares and bookmarks
// optimistically.
type FeedService struct {
	api     BlogAPI
	session Session
	logger  *zap.Logger
	states  *states[models.Engagement]
}

// NewFeedService creates a new FeedService
func NewFeedService(a BlogAPI, sess Session, logger *zap.Logger, m *metrics.Metrics) *FeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("feed")
	return &FeedService{
		api:     a,
		session: sess,
		logger:  logger,
		states:  newStates[models.Engagement](logger, m, "post_id"),
	}
}

// List fetches a page of posts. The server counters become the confirmed
// state of every post; a post with a mutation in flight keeps showing its
// pending view so a like does not flicker away on refresh.
func (s *FeedService) List(ctx context.Context, q api.PostQuery) (api.PostPage, error) {
	page, err := s.api.Posts(ctx, q)
	if err != nil {
		return api.PostPage{}, err
	}
	for i := range page.Posts {
		st, created := s.states.get(page.Posts[i].ID, page.Posts[i].Engagement)
		if !created {
			page.Posts[i].Engagement = st.Refresh(page.Posts[i].Engagement)
		}
	}
	return page, nil
}

// Get fetches one post and resets its state to the server counters.
func (s *FeedService) Get(ctx context.Context, id string) (models.Post, error) {
	p, err := s.api.Post(ctx, id)
	if err != nil {
		return models.Post{}, err
	}
	if st, created := s.states.get(id, p.Engagement); !created {
		st.Set(p.Engagement)
	}
	return p, nil
}

// state returns the post's optimistic state, fetching the post first when
// it has never been seen so the projection starts from the server counters.
func (s *FeedService) state(ctx context.Context, postID string) (*optimistic.State[models.Engagement], error) {
	if st, ok := s.states.lookup(postID); ok {
		return st, nil
	}
	p, err := s.api.Post(ctx, postID)
	if err != nil {
		return nil, err
	}
	st, _ := s.states.get(postID, p.Engagement)
	return st, nil
}

// Engagement returns the counters as currently shown.
func (s *FeedService) Engagement(postID string) (models.Engagement, bool) {
	st, ok := s.states.lookup(postID)
	if !ok {
		return models.Engagement{}, false
	}
	return st.View(), true
}

// ToggleLike flips the caller's like right away and settles it with the
// server's count.
func (s *FeedService) ToggleLike(ctx context.Context, postID string) (models.Engagement, error) {
	u, err := currentUser(s.session)
	if err != nil {
		return models.Engagement{}, err
	}
	st, err := s.state(ctx, postID)
	if err != nil {
		return models.Engagement{}, err
	}
	return optimistic.Do(ctx, st, optimistic.Mutation[models.Engagement, api.LikeResult]{
		Kind: KindPostLike,
		Apply: func(e models.Engagement) models.Engagement {
			if e.UserLiked {
				e.LikesCount = max(e.LikesCount-1, 0)
				e.Likes = remove(e.Likes, u.ID)
			} else {
				e.LikesCount++
				e.Likes = add(e.Likes, u.ID)
			}
			e.UserLiked = !e.UserLiked
			return e
		},
		Commit: func(ctx context.Context) (api.LikeResult, error) {
			return s.api.LikePost(ctx, postID)
		},
		Reconcile: func(e models.Engagement, r api.LikeResult) models.Engagement {
			e.LikesCount = r.LikesCount
			e.UserLiked = r.UserLiked
			if r.UserLiked {
				e.Likes = add(e.Likes, u.ID)
			} else {
				e.Likes = remove(e.Likes, u.ID)
			}
			return e
		},
	})
}

// Share counts a share right away and settles it with the server's total.
func (s *FeedService) Share(ctx context.Context, postID string, platform models.SharePlatform) (models.Engagement, error) {
	if !platform.Valid() {
		return models.Engagement{}, fmt.Errorf("%w: unknown share platform %q", ErrInvalid, platform)
	}
	st, err := s.state(ctx, postID)
	if err != nil {
		return models.Engagement{}, err
	}
	return optimistic.Do(ctx, st, optimistic.Mutation[models.Engagement, api.ShareResult]{
		Kind: KindShare,
		Apply: func(e models.Engagement) models.Engagement {
			e.Shares++
			return e
		},
		Commit: func(ctx context.Context) (api.ShareResult, error) {
			return s.api.SharePost(ctx, postID, platform)
		},
		Reconcile: func(e models.Engagement, r api.ShareResult) models.Engagement {
			e.Shares = r.Shares
			return e
		},
	})
}

// ToggleBookmark flips the bookmark right away.
func (s *FeedService) ToggleBookmark(ctx context.Context, postID string) (models.Engagement, error) {
	if _, err := currentUser(s.session); err != nil {
		return models.Engagement{}, err
	}
	st, err := s.state(ctx, postID)
	if err != nil {
		return models.Engagement{}, err
	}
	return optimistic.Do(ctx, st, optimistic.Mutation[models.Engagement, api.BookmarkResult]{
		Kind: KindBookmark,
		Apply: func(e models.Engagement) models.Engagement {
			e.Bookmarked = !e.Bookmarked
			return e
		},
		Commit: func(ctx context.Context) (api.BookmarkResult, error) {
			return s.api.BookmarkPost(ctx, postID)
		},
		Reconcile: func(e models.Engagement, r api.BookmarkResult) models.Engagement {
			e.Bookmarked = r.Bookmarked
			return e
		},
	})
}

// Bookmarks lists the caller's bookmarked posts.
func (s *FeedService) Bookmarks(ctx context.Context) ([]models.Post, error) {
	if _, err := currentUser(s.session); err != nil {
		return nil, err
	}
	return s.api.Bookmarks(ctx)
}

// Report flags a post. It is not optimistic: there is nothing to show
// before the server accepts it.
func (s *FeedService) Report(ctx context.Context, postID string, report models.ContentReport) error {
	if _, err := currentUser(s.session); err != nil {
		return err
	}
	if err := report.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := s.api.ReportPost(ctx, postID, report); err != nil {
		s.logger.Warn("report failed", zap.String("post_id", postID), zap.Error(err))
		return err
	}
	return nil
}

func add(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(slices.Clone(ids), id)
}

func remove(ids []string, id string) []string {
	return slices.DeleteFunc(slices.Clone(ids), func(v string) bool { return v == id })
}
