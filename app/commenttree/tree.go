// Package commenttree implements pure transformations over nested comment
// threads. Every operation returns a new tree and leaves its input untouched;
// subtrees that are not on the path to the changed node are shared.
package commenttree

import (
	"slices"

	"pressroom/app/models"
)

// Tree is a forest of top-level comments.
type Tree []models.Comment

// InsertReply adds c under parentID. An empty parentID prepends c at the top
// level. An unknown parent leaves the tree unchanged.
func InsertReply(t Tree, parentID string, c models.Comment) Tree {
	if parentID == "" {
		out := make(Tree, 0, len(t)+1)
		out = append(out, c)
		return append(out, t...)
	}
	out, _ := update(t, parentID, func(n models.Comment) models.Comment {
		replies := make([]models.Comment, 0, len(n.Replies)+1)
		replies = append(replies, n.Replies...)
		n.Replies = append(replies, c)
		return n
	})
	return out
}

// ToggleLike flips userID's membership in the like-set of comment id and
// moves the count by one in the same direction.
func ToggleLike(t Tree, id, userID string) Tree {
	out, _ := update(t, id, func(n models.Comment) models.Comment {
		if n.LikedBy(userID) {
			n.Likes = without(n.Likes, userID)
			n.LikesCount = max(n.LikesCount-1, 0)
			n.UserLiked = false
		} else {
			n.Likes = with(n.Likes, userID)
			n.LikesCount++
			n.UserLiked = true
		}
		return n
	})
	return out
}

// SetLikeState overwrites the like state of comment id with the values the
// server returned.
func SetLikeState(t Tree, id, userID string, likesCount int, userLiked bool) Tree {
	out, _ := update(t, id, func(n models.Comment) models.Comment {
		if userLiked {
			n.Likes = with(n.Likes, userID)
		} else {
			n.Likes = without(n.Likes, userID)
		}
		n.LikesCount = likesCount
		n.UserLiked = userLiked
		return n
	})
	return out
}

// Edit replaces the content of comment id and marks it edited.
func Edit(t Tree, id, content string) Tree {
	out, _ := update(t, id, func(n models.Comment) models.Comment {
		n.Content = content
		n.Edited = true
		return n
	})
	return out
}

// Replace swaps the node carrying c.ID for c, keeping the existing replies
// when c has none.
func Replace(t Tree, c models.Comment) Tree {
	out, _ := update(t, c.ID, func(n models.Comment) models.Comment {
		if c.Replies == nil {
			c.Replies = n.Replies
		}
		return c
	})
	return out
}

// Remove drops comment id and its whole subtree.
func Remove(t Tree, id string) Tree {
	out, _ := remove(t, id)
	return out
}

// Find returns the comment with id at any depth.
func Find(t Tree, id string) (models.Comment, bool) {
	var found models.Comment
	var ok bool
	Walk(t, func(c models.Comment, _ int) bool {
		if c.ID == id {
			found, ok = c, true
			return false
		}
		return true
	})
	return found, ok
}

// Depth returns how deep comment id sits; top-level comments are at 0.
func Depth(t Tree, id string) (int, bool) {
	depth, ok := -1, false
	Walk(t, func(c models.Comment, d int) bool {
		if c.ID == id {
			depth, ok = d, true
			return false
		}
		return true
	})
	return depth, ok
}

// Count returns the number of nodes in the tree.
func Count(t Tree) int {
	n := 0
	Walk(t, func(models.Comment, int) bool {
		n++
		return true
	})
	return n
}

// Walk visits every node in pre-order. Returning false from fn stops the walk.
func Walk(t Tree, fn func(c models.Comment, depth int) bool) {
	walk(t, 0, fn)
}

func walk(t []models.Comment, depth int, fn func(models.Comment, int) bool) bool {
	for _, c := range t {
		if !fn(c, depth) {
			return false
		}
		if !walk(c.Replies, depth+1, fn) {
			return false
		}
	}
	return true
}

// Equal reports whether a and b have the same shape and node contents.
func Equal(a, b Tree) bool {
	return slices.EqualFunc(a, b, nodeEqual)
}

func nodeEqual(a, b models.Comment) bool {
	return a.ID == b.ID &&
		a.PostID == b.PostID &&
		a.ParentID == b.ParentID &&
		a.Content == b.Content &&
		a.Author == b.Author &&
		slices.Equal(a.Likes, b.Likes) &&
		a.LikesCount == b.LikesCount &&
		a.UserLiked == b.UserLiked &&
		a.Edited == b.Edited &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.UpdatedAt.Equal(b.UpdatedAt) &&
		slices.EqualFunc(a.Replies, b.Replies, nodeEqual)
}

// update rewrites the first node with id using fn, copying only the slices on
// the path from the root to that node.
func update(t []models.Comment, id string, fn func(models.Comment) models.Comment) ([]models.Comment, bool) {
	for i, c := range t {
		if c.ID == id {
			out := slices.Clone(t)
			out[i] = fn(c)
			return out, true
		}
		if replies, ok := update(c.Replies, id, fn); ok {
			out := slices.Clone(t)
			out[i].Replies = replies
			return out, true
		}
	}
	return t, false
}

func remove(t []models.Comment, id string) ([]models.Comment, bool) {
	for i, c := range t {
		if c.ID == id {
			out := make([]models.Comment, 0, len(t)-1)
			out = append(out, t[:i]...)
			return append(out, t[i+1:]...), true
		}
		if replies, ok := remove(c.Replies, id); ok {
			out := slices.Clone(t)
			out[i].Replies = replies
			return out, true
		}
	}
	return t, false
}

func with(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids...)
	return append(out, id)
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
