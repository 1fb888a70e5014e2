package commenttree

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"pressroom/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string, replies ...models.Comment) models.Comment {
	return models.Comment{
		ID:        id,
		Content:   "comment " + id,
		Likes:     []string{},
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Replies:   replies,
	}
}

// sample builds:
//
//	a
//	├── b
//	│   └── d
//	└── c
//	e
func sample() Tree {
	return Tree{
		node("a", node("b", node("d")), node("c")),
		node("e"),
	}
}

// randomTree builds a tree of n nodes with ids n0..n{n-1}.
func randomTree(r *rand.Rand, n int) Tree {
	var t Tree
	ids := []string{}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("n%d", i)
		parent := ""
		if len(ids) > 0 && r.IntN(3) > 0 {
			parent = ids[r.IntN(len(ids))]
		}
		t = InsertReply(t, parent, node(id))
		ids = append(ids, id)
	}
	return t
}

func TestToggleLikeExampleScenario(t *testing.T) {
	tree := Tree{{ID: "a", Likes: []string{}, Replies: []models.Comment{{ID: "b", Likes: []string{}}}}}

	got := ToggleLike(tree, "b", "u1")

	b, ok := Find(got, "b")
	require.True(t, ok)
	assert.Equal(t, []string{"u1"}, b.Likes)
	assert.Equal(t, 1, b.LikesCount)
	assert.True(t, b.UserLiked)

	a, _ := Find(got, "a")
	assert.Empty(t, a.Likes)
	assert.Equal(t, 0, a.LikesCount)
}

func TestToggleLikeChangesOnlyTarget(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		tree := randomTree(r, 1+r.IntN(30))
		target := fmt.Sprintf("n%d", r.IntN(Count(tree)))

		got := ToggleLike(tree, target, "u1")

		require.Equal(t, Count(tree), Count(got))
		Walk(tree, func(before models.Comment, depth int) bool {
			after, ok := Find(got, before.ID)
			require.True(t, ok)
			d, _ := Depth(got, before.ID)
			assert.Equal(t, depth, d)
			assert.Equal(t, len(before.Replies), len(after.Replies))
			if before.ID == target {
				assert.Equal(t, before.LikesCount+1, after.LikesCount)
				assert.True(t, after.LikedBy("u1"))
			} else {
				assert.Equal(t, before.LikesCount, after.LikesCount)
				assert.Equal(t, before.Likes, after.Likes)
			}
			return true
		})
	}
}

func TestToggleLikeTwiceIsIdentity(t *testing.T) {
	tree := sample()
	tree = SetLikeState(tree, "d", "u2", 4, false)

	once := ToggleLike(tree, "d", "u1")
	twice := ToggleLike(once, "d", "u1")

	assert.False(t, Equal(tree, once))
	assert.True(t, Equal(tree, twice))
}

func TestToggleLikeUnlikes(t *testing.T) {
	tree := SetLikeState(sample(), "c", "u1", 3, true)

	got := ToggleLike(tree, "c", "u1")

	c, _ := Find(got, "c")
	assert.Equal(t, 2, c.LikesCount)
	assert.False(t, c.UserLiked)
	assert.NotContains(t, c.Likes, "u1")
}

func TestToggleLikeDoesNotMutateInput(t *testing.T) {
	tree := sample()
	_ = ToggleLike(tree, "d", "u1")

	d, _ := Find(tree, "d")
	assert.Equal(t, 0, d.LikesCount)
	assert.Empty(t, d.Likes)
}

func TestSetLikeState(t *testing.T) {
	tree := ToggleLike(sample(), "b", "u1")

	got := SetLikeState(tree, "b", "u1", 12, true)
	b, _ := Find(got, "b")
	assert.Equal(t, 12, b.LikesCount)
	assert.Equal(t, []string{"u1"}, b.Likes)

	got = SetLikeState(got, "b", "u1", 11, false)
	b, _ = Find(got, "b")
	assert.Equal(t, 11, b.LikesCount)
	assert.False(t, b.UserLiked)
	assert.Empty(t, b.Likes)
}

func TestRemoveLeaf(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 50; i++ {
		tree := randomTree(r, 1+r.IntN(30))
		var leaves []string
		Walk(tree, func(c models.Comment, _ int) bool {
			if len(c.Replies) == 0 {
				leaves = append(leaves, c.ID)
			}
			return true
		})
		target := leaves[r.IntN(len(leaves))]

		got := Remove(tree, target)

		assert.Equal(t, Count(tree)-1, Count(got))
		_, found := Find(got, target)
		assert.False(t, found)
	}
}

func TestRemoveDropsSubtree(t *testing.T) {
	got := Remove(sample(), "b")

	assert.Equal(t, 3, Count(got))
	_, found := Find(got, "d")
	assert.False(t, found)
}

func TestRemoveTopLevel(t *testing.T) {
	got := Remove(sample(), "e")
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestInsertReply(t *testing.T) {
	tree := sample()
	reply := node("x")

	got := InsertReply(tree, "b", reply)

	b, ok := Find(got, "b")
	require.True(t, ok)
	require.Len(t, b.Replies, 2)
	assert.Equal(t, "x", b.Replies[len(b.Replies)-1].ID)
	assert.Equal(t, Count(tree)+1, Count(got))

	assert.True(t, Equal(Remove(got, "x"), tree))
}

func TestInsertReplyCreatesRepliesSlice(t *testing.T) {
	got := InsertReply(sample(), "e", node("x"))

	e, _ := Find(got, "e")
	require.Len(t, e.Replies, 1)
	assert.Equal(t, "x", e.Replies[0].ID)
}

func TestInsertTopLevelPrepends(t *testing.T) {
	got := InsertReply(sample(), "", node("new"))

	require.Len(t, got, 3)
	assert.Equal(t, "new", got[0].ID)
}

func TestInsertReplyProperty(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	for i := 0; i < 50; i++ {
		tree := randomTree(r, 1+r.IntN(30))
		parent := fmt.Sprintf("n%d", r.IntN(Count(tree)))

		got := InsertReply(tree, parent, node("fresh"))

		p, _ := Find(got, parent)
		require.NotEmpty(t, p.Replies)
		assert.Equal(t, "fresh", p.Replies[len(p.Replies)-1].ID)
		assert.True(t, Equal(Remove(got, "fresh"), tree))
	}
}

func TestEdit(t *testing.T) {
	got := Edit(sample(), "d", "updated text")

	d, _ := Find(got, "d")
	assert.Equal(t, "updated text", d.Content)
	assert.True(t, d.Edited)

	orig, _ := Find(sample(), "d")
	assert.False(t, orig.Edited)
}

func TestReplaceKeepsReplies(t *testing.T) {
	edited := node("b")
	edited.Replies = nil
	edited.Content = "server copy"
	edited.Edited = true

	got := Replace(sample(), edited)

	b, _ := Find(got, "b")
	assert.Equal(t, "server copy", b.Content)
	require.Len(t, b.Replies, 1)
	assert.Equal(t, "d", b.Replies[0].ID)
}

func TestUnknownIDIsNoop(t *testing.T) {
	tree := sample()

	assert.True(t, Equal(tree, ToggleLike(tree, "missing", "u1")))
	assert.True(t, Equal(tree, SetLikeState(tree, "missing", "u1", 9, true)))
	assert.True(t, Equal(tree, Edit(tree, "missing", "x")))
	assert.True(t, Equal(tree, Remove(tree, "missing")))
	assert.True(t, Equal(tree, InsertReply(tree, "missing", node("x"))))
	assert.True(t, Equal(tree, Replace(tree, node("missing"))))
}

func TestDepth(t *testing.T) {
	tree := sample()

	tests := map[string]int{"a": 0, "b": 1, "c": 1, "d": 2, "e": 0}
	for id, want := range tests {
		got, ok := Depth(tree, id)
		assert.True(t, ok, id)
		assert.Equal(t, want, got, id)
	}

	_, ok := Depth(tree, "missing")
	assert.False(t, ok)
}

func TestWalkStopsEarly(t *testing.T) {
	var seen []string
	Walk(sample(), func(c models.Comment, _ int) bool {
		seen = append(seen, c.ID)
		return c.ID != "b"
	})
	assert.Equal(t, []string{"a", "b"}, seen)
}
