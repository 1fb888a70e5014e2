package analytics

import (
	"testing"

	"pressroom/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIsDeterministic(t *testing.T) {
	a := Generate(models.RoleJournalist, 30, 42)
	b := Generate(models.RoleJournalist, 30, 42)
	c := Generate(models.RoleJournalist, 30, 43)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestGenerateClampsDays(t *testing.T) {
	assert.Len(t, Generate(models.RoleAdmin, 0, 1).Points, 1)
	assert.Len(t, Generate(models.RoleAdmin, -5, 1).Points, 1)
	assert.Len(t, Generate(models.RoleAdmin, 10_000, 1).Points, MaxDays)
}

func TestGenerateFillsRoleCounters(t *testing.T) {
	tests := []struct {
		role  models.Role
		check func(Point) bool
		never func(Point) bool
	}{
		{models.RoleJournalist, func(p Point) bool { return p.Likes > 0 }, func(p Point) bool { return p.Signups > 0 || p.Pickups > 0 }},
		{models.RoleComms, func(p Point) bool { return p.Shares > 0 }, func(p Point) bool { return p.Likes > 0 || p.Signups > 0 }},
		{models.RoleAdmin, func(p Point) bool { return p.Signups > 0 || p.Releases > 0 }, func(p Point) bool { return p.Likes > 0 || p.Pickups > 0 }},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			s := Generate(tt.role, 60, 7)
			seen := false
			for i, p := range s.Points {
				assert.Equal(t, i, p.Day)
				assert.Positive(t, p.Views)
				assert.False(t, tt.never(p))
				seen = seen || tt.check(p)
			}
			assert.True(t, seen)
		})
	}
}

func TestSummarize(t *testing.T) {
	s := Series{Role: models.RoleJournalist, Points: []Point{
		{Day: 0, Views: 100, Likes: 10},
		{Day: 1, Views: 300, Likes: 20, Shares: 10},
		{Day: 2, Views: 200},
		{Day: 3, Views: 400, Comments: 20},
	}}

	sum := Summarize(s)

	assert.Equal(t, 4, sum.Days)
	assert.Equal(t, 1000, sum.Total.Views)
	assert.Equal(t, 30, sum.Total.Likes)
	assert.InDelta(t, 250, sum.AvgViews, 1e-9)
	assert.Equal(t, 3, sum.PeakDay)
	assert.Equal(t, 400, sum.PeakViews)
	assert.InDelta(t, 0.06, sum.Engagement, 1e-9)
	// First half averages 200 a day, second half 300.
	assert.InDelta(t, 0.5, sum.Trend, 1e-9)
}

func TestSummarizeEdges(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(Series{}))

	one := Summarize(Series{Points: []Point{{Day: 0, Views: 5}}})
	assert.Equal(t, 1, one.Days)
	assert.Equal(t, 0, one.PeakDay)
	assert.Zero(t, one.Trend)
}

func TestSeedIsStable(t *testing.T) {
	require.Equal(t, Seed("u1"), Seed("u1"))
	assert.NotEqual(t, Seed("u1"), Seed("u2"))
}
