// Package analytics produces the dashboard charts. The portal has no
// analytics backend yet, so the numbers are generated, seeded so the same
// user sees the same chart on every load.
package analytics

import (
	"hash/fnv"
	"math"
	"math/rand/v2"

	"pressroom/app/models"
)

// MaxDays bounds a series.
const MaxDays = 365

// Point is one day of activity. Day 0 is the oldest day of the series.
// Which counters are filled depends on the role.
type Point struct {
	Day      int `json:"day"`
	Views    int `json:"views"`
	Likes    int `json:"likes,omitempty"`
	Shares   int `json:"shares,omitempty"`
	Comments int `json:"comments,omitempty"`
	Pickups  int `json:"pickups,omitempty"`
	Releases int `json:"releases,omitempty"`
	Signups  int `json:"signups,omitempty"`
	Reports  int `json:"reports,omitempty"`
}

// Series is the chart of one role.
type Series struct {
	Role   models.Role `json:"role"`
	Points []Point     `json:"points"`
}

// Seed derives a stable seed from a user id.
func Seed(userID string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(userID))
	return h.Sum64()
}

// Generate returns days points for role. days is clamped to [1, MaxDays].
func Generate(role models.Role, days int, seed uint64) Series {
	days = min(max(days, 1), MaxDays)
	r := rand.New(rand.NewPCG(seed, uint64(len(role))))
	s := Series{Role: role, Points: make([]Point, days)}

	base := 200 + r.IntN(800)
	growth := 0.002 + r.Float64()*0.01
	for d := range days {
		// Weekly cycle with a slow upward trend.
		weekly := 1 + 0.25*math.Sin(2*math.Pi*float64(d)/7)
		trend := math.Pow(1+growth, float64(d))
		noise := 0.85 + r.Float64()*0.3
		views := int(float64(base) * weekly * trend * noise)

		p := Point{Day: d, Views: views}
		switch role {
		case models.RoleJournalist:
			p.Likes = fraction(r, views, 0.04, 0.08)
			p.Shares = fraction(r, views, 0.01, 0.03)
			p.Comments = fraction(r, views, 0.005, 0.02)
		case models.RoleComms:
			p.Pickups = fraction(r, views, 0.002, 0.01)
			p.Shares = fraction(r, views, 0.01, 0.02)
			if r.IntN(4) == 0 {
				p.Releases = 1 + r.IntN(2)
			}
		case models.RoleAdmin:
			p.Signups = fraction(r, views, 0.005, 0.015)
			p.Releases = r.IntN(6)
			if r.IntN(10) == 0 {
				p.Reports = 1
			}
		}
		s.Points[d] = p
	}
	return s
}

func fraction(r *rand.Rand, n int, lo, hi float64) int {
	return int(float64(n) * (lo + r.Float64()*(hi-lo)))
}

// Summary aggregates a series.
type Summary struct {
	Days       int     `json:"days"`
	Total      Point   `json:"total"`
	AvgViews   float64 `json:"avgViews"`
	PeakDay    int     `json:"peakDay"`
	PeakViews  int     `json:"peakViews"`
	Engagement float64 `json:"engagementRate"`
	// Trend is the change in views of the second half against the first,
	// as a fraction.
	Trend float64 `json:"trend"`
}

// Summarize totals s. An empty series gives a zero summary.
func Summarize(s Series) Summary {
	n := len(s.Points)
	if n == 0 {
		return Summary{}
	}
	sum := Summary{Days: n, PeakDay: -1}
	half := n / 2
	var first, second int
	for i, p := range s.Points {
		sum.Total.Views += p.Views
		sum.Total.Likes += p.Likes
		sum.Total.Shares += p.Shares
		sum.Total.Comments += p.Comments
		sum.Total.Pickups += p.Pickups
		sum.Total.Releases += p.Releases
		sum.Total.Signups += p.Signups
		sum.Total.Reports += p.Reports
		if p.Views > sum.PeakViews || sum.PeakDay < 0 {
			sum.PeakDay, sum.PeakViews = p.Day, p.Views
		}
		if i < half {
			first += p.Views
		} else {
			second += p.Views
		}
	}
	sum.AvgViews = float64(sum.Total.Views) / float64(n)
	if sum.Total.Views > 0 {
		sum.Engagement = float64(sum.Total.Likes+sum.Total.Shares+sum.Total.Comments) / float64(sum.Total.Views)
	}
	if half > 0 && first > 0 {
		// Halves differ by one day for odd n; compare daily averages.
		a := float64(first) / float64(half)
		b := float64(second) / float64(n-half)
		sum.Trend = (b - a) / a
	}
	return sum
}
