package services

import (
	"context"
	"fmt"

	"pressroom/app/analytics"
	"pressroom/app/api"
	"pressroom/app/models"
)

// DefaultDashboardDays is the chart range when none is asked for.
const DefaultDashboardDays = 30

// Dashboard is the landing page of a role.
type Dashboard struct {
	Role    models.Role       `json:"role"`
	User    models.User       `json:"user"`
	Series  analytics.Series  `json:"series"`
	Summary analytics.Summary `json:"summary"`

	// journalist
	LatestPosts []models.Post `json:"latestPosts,omitempty"`
	Bookmarks   []models.Post `json:"bookmarks,omitempty"`

	// comms
	Releases []models.Release `json:"releases,omitempty"`

	// admin
	PendingReleases []models.Release             `json:"pendingReleases,omitempty"`
	PendingUsers    []models.User                `json:"pendingUsers,omitempty"`
	OpenReports     []models.WhistleblowerReport `json:"openReports,omitempty"`
}

// DashboardAPI is everything a dashboard reads.
type DashboardAPI interface {
	BlogAPI
	AdminAPI
	ReleaseAPI
}

// DashboardService assembles dashboards from API lists and the analytics
// series.
type DashboardService struct {
	api     DashboardAPI
	session Session
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(a DashboardAPI, sess Session) *DashboardService {
	return &DashboardService{api: a, session: sess}
}

// Build returns the dashboard of the cached user's role.
func (s *DashboardService) Build(ctx context.Context, days int) (Dashboard, error) {
	u, err := currentUser(s.session)
	if err != nil {
		return Dashboard{}, err
	}
	if days <= 0 {
		days = DefaultDashboardDays
	}
	series := analytics.Generate(u.Role, days, analytics.Seed(u.ID))
	d := Dashboard{Role: u.Role, User: u, Series: series, Summary: analytics.Summarize(series)}

	switch u.Role {
	case models.RoleJournalist:
		page, err := s.api.Posts(ctx, api.PostQuery{Page: 1, Limit: 5})
		if err != nil {
			return Dashboard{}, fmt.Errorf("latest posts: %w", err)
		}
		d.LatestPosts = page.Posts
		if d.Bookmarks, err = s.api.Bookmarks(ctx); err != nil {
			return Dashboard{}, fmt.Errorf("bookmarks: %w", err)
		}
	case models.RoleComms:
		if d.Releases, err = s.api.MyReleases(ctx); err != nil {
			return Dashboard{}, fmt.Errorf("releases: %w", err)
		}
	case models.RoleAdmin:
		if d.PendingReleases, err = s.api.AdminReleases(ctx, models.ReleasePending); err != nil {
			return Dashboard{}, fmt.Errorf("pending releases: %w", err)
		}
		if d.PendingUsers, err = s.api.Users(ctx, api.UserQuery{Status: models.StatusPending}); err != nil {
			return Dashboard{}, fmt.Errorf("pending users: %w", err)
		}
		reports, err := s.api.WhistleblowerReports(ctx)
		if err != nil {
			return Dashboard{}, fmt.Errorf("reports: %w", err)
		}
		for _, r := range reports {
			if r.Status != models.ReportClosed {
				d.OpenReports = append(d.OpenReports, r)
			}
		}
	}
	return d, nil
}
