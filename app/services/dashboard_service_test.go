package services

import (
	"context"
	"strings"
	"testing"

	"pressroom/app/analytics"
	"pressroom/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardJournalist(t *testing.T) {
	e := newEnv(t)
	e.loginAs(t, models.RoleJournalist)
	for _, title := range []string{"One story", "Two story", "Red story"} {
		e.srv.AddPost(models.Post{Title: title})
	}
	svc := NewDashboardService(e.client, e.sess)

	d, err := svc.Build(context.Background(), 0)

	require.NoError(t, err)
	assert.Equal(t, models.RoleJournalist, d.Role)
	assert.Len(t, d.LatestPosts, 3)
	assert.Empty(t, d.Bookmarks)
	assert.Len(t, d.Series.Points, DefaultDashboardDays)
	assert.Equal(t, analytics.Summarize(d.Series), d.Summary)
}

func TestDashboardIsStablePerUser(t *testing.T) {
	e := newEnv(t)
	e.loginAs(t, models.RoleComms)
	svc := NewDashboardService(e.client, e.sess)

	a, err := svc.Build(context.Background(), 7)
	require.NoError(t, err)
	b, err := svc.Build(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, a.Series, b.Series)
	assert.Len(t, a.Series.Points, 7)
}

func TestDashboardAdmin(t *testing.T) {
	e := newEnv(t)
	e.loginAs(t, models.RoleAdmin)
	e.srv.AddUser(models.User{Email: "wait@example.com", Role: models.RoleComms, Status: models.StatusPending}, "pa55word")
	e.srv.AddRelease(models.Release{Title: "Pending one", Body: strings.Repeat("x", 30), Organization: "Acme"})
	e.srv.AddRelease(models.Release{Title: "Approved one", Body: strings.Repeat("x", 30), Organization: "Acme", Status: models.ReleaseApproved})
	e.srv.AddReport(models.WhistleblowerReport{Subject: "open"})
	e.srv.AddReport(models.WhistleblowerReport{Subject: "done", Status: models.ReportClosed})
	svc := NewDashboardService(e.client, e.sess)

	d, err := svc.Build(context.Background(), 14)

	require.NoError(t, err)
	require.Len(t, d.PendingReleases, 1)
	assert.Equal(t, "Pending one", d.PendingReleases[0].Title)
	require.Len(t, d.PendingUsers, 1)
	assert.Equal(t, "wait@example.com", d.PendingUsers[0].Email)
	require.Len(t, d.OpenReports, 1)
	assert.Equal(t, "open", d.OpenReports[0].Subject)
}

func TestDashboardNeedsLogin(t *testing.T) {
	e := newEnv(t)
	_, err := NewDashboardService(e.client, e.sess).Build(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}
