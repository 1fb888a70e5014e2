package services

import (
	"context"
	"strings"
	"testing"

	"pressroom/app/api"
	"pressroom/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const releasesUpload = `title,summary,body,organization,embargo_at
Quarterly results,,Revenue grew by twelve percent this quarter.,Acme,
Hi,,Too short a title for anyone to read.,Acme,
`

func TestAdminUploadSendsCleanRows(t *testing.T) {
	e := newEnv(t)
	e.loginAs(t, models.RoleAdmin)
	svc := NewAdminService(e.client, e.logger)

	res, err := svc.Upload(context.Background(), api.BulkReleases, "releases.csv", strings.NewReader(releasesUpload))

	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 3, res.Rejected[0].Line)
	assert.Equal(t, "title", res.Rejected[0].Field)
	assert.Equal(t, 1, res.Server.Created)

	sent := string(e.srv.Upload(api.BulkReleases))
	assert.Contains(t, sent, "Quarterly results")
	assert.NotContains(t, sent, "Hi,")
}

func TestAdminUploadNothingValid(t *testing.T) {
	e := newEnv(t)
	e.loginAs(t, models.RoleAdmin)
	svc := NewAdminService(e.client, e.logger)

	res, err := svc.Upload(context.Background(), api.BulkJournalists, "j.csv",
		strings.NewReader("email,first_name,last_name,outlet\nnot-an-email,A,B,C\n"))

	assert.ErrorIs(t, err, ErrNothingToUpload)
	assert.Len(t, res.Rejected, 1)
	assert.Zero(t, e.srv.Hits("POST /bulk/{kind:releases|journalists}"))
}

func TestAdminUploadBadInput(t *testing.T) {
	e := newEnv(t)
	svc := NewAdminService(e.client, e.logger)

	_, err := svc.Upload(context.Background(), "posts", "x.csv", strings.NewReader("a\n1\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.Upload(context.Background(), api.BulkReleases, "x.csv", strings.NewReader("title\nHello\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestAdminReleaseWorkflow(t *testing.T) {
	e := newEnv(t)
	e.loginAs(t, models.RoleAdmin)
	svc := NewAdminService(e.client, e.logger)
	a := e.srv.AddRelease(models.Release{Title: "Launch day", Body: strings.Repeat("x", 30), Organization: "Acme"})
	b := e.srv.AddRelease(models.Release{Title: "Recall notice", Body: strings.Repeat("y", 30), Organization: "Acme"})

	pending, err := svc.Releases(context.Background(), models.ReleasePending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, err = svc.Reject(context.Background(), b.ID, "")
	assert.ErrorIs(t, err, ErrInvalid)
	rel, err := svc.Reject(context.Background(), b.ID, "missing contact details")
	require.NoError(t, err)
	assert.Equal(t, models.ReleaseRejected, rel.Status)

	_, err = svc.Publish(context.Background(), a.ID)
	assert.ErrorIs(t, err, api.ErrConflict)

	_, err = svc.Approve(context.Background(), a.ID)
	require.NoError(t, err)
	rel, err = svc.Publish(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReleasePublished, rel.Status)
}

func TestAdminUsers(t *testing.T) {
	e := newEnv(t)
	e.loginAs(t, models.RoleAdmin)
	j := e.srv.AddUser(models.User{Email: "j@example.com", Role: models.RoleJournalist, Status: models.StatusPending}, "pa55word")
	svc := NewAdminService(e.client, e.logger)

	users, err := svc.Users(context.Background(), api.UserQuery{Role: models.RoleJournalist})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, j.ID, users[0].ID)

	_, err = svc.Users(context.Background(), api.UserQuery{Role: "editor"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.SetUserStatus(context.Background(), j.ID, "banned")
	assert.ErrorIs(t, err, ErrInvalid)
	u, err := svc.SetUserStatus(context.Background(), j.ID, models.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, u.Status)
}

func TestAdminReports(t *testing.T) {
	e := newEnv(t)
	e.loginAs(t, models.RoleAdmin)
	r := e.srv.AddReport(models.WhistleblowerReport{Subject: "Invoices", Details: "backdated"})
	svc := NewAdminService(e.client, e.logger)

	_, err := svc.SetReportStatus(context.Background(), r.ID, "ignored")
	assert.ErrorIs(t, err, ErrInvalid)

	got, err := svc.SetReportStatus(context.Background(), r.ID, models.ReportEscalated)
	require.NoError(t, err)
	assert.Equal(t, models.ReportEscalated, got.Status)

	reports, err := svc.Reports(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, models.ReportEscalated, reports[0].Status)
}

func TestAdminNeedsAdminRole(t *testing.T) {
	e := newEnv(t)
	e.loginAs(t, models.RoleComms)
	svc := NewAdminService(e.client, e.logger)

	_, err := svc.Reports(context.Background())
	assert.ErrorIs(t, err, api.ErrForbidden)
}
