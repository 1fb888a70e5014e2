package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pressroom/app/api"
	"pressroom/app/models"
	"pressroom/app/services"
	"pressroom/service"

	"github.com/spf13/cobra"
)

var (
	usersRole       string
	usersStatus     string
	releasesStatus  string
	rejectionReason string

	relTitle    string
	relSummary  string
	relBody     string
	relBodyFile string
	relOrg      string
	relEmbargo  string

	dashboardDays int
)

func init() {
	adminUsersCmd.Flags().StringVar(&usersRole, "role", "", "Filter by role")
	adminUsersCmd.Flags().StringVar(&usersStatus, "status", "", "Filter by status")
	adminReleasesCmd.Flags().StringVar(&releasesStatus, "status", models.ReleasePending, "Filter by status, empty for all")
	adminReleaseStatusCmd.Flags().StringVar(&rejectionReason, "reason", "", "Reason shown to the author, required to reject")

	adminCmd.AddCommand(adminUsersCmd)
	adminCmd.AddCommand(adminUserStatusCmd)
	adminCmd.AddCommand(adminReleasesCmd)
	adminCmd.AddCommand(adminReleaseStatusCmd)
	adminCmd.AddCommand(adminReportsCmd)
	adminCmd.AddCommand(adminReportStatusCmd)
	adminCmd.AddCommand(adminUploadCmd)

	releasesCreateCmd.Flags().StringVar(&relTitle, "title", "", "Release title (required)")
	releasesCreateCmd.Flags().StringVar(&relSummary, "summary", "", "Short summary")
	releasesCreateCmd.Flags().StringVar(&relBody, "body", "", "Release body")
	releasesCreateCmd.Flags().StringVar(&relBodyFile, "body-file", "", "Read the body from a file")
	releasesCreateCmd.Flags().StringVar(&relOrg, "organization", "", "Issuing organization (defaults to yours)")
	releasesCreateCmd.Flags().StringVar(&relEmbargo, "embargo", "", "Embargo until, RFC 3339")

	releasesCmd.AddCommand(releasesMineCmd)
	releasesCmd.AddCommand(releasesCreateCmd)

	dashboardCmd.Flags().IntVar(&dashboardDays, "days", services.DefaultDashboardDays, "Days of analytics")

	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(releasesCmd)
	rootCmd.AddCommand(dashboardCmd)
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Moderate users, releases and reports",
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE:  withApp(runAdminUsers),
}

var adminUserStatusCmd = &cobra.Command{
	Use:   "user-status <user-id> <status>",
	Short: "Set a user status: active, pending, suspended or inactive",
	Args:  cobra.ExactArgs(2),
	RunE:  withApp(runAdminUserStatus),
}

var adminReleasesCmd = &cobra.Command{
	Use:   "releases",
	Short: "List press releases awaiting review",
	Args:  cobra.NoArgs,
	RunE:  withApp(runAdminReleases),
}

var adminReleaseStatusCmd = &cobra.Command{
	Use:   "release-status <release-id> <approved|rejected|published>",
	Short: "Approve, reject or publish a release",
	Long: `Move a release through review. A release must be approved before it
can be published, and a rejection needs a reason.

Examples:
  pressroom admin release-status r1 approved
  pressroom admin release-status r2 rejected --reason "Missing contact details"
  pressroom admin release-status r1 published`,
	Args: cobra.ExactArgs(2),
	RunE: withApp(runAdminReleaseStatus),
}

var adminReportsCmd = &cobra.Command{
	Use:   "whistleblower",
	Short: "List whistleblower reports",
	Args:  cobra.NoArgs,
	RunE:  withApp(runAdminReports),
}

var adminReportStatusCmd = &cobra.Command{
	Use:   "whistleblower-status <report-id> <status>",
	Short: "Set a report status: new, reviewing, escalated or closed",
	Args:  cobra.ExactArgs(2),
	RunE:  withApp(runAdminReportStatus),
}

var adminUploadCmd = &cobra.Command{
	Use:   "upload <releases|journalists> <file.csv>",
	Short: "Bulk upload releases or journalists from CSV",
	Long: `Validate a CSV file row by row and upload the rows that pass.
Rejected rows are listed with their line number.

Examples:
  pressroom admin upload journalists contacts.csv
  pressroom admin upload releases q3.csv --json`,
	Args: cobra.ExactArgs(2),
	RunE: withApp(runAdminUpload),
}

var releasesCmd = &cobra.Command{
	Use:   "releases",
	Short: "Manage your press releases",
}

var releasesMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your releases",
	Args:  cobra.NoArgs,
	RunE:  withApp(runReleasesMine),
}

var releasesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Submit a press release for review",
	Long: `Submit a press release for review.

Examples:
  pressroom releases create --title "Q3 results" --body-file q3.md
  pressroom releases create --title "Launch" --body "..." --embargo 2026-11-01T09:00:00Z`,
	Args: cobra.NoArgs,
	RunE: withApp(runReleasesCreate),
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the dashboard for your role",
	Args:  cobra.NoArgs,
	RunE:  withApp(runDashboard),
}

func runAdminUsers(cmd *cobra.Command, _ []string, a *service.App) error {
	users, err := a.Admin.Users(cmd.Context(), api.UserQuery{Role: models.Role(usersRole), Status: usersStatus})
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, users)
	}
	if len(users) == 0 {
		say(cmd, "No users found")
		return nil
	}
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tSTATUS\tVERIFIED\tORGANIZATION")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
			u.ID, u.Email, orDash(strings.TrimSpace(u.FirstName+" "+u.LastName)),
			u.Role, orDash(u.Status), u.IsVerified, orDash(u.Organization))
	}
	return w.Flush()
}

func runAdminUserStatus(cmd *cobra.Command, args []string, a *service.App) error {
	u, err := a.Admin.SetUserStatus(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, u)
	}
	say(cmd, "User %s is now %s", u.Email, u.Status)
	return nil
}

func runAdminReleases(cmd *cobra.Command, _ []string, a *service.App) error {
	rels, err := a.Admin.Releases(cmd.Context(), releasesStatus)
	if err != nil {
		return err
	}
	return printReleases(cmd, rels)
}

func printReleases(cmd *cobra.Command, rels []models.Release) error {
	if outputJSON {
		return printJSON(cmd, rels)
	}
	if len(rels) == 0 {
		say(cmd, "No releases found")
		return nil
	}
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tTITLE\tORGANIZATION\tSTATUS\tEMBARGO\tCREATED")
	for _, r := range rels {
		embargo := "-"
		if r.EmbargoAt != nil {
			embargo = r.EmbargoAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, truncate(r.Title, 40), orDash(r.Organization), orDash(r.Status), embargo, day(r.CreatedAt))
	}
	return w.Flush()
}

func runAdminReleaseStatus(cmd *cobra.Command, args []string, a *service.App) error {
	var (
		rel models.Release
		err error
	)
	switch args[1] {
	case models.ReleaseApproved:
		rel, err = a.Admin.Approve(cmd.Context(), args[0])
	case models.ReleaseRejected:
		rel, err = a.Admin.Reject(cmd.Context(), args[0], rejectionReason)
	case models.ReleasePublished:
		rel, err = a.Admin.Publish(cmd.Context(), args[0])
	default:
		return fmt.Errorf("unknown release status %q: use approved, rejected or published", args[1])
	}
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, rel)
	}
	say(cmd, "Release %s is now %s", rel.ID, rel.Status)
	return nil
}

func runAdminReports(cmd *cobra.Command, _ []string, a *service.App) error {
	reports, err := a.Admin.Reports(cmd.Context())
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, reports)
	}
	if len(reports) == 0 {
		say(cmd, "No reports")
		return nil
	}
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tSUBJECT\tSTATUS\tANONYMOUS\tRECEIVED")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", r.ID, truncate(r.Subject, 50), r.Status, r.Anonymous, day(r.CreatedAt))
	}
	return w.Flush()
}

func runAdminReportStatus(cmd *cobra.Command, args []string, a *service.App) error {
	r, err := a.Admin.SetReportStatus(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, r)
	}
	say(cmd, "Report %s is now %s", r.ID, r.Status)
	return nil
}

func runAdminUpload(cmd *cobra.Command, args []string, a *service.App) error {
	f, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[1], err)
	}
	defer f.Close()

	res, err := a.Admin.Upload(cmd.Context(), args[0], filepath.Base(args[1]), f)
	if err != nil && !errors.Is(err, services.ErrNothingToUpload) {
		return err
	}
	if outputJSON {
		if jerr := printJSON(cmd, res); jerr != nil {
			return jerr
		}
		return err
	}
	if len(res.Rejected) > 0 {
		w := newTable(cmd.OutOrStdout())
		fmt.Fprintln(w, "LINE\tFIELD\tERROR")
		for _, r := range res.Rejected {
			fmt.Fprintf(w, "%d\t%s\t%s\n", r.Line, orDash(r.Field), r.Message)
		}
		if ferr := w.Flush(); ferr != nil {
			return ferr
		}
	}
	if err != nil {
		return err
	}
	say(cmd, "Uploaded %d rows: %d created, %d failed, %d rejected locally",
		res.Sent, res.Server.Created, res.Server.Failed, len(res.Rejected))
	for _, e := range res.Server.Errors {
		say(cmd, "  %s", e)
	}
	return nil
}

func runReleasesMine(cmd *cobra.Command, _ []string, a *service.App) error {
	rels, err := a.Releases.Mine(cmd.Context())
	if err != nil {
		return err
	}
	return printReleases(cmd, rels)
}

func runReleasesCreate(cmd *cobra.Command, _ []string, a *service.App) error {
	body := relBody
	if relBodyFile != "" {
		data, err := os.ReadFile(relBodyFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", relBodyFile, err)
		}
		body = string(data)
	}
	rel := models.Release{Title: relTitle, Summary: relSummary, Body: body, Organization: relOrg}
	if relEmbargo != "" {
		t, err := time.Parse(time.RFC3339, relEmbargo)
		if err != nil {
			return fmt.Errorf("invalid --embargo: %w", err)
		}
		rel.EmbargoAt = &t
	}
	created, err := a.Releases.Create(cmd.Context(), rel)
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, created)
	}
	say(cmd, "Release %s submitted (%s)", created.ID, created.Status)
	return nil
}

func runDashboard(cmd *cobra.Command, _ []string, a *service.App) error {
	d, err := a.Dashboard.Build(cmd.Context(), dashboardDays)
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, d)
	}
	out := cmd.OutOrStdout()
	w := newTable(out)
	fmt.Fprintf(w, "User:\t%s (%s)\n", d.User.Email, d.Role)
	fmt.Fprintf(w, "Period:\t%d days\n", d.Summary.Days)
	fmt.Fprintf(w, "Views:\t%d (avg %.1f/day, peak %d on day %d)\n",
		d.Summary.Total.Views, d.Summary.AvgViews, d.Summary.PeakViews, d.Summary.PeakDay)
	fmt.Fprintf(w, "Engagement:\t%.1f%%\n", d.Summary.Engagement*100)
	fmt.Fprintf(w, "Trend:\t%+.1f%%\n", d.Summary.Trend*100)
	if err := w.Flush(); err != nil {
		return err
	}

	switch d.Role {
	case models.RoleJournalist:
		if len(d.LatestPosts) > 0 {
			say(cmd, "\nLatest posts")
			if err := printPosts(cmd, d.LatestPosts); err != nil {
				return err
			}
		}
		say(cmd, "\n%d bookmarks", len(d.Bookmarks))
	case models.RoleComms:
		say(cmd, "\nYour releases")
		return printReleases(cmd, d.Releases)
	case models.RoleAdmin:
		say(cmd, "\nPending releases: %d", len(d.PendingReleases))
		say(cmd, "Pending users: %d", len(d.PendingUsers))
		say(cmd, "Open reports: %d", len(d.OpenReports))
	}
	return nil
}
