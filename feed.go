package main

import (
	"fmt"

	"pressroom/app/api"
	"pressroom/app/models"
	"pressroom/service"

	"github.com/spf13/cobra"
)

var (
	feedPage     int
	feedLimit    int
	feedCategory string
	feedSearch   string

	reportReason  string
	reportDetails string
)

func init() {
	feedListCmd.Flags().IntVar(&feedPage, "page", 1, "Page number")
	feedListCmd.Flags().IntVar(&feedLimit, "limit", 10, "Posts per page")
	feedListCmd.Flags().StringVar(&feedCategory, "category", "", "Filter by category")
	feedListCmd.Flags().StringVar(&feedSearch, "search", "", "Full text search")

	feedReportCmd.Flags().StringVar(&reportReason, "reason", "", "spam, harassment, misinformation, copyright or other (required)")
	feedReportCmd.Flags().StringVar(&reportDetails, "details", "", "Details, required for reason other")

	feedCmd.AddCommand(feedListCmd)
	feedCmd.AddCommand(feedShowCmd)
	feedCmd.AddCommand(feedLikeCmd)
	feedCmd.AddCommand(feedShareCmd)
	feedCmd.AddCommand(feedBookmarkCmd)
	feedCmd.AddCommand(feedBookmarksCmd)
	feedCmd.AddCommand(feedReportCmd)
	rootCmd.AddCommand(feedCmd)
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Browse and engage with blog posts",
}

var feedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts",
	Long: `List posts of the content feed.

Examples:
  pressroom feed list --category politics --limit 20
  pressroom feed list --search election --json`,
	Args: cobra.NoArgs,
	RunE: withApp(runFeedList),
}

var feedShowCmd = &cobra.Command{
	Use:   "show <post-id>",
	Short: "Show a post",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runFeedShow),
}

var feedLikeCmd = &cobra.Command{
	Use:   "like <post-id>",
	Short: "Like or unlike a post",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runFeedLike),
}

var feedShareCmd = &cobra.Command{
	Use:   "share <post-id> <platform>",
	Short: "Record a share",
	Long: `Record that a post was shared.

Platforms: twitter, linkedin, facebook, email, copy.`,
	Args: cobra.ExactArgs(2),
	RunE: withApp(runFeedShare),
}

var feedBookmarkCmd = &cobra.Command{
	Use:   "bookmark <post-id>",
	Short: "Bookmark or unbookmark a post",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runFeedBookmark),
}

var feedBookmarksCmd = &cobra.Command{
	Use:   "bookmarks",
	Short: "List bookmarked posts",
	Args:  cobra.NoArgs,
	RunE:  withApp(runFeedBookmarks),
}

var feedReportCmd = &cobra.Command{
	Use:   "report <post-id>",
	Short: "Report a post to moderators",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runFeedReport),
}

func runFeedList(cmd *cobra.Command, _ []string, a *service.App) error {
	page, err := a.Feed.List(cmd.Context(), api.PostQuery{
		Page:     feedPage,
		Limit:    feedLimit,
		Category: feedCategory,
		Search:   feedSearch,
	})
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, page)
	}
	if len(page.Posts) == 0 {
		say(cmd, "No posts found")
		return nil
	}
	if err := printPosts(cmd, page.Posts); err != nil {
		return err
	}
	say(cmd, "\nPage %d of %d (%d posts)", page.Page, page.TotalPages, page.Total)
	return nil
}

func printPosts(cmd *cobra.Command, posts []models.Post) error {
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tPUBLISHED\tLIKES\tSHARES\tVIEWS")
	for _, p := range posts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			p.ID, truncate(p.Title, 50), orDash(p.Category), day(p.PublishedAt),
			p.LikesCount, p.Shares, p.Views)
	}
	return w.Flush()
}

func runFeedShow(cmd *cobra.Command, args []string, a *service.App) error {
	p, err := a.Feed.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, p)
	}
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintf(w, "Title:\t%s\n", p.Title)
	fmt.Fprintf(w, "Author:\t%s\n", orDash(p.Author.Name))
	fmt.Fprintf(w, "Category:\t%s\n", orDash(p.Category))
	fmt.Fprintf(w, "Published:\t%s\n", day(p.PublishedAt))
	fmt.Fprintf(w, "Engagement:\t%s\n", engagementLine(p.Engagement))
	if err := w.Flush(); err != nil {
		return err
	}
	body := p.Content
	if body == "" {
		body = p.Excerpt
	}
	if body != "" {
		say(cmd, "\n%s", body)
	}
	return nil
}

func engagementLine(e models.Engagement) string {
	s := fmt.Sprintf("%d likes, %d shares, %d views", e.LikesCount, e.Shares, e.Views)
	if e.UserLiked {
		s += ", liked"
	}
	if e.Bookmarked {
		s += ", bookmarked"
	}
	return s
}

// seed loads the post so the optimistic state starts from the server counters.
func seed(cmd *cobra.Command, a *service.App, postID string) error {
	_, err := a.Feed.Get(cmd.Context(), postID)
	return err
}

func printEngagement(cmd *cobra.Command, e models.Engagement, done string) error {
	if outputJSON {
		return printJSON(cmd, e)
	}
	say(cmd, "%s (%s)", done, engagementLine(e))
	return nil
}

func runFeedLike(cmd *cobra.Command, args []string, a *service.App) error {
	if err := seed(cmd, a, args[0]); err != nil {
		return err
	}
	e, err := a.Feed.ToggleLike(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	done := "Unliked"
	if e.UserLiked {
		done = "Liked"
	}
	return printEngagement(cmd, e, done)
}

func runFeedShare(cmd *cobra.Command, args []string, a *service.App) error {
	if err := seed(cmd, a, args[0]); err != nil {
		return err
	}
	e, err := a.Feed.Share(cmd.Context(), args[0], models.SharePlatform(args[1]))
	if err != nil {
		return err
	}
	return printEngagement(cmd, e, "Shared on "+args[1])
}

func runFeedBookmark(cmd *cobra.Command, args []string, a *service.App) error {
	if err := seed(cmd, a, args[0]); err != nil {
		return err
	}
	e, err := a.Feed.ToggleBookmark(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	done := "Bookmark removed"
	if e.Bookmarked {
		done = "Bookmarked"
	}
	return printEngagement(cmd, e, done)
}

func runFeedBookmarks(cmd *cobra.Command, _ []string, a *service.App) error {
	posts, err := a.Feed.Bookmarks(cmd.Context())
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, posts)
	}
	if len(posts) == 0 {
		say(cmd, "No bookmarks")
		return nil
	}
	return printPosts(cmd, posts)
}

func runFeedReport(cmd *cobra.Command, args []string, a *service.App) error {
	err := a.Feed.Report(cmd.Context(), args[0], models.ContentReport{Reason: reportReason, Details: reportDetails})
	if err != nil {
		return err
	}
	say(cmd, "Report submitted")
	return nil
}
