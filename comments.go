package main

import (
	"fmt"
	"io"
	"strings"

	"pressroom/app/commenttree"
	"pressroom/app/models"
	"pressroom/app/services"
	"pressroom/service"

	"github.com/spf13/cobra"
)

var (
	commentParent     string
	commentGuestName  string
	commentGuestEmail string
)

func init() {
	commentsAddCmd.Flags().StringVar(&commentParent, "reply-to", "", "Reply to this comment id")
	commentsAddCmd.Flags().StringVar(&commentGuestName, "guest-name", "", "Post as a guest with this name")
	commentsAddCmd.Flags().StringVar(&commentGuestEmail, "guest-email", "", "Guest email")

	commentsCmd.AddCommand(commentsListCmd)
	commentsCmd.AddCommand(commentsAddCmd)
	commentsCmd.AddCommand(commentsEditCmd)
	commentsCmd.AddCommand(commentsDeleteCmd)
	commentsCmd.AddCommand(commentsLikeCmd)
	rootCmd.AddCommand(commentsCmd)
}

var commentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "Read and write comment threads",
}

var commentsListCmd = &cobra.Command{
	Use:   "list <post-id>",
	Short: "Show the comment thread of a post",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runCommentsList),
}

var commentsAddCmd = &cobra.Command{
	Use:   "add <post-id> <content>",
	Short: "Add a comment or reply",
	Long: `Add a comment to a post, or a reply with --reply-to.

Examples:
  pressroom comments add p1 "Great piece"
  pressroom comments add p1 "Agreed" --reply-to c7
  pressroom comments add p1 "Hello" --guest-name Sam --guest-email sam@example.com`,
	Args: cobra.ExactArgs(2),
	RunE: withApp(runCommentsAdd),
}

var commentsEditCmd = &cobra.Command{
	Use:   "edit <post-id> <comment-id> <content>",
	Short: "Edit one of your comments",
	Args:  cobra.ExactArgs(3),
	RunE:  withApp(runCommentsEdit),
}

var commentsDeleteCmd = &cobra.Command{
	Use:   "delete <post-id> <comment-id>",
	Short: "Delete a comment and its replies",
	Args:  cobra.ExactArgs(2),
	RunE:  withApp(runCommentsDelete),
}

var commentsLikeCmd = &cobra.Command{
	Use:   "like <post-id> <comment-id>",
	Short: "Like or unlike a comment",
	Args:  cobra.ExactArgs(2),
	RunE:  withApp(runCommentsLike),
}

func runCommentsList(cmd *cobra.Command, args []string, a *service.App) error {
	tree, err := a.Comments.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printThread(cmd, tree)
}

func printThread(cmd *cobra.Command, tree commenttree.Tree) error {
	if outputJSON {
		return printJSON(cmd, map[string]any{"comments": tree, "count": commenttree.Count(tree)})
	}
	if len(tree) == 0 {
		say(cmd, "No comments yet")
		return nil
	}
	writeThread(cmd.OutOrStdout(), tree)
	return nil
}

func writeThread(w io.Writer, tree commenttree.Tree) {
	commenttree.Walk(tree, func(c models.Comment, depth int) bool {
		indent := strings.Repeat("  ", depth)
		edited := ""
		if c.Edited {
			edited = " (edited)"
		}
		fmt.Fprintf(w, "%s[%s] %s: %s%s  ♥ %d\n", indent, c.ID, authorName(c.Author), truncate(c.Content, 80), edited, c.LikesCount)
		return true
	})
}

func authorName(a models.Author) string {
	switch {
	case a.Name != "":
		return a.Name
	case a.GuestName != "":
		return a.GuestName + " (guest)"
	}
	return "anonymous"
}

func runCommentsAdd(cmd *cobra.Command, args []string, a *service.App) error {
	var guest *services.Guest
	if commentGuestName != "" || commentGuestEmail != "" {
		guest = &services.Guest{Name: commentGuestName, Email: commentGuestEmail}
	}
	c, err := a.Comments.Add(cmd.Context(), args[0], commentParent, args[1], guest)
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, c)
	}
	say(cmd, "Comment %s added", c.ID)
	return nil
}

func runCommentsEdit(cmd *cobra.Command, args []string, a *service.App) error {
	c, err := a.Comments.Edit(cmd.Context(), args[0], args[1], args[2])
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, c)
	}
	say(cmd, "Comment %s updated", c.ID)
	return nil
}

func runCommentsDelete(cmd *cobra.Command, args []string, a *service.App) error {
	if err := a.Comments.Delete(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	say(cmd, "Comment %s deleted", args[1])
	return nil
}

func runCommentsLike(cmd *cobra.Command, args []string, a *service.App) error {
	tree, err := a.Comments.ToggleLike(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	c, _ := commenttree.Find(tree, args[1])
	if outputJSON {
		return printJSON(cmd, c)
	}
	done := "Unliked"
	if c.UserLiked {
		done = "Liked"
	}
	say(cmd, "%s comment %s (%d likes)", done, c.ID, c.LikesCount)
	return nil
}
