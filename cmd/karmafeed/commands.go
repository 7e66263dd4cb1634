package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"karmafeed/internal/models"
	"karmafeed/internal/services"
	"karmafeed/internal/utils"
)

var replyParent string // parent comment id for reply; empty posts a top-level comment

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "List the feed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, p := range a.Feed.Posts() {
			printPost(out, p)
		}
		return nil
	},
}

var threadCmd = &cobra.Command{
	Use:   "thread <post-id>",
	Short: "Show the comment thread of a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		forest, err := a.Thread.Open(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printThread(cmd.OutOrStdout(), forest)
		return nil
	},
}

var postCmd = &cobra.Command{
	Use:   "post <content>",
	Short: "Publish a post",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		if err := a.Feed.CreatePost(cmd.Context(), strings.Join(args, " ")); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "posted")
		return nil
	},
}

var replyCmd = &cobra.Command{
	Use:   "reply <post-id> <content>",
	Short: "Comment on a post, or reply to a comment with --parent",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		forest, err := a.Thread.Reply(cmd.Context(), args[0], replyParent, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		printThread(cmd.OutOrStdout(), forest)
		return nil
	},
}

var likeCmd = &cobra.Command{
	Use:   "like <post-id>",
	Short: "Toggle your like on a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		p, err := a.Feed.LikePost(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		a.Leaderboard.Wait()
		printPost(cmd.OutOrStdout(), p)
		if a.Feed.Diverged(p.ID) {
			fmt.Fprintln(cmd.OutOrStdout(), "  (server state differs, run feed to see it)")
		}
		return nil
	},
}

var likeCommentCmd = &cobra.Command{
	Use:   "like-comment <post-id> <comment-id>",
	Short: "Toggle your like on a comment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		if _, err := a.Thread.Open(cmd.Context(), args[0]); err != nil {
			return err
		}
		if _, err := a.Thread.LikeComment(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		a.Leaderboard.Wait()
		forest, _ := a.Thread.Comments(args[0])
		printThread(cmd.OutOrStdout(), forest)
		return nil
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the top users by karma earned in the last 24h",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		a.Leaderboard.Wait()
		out := cmd.OutOrStdout()
		users := a.Leaderboard.Users()
		if len(users) == 0 {
			fmt.Fprintln(out, "no karma earned in the last 24h")
		}
		for i, u := range users {
			fmt.Fprintf(out, "%d. %-20s %5d recent %6d total\n", i+1, u.Username, u.RecentKarma, u.TotalKarma)
		}
		return nil
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the current user and their karma",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		a.Leaderboard.Wait()
		printKarma(cmd.OutOrStdout(), a.Session.Karma())
		return nil
	},
}

func init() {
	replyCmd.Flags().StringVar(&replyParent, "parent", "", "comment id to reply to")
}

func printPost(w io.Writer, p *models.Post) {
	mark := " "
	if p.IsLiked {
		mark = "♥"
	}
	fmt.Fprintf(w, "[%s] %s %s · %s · %s %s\n", p.ID, mark, p.Author.Username,
		utils.Pluralize(p.LikesCount, "like"), utils.Pluralize(p.CommentsCount, "comment"),
		p.CreatedAt.Format("2006-01-02 15:04"))
	for _, line := range strings.Split(p.Content, "\n") {
		fmt.Fprintf(w, "    %s\n", line)
	}
}

func printThread(w io.Writer, forest []models.Comment) {
	if len(forest) == 0 {
		fmt.Fprintln(w, "no comments yet")
		return
	}
	models.Walk(forest, func(c *models.Comment, depth int) bool {
		indent := strings.Repeat("  ", depth)
		mark := " "
		if c.IsLiked {
			mark = "♥"
		}
		fmt.Fprintf(w, "%s[%s] %s %s (%s): %s\n", indent, c.ID, mark, c.Author.Username,
			utils.Pluralize(c.LikesCount, "like"), c.Content)
		return true
	})
}

func printKarma(w io.Writer, k services.Karma) {
	fmt.Fprintf(w, "%s %s (%s)\n", k.TierIcon, k.Username, k.Tier)
	fmt.Fprintf(w, "  total karma:  %d\n", k.Total)
	fmt.Fprintf(w, "  last 24h:     %d\n", k.Recent)
	if k.Guest {
		fmt.Fprintln(w, "  not logged in; set KARMAFEED_USERNAME and KARMAFEED_PASSWORD")
	}
}
