// Package format renders typed GitHub events into chat message text. Every
// formatter is a pure function of (payload, threadReply); all threading
// decisions stay in the delivery coordinator. An empty return value means the
// action produces no visible message.
package format

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gitnotify/internal/events"
)

const maxPushCommits = 5

// PullRequestAnchor renders the summary message for a pull request. The same
// renderer serves the initial "opened" message and every in-place refresh, so
// it always reflects the PR's current state.
func PullRequestAnchor(ev *events.PullRequestEvent, threadReply bool) string {
	pr := ev.PullRequest

	state := pr.State
	switch {
	case pr.Merged:
		state = "merged"
	case pr.Draft && pr.State == "open":
		state = "draft"
	}

	if threadReply {
		return fmt.Sprintf("PR #%d (%s): %s", pr.Number, state, pr.Title)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**[%s] Pull request #%d: %s** (%s)\n", ev.Repository.FullName, pr.Number, pr.Title, state)
	fmt.Fprintf(&b, "%s → %s, opened by %s\n", pr.Head.Ref, pr.Base.Ref, pr.User.Login)
	if pr.Body != "" {
		fmt.Fprintf(&b, "> %s\n", firstLine(pr.Body))
	}
	b.WriteString(pr.HTMLURL)
	return b.String()
}

// IssueAnchor renders the summary message for an issue.
func IssueAnchor(ev *events.IssuesEvent, threadReply bool) string {
	issue := ev.Issue

	if threadReply {
		return fmt.Sprintf("Issue #%d (%s): %s", issue.Number, issue.State, issue.Title)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**[%s] Issue #%d: %s** (%s)\n", ev.Repository.FullName, issue.Number, issue.Title, issue.State)
	fmt.Fprintf(&b, "Opened by %s\n", issue.User.Login)
	if issue.Body != "" {
		fmt.Fprintf(&b, "> %s\n", firstLine(issue.Body))
	}
	b.WriteString(issue.HTMLURL)
	return b.String()
}

// Push renders a push notification. Pushes with no commits (branch
// force-resets, mirror syncs) produce no message.
func Push(ev *events.PushEvent, threadReply bool) string {
	if len(ev.Commits) == 0 {
		return ""
	}

	branch := strings.TrimPrefix(ev.Ref, "refs/heads/")
	plural := "commits"
	if len(ev.Commits) == 1 {
		plural = "commit"
	}

	var b strings.Builder
	if threadReply {
		fmt.Fprintf(&b, "%s pushed %d %s to %s", ev.Pusher.Name, len(ev.Commits), plural, branch)
		return b.String()
	}

	fmt.Fprintf(&b, "**[%s]** %s pushed %d %s to `%s`\n", ev.Repository.FullName, ev.Pusher.Name, len(ev.Commits), plural, branch)
	for i, commit := range ev.Commits {
		if i == maxPushCommits {
			fmt.Fprintf(&b, "… and %d more\n", len(ev.Commits)-maxPushCommits)
			break
		}
		fmt.Fprintf(&b, "- `%s` %s\n", shortSHA(commit.ID), firstLine(commit.Message))
	}
	if ev.Compare != "" {
		b.WriteString(ev.Compare)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Release renders a published-release notification.
func Release(ev *events.ReleaseEvent, threadReply bool) string {
	rel := ev.Release

	name := rel.Name
	if name == "" {
		name = rel.TagName
	}

	if threadReply {
		return fmt.Sprintf("Release %s published", name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**[%s] Release %s published** by %s\n", ev.Repository.FullName, name, rel.Author.Login)
	if rel.Body != "" {
		fmt.Fprintf(&b, "> %s\n", firstLine(rel.Body))
	}
	b.WriteString(rel.HTMLURL)
	return b.String()
}

// WorkflowRun renders a completed CI run. Runs that finished without a
// conclusion produce no message.
func WorkflowRun(ev *events.WorkflowRunEvent, threadReply bool) string {
	run := ev.WorkflowRun
	if run.Conclusion == "" {
		return ""
	}

	icon := "❌"
	if run.Conclusion == "success" {
		icon = "✅"
	}

	if threadReply {
		return fmt.Sprintf("%s %s #%d: %s", icon, run.Name, run.RunNumber, run.Conclusion)
	}

	return fmt.Sprintf("%s **[%s]** %s #%d on `%s`: %s\n%s",
		icon, ev.Repository.FullName, run.Name, run.RunNumber, run.HeadBranch, run.Conclusion, run.HTMLURL)
}

// IssueComment renders a conversation comment on an issue or PR.
func IssueComment(ev *events.IssueCommentEvent, threadReply bool) string {
	target := "issue"
	if ev.IsOnPullRequest() {
		target = "PR"
	}

	if threadReply {
		return fmt.Sprintf("💬 %s: %s", ev.Comment.User.Login, firstLine(ev.Comment.Body))
	}

	return fmt.Sprintf("💬 **[%s]** %s commented on %s #%d: %s\n%s",
		ev.Repository.FullName, ev.Comment.User.Login, target, ev.Issue.Number,
		firstLine(ev.Comment.Body), ev.Comment.HTMLURL)
}

// Review renders a submitted PR review. Bare "commented" reviews with no body
// carry each inline comment as its own event, so they produce no message of
// their own.
func Review(ev *events.PullRequestReviewEvent, threadReply bool) string {
	review := ev.Review
	if review.Body == "" && review.State == "commented" {
		return ""
	}

	verb := review.State
	switch review.State {
	case "approved":
		verb = "✅ approved"
	case "changes_requested":
		verb = "🔁 requested changes on"
	case "commented":
		verb = "💬 reviewed"
	}

	if threadReply {
		text := fmt.Sprintf("%s %s", review.User.Login, verb)
		if review.Body != "" {
			text += ": " + firstLine(review.Body)
		}
		return text
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**[%s]** %s %s PR #%d\n", ev.Repository.FullName, review.User.Login, verb, ev.PullRequest.Number)
	if review.Body != "" {
		fmt.Fprintf(&b, "> %s\n", firstLine(review.Body))
	}
	b.WriteString(review.HTMLURL)
	return b.String()
}

// ReviewComment renders an inline code-review comment.
func ReviewComment(ev *events.PullRequestReviewCommentEvent, threadReply bool) string {
	comment := ev.Comment

	if threadReply {
		return fmt.Sprintf("📝 %s on `%s`: %s", comment.User.Login, comment.Path, firstLine(comment.Body))
	}

	return fmt.Sprintf("📝 **[%s]** %s commented on `%s` in PR #%d: %s\n%s",
		ev.Repository.FullName, comment.User.Login, comment.Path, ev.PullRequest.Number,
		firstLine(comment.Body), comment.HTMLURL)
}

// BranchCreated renders a branch-creation notification.
func BranchCreated(ev *events.CreateEvent, threadReply bool) string {
	if threadReply {
		return fmt.Sprintf("Branch `%s` created by %s", ev.Ref, ev.Sender.Login)
	}
	return fmt.Sprintf("🌱 **[%s]** %s created branch `%s`", ev.Repository.FullName, ev.Sender.Login, ev.Ref)
}

// BranchDeleted renders a branch-deletion notification.
func BranchDeleted(ev *events.DeleteEvent, threadReply bool) string {
	if threadReply {
		return fmt.Sprintf("Branch `%s` deleted by %s", ev.Ref, ev.Sender.Login)
	}
	return fmt.Sprintf("🗑️ **[%s]** %s deleted branch `%s`", ev.Repository.FullName, ev.Sender.Login, ev.Ref)
}

// Fork renders a repository-forked notification.
func Fork(ev *events.ForkEvent, threadReply bool) string {
	if threadReply {
		return fmt.Sprintf("Forked by %s", ev.Sender.Login)
	}
	return fmt.Sprintf("🍴 **[%s]** forked by %s → %s", ev.Repository.FullName, ev.Sender.Login, ev.Forkee.FullName)
}

// Star renders a repository-starred notification.
func Star(ev *events.WatchEvent, threadReply bool) string {
	if threadReply {
		return fmt.Sprintf("Starred by %s", ev.Sender.Login)
	}
	return fmt.Sprintf("⭐ **[%s]** starred by %s", ev.Repository.FullName, ev.Sender.Login)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	const maxLen = 200
	if len(s) > maxLen {
		// Back off to a rune boundary so the cut never splits a multibyte
		// character.
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "…"
	}
	return s
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
