// Package events models the supported GitHub webhook payloads as a closed set
// of typed variants, one per event kind. Each variant carries only the fields
// that kind guarantees; consumers dispatch on the concrete type instead of
// probing optional fields at runtime.
package events

// Kind identifies one supported GitHub webhook event kind.
type Kind string

const (
	KindPullRequest              Kind = "pull_request"
	KindIssues                   Kind = "issues"
	KindPush                     Kind = "push"
	KindRelease                  Kind = "release"
	KindWorkflowRun              Kind = "workflow_run"
	KindIssueComment             Kind = "issue_comment"
	KindPullRequestReview        Kind = "pull_request_review"
	KindPullRequestReviewComment Kind = "pull_request_review_comment"
	KindCreate                   Kind = "create"
	KindDelete                   Kind = "delete"
	KindFork                     Kind = "fork"
	KindWatch                    Kind = "watch"
)

// Event is implemented by every typed webhook payload variant.
type Event interface {
	Kind() Kind
	Repo() Repository
}

// Repository is the repository block every GitHub webhook payload carries.
type Repository struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
	Owner         User   `json:"owner"`
}

// User is a GitHub account reference.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	HTMLURL   string `json:"html_url"`
	AvatarURL string `json:"avatar_url"`
	Type      string `json:"type"`
}

// Branch is the head/base block of a pull request.
type Branch struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// PullRequest is the pull_request block shared by several event kinds.
type PullRequest struct {
	ID        int64  `json:"id"`
	Number    int    `json:"number"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	State     string `json:"state"`
	Merged    bool   `json:"merged"`
	Draft     bool   `json:"draft"`
	HTMLURL   string `json:"html_url"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	Head      Branch `json:"head"`
	Base      Branch `json:"base"`
	User      User   `json:"user"`
}

// IssuePRRef is present on an issue block only when the "issue" is actually
// the conversation side of a pull request. Its presence is the PR-linkage
// marker for issue_comment routing.
type IssuePRRef struct {
	URL     string `json:"url"`
	HTMLURL string `json:"html_url"`
}

// Issue is the issue block of issues and issue_comment payloads.
type Issue struct {
	ID          int64       `json:"id"`
	Number      int         `json:"number"`
	Title       string      `json:"title"`
	Body        string      `json:"body"`
	State       string      `json:"state"`
	HTMLURL     string      `json:"html_url"`
	CreatedAt   string      `json:"created_at"`
	UpdatedAt   string      `json:"updated_at"`
	User        User        `json:"user"`
	PullRequest *IssuePRRef `json:"pull_request"`
}

// Comment is a conversation comment on an issue or pull request.
type Comment struct {
	ID        int64  `json:"id"`
	Body      string `json:"body"`
	HTMLURL   string `json:"html_url"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	User      User   `json:"user"`
}

// ReviewComment is an inline code-review comment on a pull request diff.
type ReviewComment struct {
	ID                  int64  `json:"id"`
	Body                string `json:"body"`
	Path                string `json:"path"`
	Line                int    `json:"line"`
	HTMLURL             string `json:"html_url"`
	CreatedAt           string `json:"created_at"`
	UpdatedAt           string `json:"updated_at"`
	InReplyToID         *int64 `json:"in_reply_to_id"`
	PullRequestReviewID int64  `json:"pull_request_review_id"`
	User                User   `json:"user"`
}

// Review is a submitted pull request review.
type Review struct {
	ID          int64  `json:"id"`
	Body        string `json:"body"`
	State       string `json:"state"`
	HTMLURL     string `json:"html_url"`
	SubmittedAt string `json:"submitted_at"`
	User        User   `json:"user"`
}

// Commit is one commit of a push payload.
type Commit struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	URL     string `json:"url"`
	Author  struct {
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"author"`
}

// Release is the release block of a release payload.
type Release struct {
	ID        int64  `json:"id"`
	TagName   string `json:"tag_name"`
	Name      string `json:"name"`
	Body      string `json:"body"`
	HTMLURL   string `json:"html_url"`
	Draft     bool   `json:"draft"`
	Prerelease bool  `json:"prerelease"`
	Author    User   `json:"author"`
}

// WorkflowRun is the workflow_run block of a CI payload.
type WorkflowRun struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	HeadBranch string `json:"head_branch"`
	HeadSHA    string `json:"head_sha"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	HTMLURL    string `json:"html_url"`
	RunNumber  int    `json:"run_number"`
}

// PullRequestEvent is a pull_request payload.
type PullRequestEvent struct {
	Action      string      `json:"action"`
	Number      int         `json:"number"`
	PullRequest PullRequest `json:"pull_request"`
	Repository  Repository  `json:"repository"`
	Sender      User        `json:"sender"`
}

func (e *PullRequestEvent) Kind() Kind       { return KindPullRequest }
func (e *PullRequestEvent) Repo() Repository { return e.Repository }

// IssuesEvent is an issues payload.
type IssuesEvent struct {
	Action     string     `json:"action"`
	Issue      Issue      `json:"issue"`
	Repository Repository `json:"repository"`
	Sender     User       `json:"sender"`
}

func (e *IssuesEvent) Kind() Kind       { return KindIssues }
func (e *IssuesEvent) Repo() Repository { return e.Repository }

// PushEvent is a push payload. Ref is the full git ref, e.g. refs/heads/main.
type PushEvent struct {
	Ref        string     `json:"ref"`
	Before     string     `json:"before"`
	After      string     `json:"after"`
	Commits    []Commit   `json:"commits"`
	Forced     bool       `json:"forced"`
	Compare    string     `json:"compare"`
	Repository Repository `json:"repository"`
	Pusher     struct {
		Name string `json:"name"`
	} `json:"pusher"`
	Sender User `json:"sender"`
}

func (e *PushEvent) Kind() Kind       { return KindPush }
func (e *PushEvent) Repo() Repository { return e.Repository }

// ReleaseEvent is a release payload.
type ReleaseEvent struct {
	Action     string     `json:"action"`
	Release    Release    `json:"release"`
	Repository Repository `json:"repository"`
	Sender     User       `json:"sender"`
}

func (e *ReleaseEvent) Kind() Kind       { return KindRelease }
func (e *ReleaseEvent) Repo() Repository { return e.Repository }

// WorkflowRunEvent is a workflow_run payload.
type WorkflowRunEvent struct {
	Action      string      `json:"action"`
	WorkflowRun WorkflowRun `json:"workflow_run"`
	Repository  Repository  `json:"repository"`
	Sender      User        `json:"sender"`
}

func (e *WorkflowRunEvent) Kind() Kind       { return KindWorkflowRun }
func (e *WorkflowRunEvent) Repo() Repository { return e.Repository }

// IssueCommentEvent is an issue_comment payload. GitHub emits this kind for
// conversation comments on both issues and pull requests; IsOnPullRequest
// distinguishes the two.
type IssueCommentEvent struct {
	Action     string     `json:"action"`
	Issue      Issue      `json:"issue"`
	Comment    Comment    `json:"comment"`
	Repository Repository `json:"repository"`
	Sender     User       `json:"sender"`
}

func (e *IssueCommentEvent) Kind() Kind       { return KindIssueComment }
func (e *IssueCommentEvent) Repo() Repository { return e.Repository }

// IsOnPullRequest reports whether the comment landed on a pull request's
// conversation rather than a plain issue.
func (e *IssueCommentEvent) IsOnPullRequest() bool {
	return e.Issue.PullRequest != nil
}

// PullRequestReviewEvent is a pull_request_review payload.
type PullRequestReviewEvent struct {
	Action      string      `json:"action"`
	Review      Review      `json:"review"`
	PullRequest PullRequest `json:"pull_request"`
	Repository  Repository  `json:"repository"`
	Sender      User        `json:"sender"`
}

func (e *PullRequestReviewEvent) Kind() Kind       { return KindPullRequestReview }
func (e *PullRequestReviewEvent) Repo() Repository { return e.Repository }

// PullRequestReviewCommentEvent is a pull_request_review_comment payload.
type PullRequestReviewCommentEvent struct {
	Action      string        `json:"action"`
	Comment     ReviewComment `json:"comment"`
	PullRequest PullRequest   `json:"pull_request"`
	Repository  Repository    `json:"repository"`
	Sender      User          `json:"sender"`
}

func (e *PullRequestReviewCommentEvent) Kind() Kind       { return KindPullRequestReviewComment }
func (e *PullRequestReviewCommentEvent) Repo() Repository { return e.Repository }

// CreateEvent is a create payload (branch or tag created). RefType is
// "branch" or "tag".
type CreateEvent struct {
	Ref        string     `json:"ref"`
	RefType    string     `json:"ref_type"`
	Repository Repository `json:"repository"`
	Sender     User       `json:"sender"`
}

func (e *CreateEvent) Kind() Kind       { return KindCreate }
func (e *CreateEvent) Repo() Repository { return e.Repository }

// DeleteEvent is a delete payload (branch or tag deleted).
type DeleteEvent struct {
	Ref        string     `json:"ref"`
	RefType    string     `json:"ref_type"`
	Repository Repository `json:"repository"`
	Sender     User       `json:"sender"`
}

func (e *DeleteEvent) Kind() Kind       { return KindDelete }
func (e *DeleteEvent) Repo() Repository { return e.Repository }

// ForkEvent is a fork payload.
type ForkEvent struct {
	Forkee     Repository `json:"forkee"`
	Repository Repository `json:"repository"`
	Sender     User       `json:"sender"`
}

func (e *ForkEvent) Kind() Kind       { return KindFork }
func (e *ForkEvent) Repo() Repository { return e.Repository }

// WatchEvent is a watch payload (GitHub fires it when a user stars a repo).
type WatchEvent struct {
	Action     string     `json:"action"`
	Repository Repository `json:"repository"`
	Sender     User       `json:"sender"`
}

func (e *WatchEvent) Kind() Kind       { return KindWatch }
func (e *WatchEvent) Repo() Repository { return e.Repository }
