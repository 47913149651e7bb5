// Package gitlab models the inbound GitLab webhook payload as a closed set
// of event variants. The envelope's object_kind field discriminates the
// variant; each variant carries only the fields the message renderer needs.
//
// Events are transient: they are constructed from the raw request body and
// consumed within the same request.
package gitlab

// Event is the tagged union over inbound webhook payload kinds. The set of
// implementations is closed; the renderer matches exhaustively and the
// Unrecognized variant guarantees a parse failure still yields a message.
type Event interface {
	// Kind returns the envelope discriminator value for logging.
	Kind() string

	isEvent()
}

// Commit is one commit entry from a push payload. Added, Modified, and
// Removed are file counts, not paths.
type Commit struct {
	ID       string
	Message  string
	URL      string
	Added    int
	Modified int
	Removed  int
}

// PushEvent covers both branch pushes and tag pushes; the Ref prefix decides
// how it renders.
type PushEvent struct {
	Ref     string
	Actor   string
	Project string // namespaced project path, e.g. "group/proj"
	WebURL  string // project web URL, no trailing slash
	Commits []Commit
}

// IssueAction is a recognized issue lifecycle action.
type IssueAction string

const (
	IssueOpen   IssueAction = "open"
	IssueUpdate IssueAction = "update"
	IssueClose  IssueAction = "close"
	IssueReopen IssueAction = "reopen"
)

// IssueEvent is an issue lifecycle notification.
type IssueEvent struct {
	Actor       string
	Project     string
	IID         int64
	Title       string
	Description string // empty when GitLab sent none
	URL         string // empty when GitLab sent none
	Action      IssueAction
}

// MergeRequestAction is a recognized merge request lifecycle action.
type MergeRequestAction string

const (
	MergeRequestOpen       MergeRequestAction = "open"
	MergeRequestUpdate     MergeRequestAction = "update"
	MergeRequestClose      MergeRequestAction = "close"
	MergeRequestReopen     MergeRequestAction = "reopen"
	MergeRequestApproved   MergeRequestAction = "approved"
	MergeRequestUnapproved MergeRequestAction = "unapproved"
	MergeRequestMerge      MergeRequestAction = "merge"
)

// MergeRequestEvent is a merge request lifecycle notification.
type MergeRequestEvent struct {
	Actor   string
	Project string
	IID     int64
	URL     string // empty when GitLab sent none
	Action  MergeRequestAction
}

// NoteTarget identifies what a comment was left on.
type NoteTarget string

const (
	NoteOnCommit       NoteTarget = "Commit"
	NoteOnIssue        NoteTarget = "Issue"
	NoteOnMergeRequest NoteTarget = "MergeRequest"
	NoteOnSnippet      NoteTarget = "Snippet"
)

// NoteEvent is a comment notification. Exactly one of CommitID, TargetIID,
// or SnippetTitle is meaningful, selected by Target.
type NoteEvent struct {
	Actor        string
	Project      string
	Target       NoteTarget
	Note         string
	URL          string
	CommitID     string // full commit SHA, Target == NoteOnCommit
	TargetIID    int64  // issue or MR iid, Target == NoteOnIssue / NoteOnMergeRequest
	SnippetTitle string // Target == NoteOnSnippet
}

// BuildEvent, PipelineEvent, and WikiPageEvent are recognized but not
// translated; they render as a fixed "Unsupported action" placeholder and
// are still delivered.
type BuildEvent struct{}

type PipelineEvent struct{}

type WikiPageEvent struct{}

// UnrecognizedEvent carries the diagnostic text of a payload that could not
// be parsed. It renders as-is so the failure is visible in the chat target.
type UnrecognizedEvent struct {
	Reason string
}

func (PushEvent) Kind() string         { return "push" }
func (IssueEvent) Kind() string        { return "issue" }
func (MergeRequestEvent) Kind() string { return "merge_request" }
func (NoteEvent) Kind() string         { return "note" }
func (BuildEvent) Kind() string        { return "build" }
func (PipelineEvent) Kind() string     { return "pipeline" }
func (WikiPageEvent) Kind() string     { return "wiki_page" }
func (UnrecognizedEvent) Kind() string { return "unrecognized" }

func (PushEvent) isEvent()         {}
func (IssueEvent) isEvent()        {}
func (MergeRequestEvent) isEvent() {}
func (NoteEvent) isEvent()         {}
func (BuildEvent) isEvent()        {}
func (PipelineEvent) isEvent()     {}
func (WikiPageEvent) isEvent()     {}
func (UnrecognizedEvent) isEvent() {}
