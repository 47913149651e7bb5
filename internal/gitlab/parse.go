package gitlab

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Semantic errors: the payload parsed as a recognized event kind, but its
// lifecycle action is outside the known set. The dispatcher turns these into
// a 400 without attempting delivery; every other parse failure is rendered
// and delivered as a diagnostic.
var (
	ErrUnknownIssueAction        = errors.New("unknown issue action")
	ErrUnknownMergeRequestAction = errors.New("unknown mr action")
)

// Wire-level structs mirror the subset of the GitLab webhook JSON the relay
// consumes. They stay local to the parser; the rest of the code sees only
// the Event variants.

type wireEnvelope struct {
	ObjectKind string `json:"object_kind"`
}

type wireUser struct {
	Username string `json:"username"`
}

type wireProject struct {
	PathWithNamespace string `json:"path_with_namespace"`
	WebURL            string `json:"web_url"`
}

type wireCommit struct {
	ID       string   `json:"id"`
	Message  string   `json:"message"`
	URL      string   `json:"url"`
	Added    []string `json:"added"`
	Modified []string `json:"modified"`
	Removed  []string `json:"removed"`
}

type wirePushHook struct {
	Ref          string       `json:"ref"`
	UserUsername string       `json:"user_username"`
	Project      wireProject  `json:"project"`
	Commits      []wireCommit `json:"commits"`
}

type wireIssueAttributes struct {
	IID         int64   `json:"iid"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
	Action      string  `json:"action"`
}

type wireIssueHook struct {
	User             wireUser            `json:"user"`
	Project          wireProject         `json:"project"`
	ObjectAttributes wireIssueAttributes `json:"object_attributes"`
}

type wireMergeRequestAttributes struct {
	IID    int64   `json:"iid"`
	URL    *string `json:"url"`
	Action string  `json:"action"`
}

type wireMergeRequestHook struct {
	User             wireUser                   `json:"user"`
	Project          wireProject                `json:"project"`
	ObjectAttributes wireMergeRequestAttributes `json:"object_attributes"`
}

type wireNoteAttributes struct {
	Note         string  `json:"note"`
	NoteableType string  `json:"noteable_type"`
	URL          string  `json:"url"`
	CommitID     *string `json:"commit_id"`
}

type wireNoteRef struct {
	IID int64 `json:"iid"`
}

type wireSnippet struct {
	Title string `json:"title"`
}

type wireNoteHook struct {
	User             wireUser           `json:"user"`
	Project          wireProject        `json:"project"`
	ObjectAttributes wireNoteAttributes `json:"object_attributes"`
	Issue            *wireNoteRef       `json:"issue"`
	MergeRequest     *wireNoteRef       `json:"merge_request"`
	Snippet          *wireSnippet       `json:"snippet"`
}

// Parse deserializes a webhook request body into an Event.
//
// The error return distinguishes three cases for the dispatcher:
//   - nil: a fully recognized event.
//   - ErrUnknownIssueAction / ErrUnknownMergeRequestAction (via errors.Is):
//     recognized kind, unrecognized action. No Event is returned.
//   - anything else: the envelope itself was not understood. No Event is
//     returned; the caller wraps the error text in an UnrecognizedEvent so
//     the diagnostic still reaches the chat target.
func Parse(body []byte) (Event, error) {
	var env wireEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding event envelope: %w", err)
	}

	switch env.ObjectKind {
	case "push", "tag_push":
		return parsePush(body)
	case "issue":
		return parseIssue(body)
	case "merge_request":
		return parseMergeRequest(body)
	case "note":
		return parseNote(body)
	case "build":
		return BuildEvent{}, nil
	case "pipeline":
		return PipelineEvent{}, nil
	case "wiki_page":
		return WikiPageEvent{}, nil
	case "":
		return nil, errors.New("event envelope is missing object_kind")
	default:
		return nil, fmt.Errorf("unrecognized event kind %q", env.ObjectKind)
	}
}

func parsePush(body []byte) (Event, error) {
	var hook wirePushHook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, fmt.Errorf("decoding push event: %w", err)
	}

	commits := make([]Commit, 0, len(hook.Commits))
	for _, c := range hook.Commits {
		commits = append(commits, Commit{
			ID:       c.ID,
			Message:  c.Message,
			URL:      c.URL,
			Added:    len(c.Added),
			Modified: len(c.Modified),
			Removed:  len(c.Removed),
		})
	}

	return PushEvent{
		Ref:     hook.Ref,
		Actor:   hook.UserUsername,
		Project: hook.Project.PathWithNamespace,
		WebURL:  hook.Project.WebURL,
		Commits: commits,
	}, nil
}

func parseIssue(body []byte) (Event, error) {
	var hook wireIssueHook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, fmt.Errorf("decoding issue event: %w", err)
	}

	action, ok := issueAction(hook.ObjectAttributes.Action)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIssueAction, hook.ObjectAttributes.Action)
	}

	return IssueEvent{
		Actor:       hook.User.Username,
		Project:     hook.Project.PathWithNamespace,
		IID:         hook.ObjectAttributes.IID,
		Title:       hook.ObjectAttributes.Title,
		Description: deref(hook.ObjectAttributes.Description),
		URL:         deref(hook.ObjectAttributes.URL),
		Action:      action,
	}, nil
}

func parseMergeRequest(body []byte) (Event, error) {
	var hook wireMergeRequestHook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, fmt.Errorf("decoding merge request event: %w", err)
	}

	action, ok := mergeRequestAction(hook.ObjectAttributes.Action)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMergeRequestAction, hook.ObjectAttributes.Action)
	}

	return MergeRequestEvent{
		Actor:   hook.User.Username,
		Project: hook.Project.PathWithNamespace,
		IID:     hook.ObjectAttributes.IID,
		URL:     deref(hook.ObjectAttributes.URL),
		Action:  action,
	}, nil
}

func parseNote(body []byte) (Event, error) {
	var hook wireNoteHook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, fmt.Errorf("decoding note event: %w", err)
	}

	ev := NoteEvent{
		Actor:   hook.User.Username,
		Project: hook.Project.PathWithNamespace,
		Note:    hook.ObjectAttributes.Note,
		URL:     hook.ObjectAttributes.URL,
	}

	switch NoteTarget(hook.ObjectAttributes.NoteableType) {
	case NoteOnCommit:
		ev.Target = NoteOnCommit
		ev.CommitID = deref(hook.ObjectAttributes.CommitID)
	case NoteOnIssue:
		ev.Target = NoteOnIssue
		if hook.Issue != nil {
			ev.TargetIID = hook.Issue.IID
		}
	case NoteOnMergeRequest:
		ev.Target = NoteOnMergeRequest
		if hook.MergeRequest != nil {
			ev.TargetIID = hook.MergeRequest.IID
		}
	case NoteOnSnippet:
		ev.Target = NoteOnSnippet
		if hook.Snippet != nil {
			ev.SnippetTitle = hook.Snippet.Title
		}
	default:
		return nil, fmt.Errorf("unrecognized note target %q", hook.ObjectAttributes.NoteableType)
	}

	return ev, nil
}

func issueAction(raw string) (IssueAction, bool) {
	switch a := IssueAction(raw); a {
	case IssueOpen, IssueUpdate, IssueClose, IssueReopen:
		return a, true
	default:
		return "", false
	}
}

func mergeRequestAction(raw string) (MergeRequestAction, bool) {
	switch a := MergeRequestAction(raw); a {
	case MergeRequestOpen, MergeRequestUpdate, MergeRequestClose, MergeRequestReopen,
		MergeRequestApproved, MergeRequestUnapproved, MergeRequestMerge:
		return a, true
	default:
		return "", false
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
