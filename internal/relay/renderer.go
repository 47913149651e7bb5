// Package relay implements the event-translation pipeline: the renderer
// turns a parsed GitLab event into notification text, and the dispatcher
// authenticates inbound webhook requests, drives the renderer, and hands
// the result to the OneBot client.
package relay

import (
	"fmt"
	"strings"

	"relaybot/internal/gitlab"
)

const (
	branchRefPrefix = "refs/heads/"
	tagRefPrefix    = "refs/tags/"

	// GitLab omits the URL on some issue and merge request payloads; the
	// rendered message calls that out instead of failing.
	issueURLFallback        = "Fail to fetch issue url, a bug of GitLab?"
	mergeRequestURLFallback = "Fail to fetch merge request url, a bug of GitLab?"
)

// Render produces the outbound message body for an event. It is a pure
// function over the event value: deterministic, no I/O, total over the
// closed variant set. Every variant renders to something, so an
// authenticated, well-formed request always results in a message.
func Render(event gitlab.Event) string {
	switch ev := event.(type) {
	case gitlab.PushEvent:
		return renderPush(ev)
	case gitlab.IssueEvent:
		return renderIssue(ev)
	case gitlab.MergeRequestEvent:
		return renderMergeRequest(ev)
	case gitlab.NoteEvent:
		return renderNote(ev)
	case gitlab.BuildEvent:
		return "Unsupported action build"
	case gitlab.PipelineEvent:
		return "Unsupported action pipeline"
	case gitlab.WikiPageEvent:
		return "Unsupported action wiki page"
	case gitlab.UnrecognizedEvent:
		return ev.Reason
	default:
		// The variant set is closed; a new Event implementation must be
		// given a template here before it can exist.
		return fmt.Sprintf("Unsupported event %s", event.Kind())
	}
}

func renderPush(ev gitlab.PushEvent) string {
	switch {
	case strings.HasPrefix(ev.Ref, branchRefPrefix):
		return renderBranchPush(ev, strings.TrimPrefix(ev.Ref, branchRefPrefix))
	case strings.HasPrefix(ev.Ref, tagRefPrefix):
		tag := strings.TrimPrefix(ev.Ref, tagRefPrefix)
		return fmt.Sprintf("New tag %s on %s by %s\n\n%s/-/tags/%s",
			tag, ev.Project, ev.Actor, ev.WebURL, tag)
	default:
		return fmt.Sprintf("New %s on %s by %s", ev.Ref, ev.Project, ev.Actor)
	}
}

func renderBranchPush(ev gitlab.PushEvent, branch string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recent commit to %s:%s by %s", ev.Project, branch, ev.Actor)

	for _, commit := range ev.Commits {
		fmt.Fprintf(&b, "\n%s %s (%s)",
			shortCommitID(commit.ID),
			firstLine(commit.Message),
			changeSummary(commit),
		)
	}

	if len(ev.Commits) > 0 {
		fmt.Fprintf(&b, "\n\n%s", ev.Commits[0].URL)
	}

	return b.String()
}

// changeSummary formats the per-commit file change counters as "<a>+<m>M<r>-",
// omitting any counter that is zero. Counters concatenate with no separator,
// so two added, one removed renders "2+1-".
func changeSummary(commit gitlab.Commit) string {
	var b strings.Builder
	if commit.Added > 0 {
		fmt.Fprintf(&b, "%d+", commit.Added)
	}
	if commit.Modified > 0 {
		fmt.Fprintf(&b, "%dM", commit.Modified)
	}
	if commit.Removed > 0 {
		fmt.Fprintf(&b, "%d-", commit.Removed)
	}
	return b.String()
}

func renderIssue(ev gitlab.IssueEvent) string {
	url := ev.URL
	if url == "" {
		url = issueURLFallback
	}
	return fmt.Sprintf("%s %s issue %s#%d\n%s\n%s\n\n%s",
		ev.Actor, issueKeyword(ev.Action), ev.Project, ev.IID,
		ev.Title, ev.Description, url)
}

func renderMergeRequest(ev gitlab.MergeRequestEvent) string {
	url := ev.URL
	if url == "" {
		url = mergeRequestURLFallback
	}
	return fmt.Sprintf("%s %s mr %s#%d\n\n%s",
		ev.Actor, mergeRequestKeyword(ev.Action), ev.Project, ev.IID, url)
}

func renderNote(ev gitlab.NoteEvent) string {
	var subject string
	switch ev.Target {
	case gitlab.NoteOnCommit:
		subject = fmt.Sprintf("%s@%s", ev.Project, shortCommitID(ev.CommitID))
	case gitlab.NoteOnIssue, gitlab.NoteOnMergeRequest:
		subject = fmt.Sprintf("%s#%d", ev.Project, ev.TargetIID)
	case gitlab.NoteOnSnippet:
		subject = fmt.Sprintf("snippet %s", ev.SnippetTitle)
	}
	return fmt.Sprintf("%s commented on %s\n%s\n\n%s", ev.Actor, subject, ev.Note, ev.URL)
}

// issueKeyword maps an issue action to its past-tense message keyword.
func issueKeyword(action gitlab.IssueAction) string {
	switch action {
	case gitlab.IssueUpdate:
		return "updated"
	case gitlab.IssueOpen:
		return "opened"
	case gitlab.IssueClose:
		return "closed"
	case gitlab.IssueReopen:
		return "reopened"
	}
	return string(action)
}

// mergeRequestKeyword maps a merge request action to its past-tense keyword.
func mergeRequestKeyword(action gitlab.MergeRequestAction) string {
	switch action {
	case gitlab.MergeRequestUpdate:
		return "updated"
	case gitlab.MergeRequestOpen:
		return "opened"
	case gitlab.MergeRequestClose:
		return "closed"
	case gitlab.MergeRequestReopen:
		return "reopened"
	case gitlab.MergeRequestApproved:
		return "approved"
	case gitlab.MergeRequestUnapproved:
		return "unapproved"
	case gitlab.MergeRequestMerge:
		return "merged"
	}
	return string(action)
}

// shortCommitID returns the 7-character abbreviated commit SHA used in
// rendered summaries. Shorter inputs pass through unchanged.
func shortCommitID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}

// firstLine returns the commit message up to the first line break, with a
// trailing carriage return stripped.
func firstLine(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	return strings.TrimSuffix(line, "\r")
}
