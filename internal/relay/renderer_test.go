package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"relaybot/internal/gitlab"
)

func TestRenderBranchPush(t *testing.T) {
	ev := gitlab.PushEvent{
		Ref:     "refs/heads/main",
		Actor:   "alice",
		Project: "group/proj",
		WebURL:  "https://git.example/group/proj",
		Commits: []gitlab.Commit{
			{
				ID:      "0123456789abcdef0123456789abcdef01234567",
				Message: "Fix parser\n\nLong description",
				URL:     "https://git.example/group/proj/-/commit/0123456",
				Added:   2,
				Removed: 1,
			},
			{
				ID:       "89abcdef0123456789abcdef0123456789abcdef",
				Message:  "Update docs\r\nmore",
				URL:      "https://git.example/group/proj/-/commit/89abcde",
				Modified: 3,
			},
		},
	}

	want := "Recent commit to group/proj:main by alice\n" +
		"0123456 Fix parser (2+1-)\n" +
		"89abcde Update docs (3M)\n" +
		"\nhttps://git.example/group/proj/-/commit/0123456"
	assert.Equal(t, want, Render(ev))
}

func TestRenderBranchPushNoCommits(t *testing.T) {
	ev := gitlab.PushEvent{
		Ref:     "refs/heads/main",
		Actor:   "alice",
		Project: "group/proj",
	}

	assert.Equal(t, "Recent commit to group/proj:main by alice", Render(ev))
}

func TestRenderBranchPushAllZeroCounters(t *testing.T) {
	ev := gitlab.PushEvent{
		Ref:     "refs/heads/dev",
		Actor:   "alice",
		Project: "group/proj",
		Commits: []gitlab.Commit{
			{ID: "abc1234", Message: "Merge branch", URL: "https://git.example/c/abc1234"},
		},
	}

	// The parentheses stay even when every counter is zero.
	want := "Recent commit to group/proj:dev by alice\n" +
		"abc1234 Merge branch ()\n" +
		"\nhttps://git.example/c/abc1234"
	assert.Equal(t, want, Render(ev))
}

func TestRenderTagPush(t *testing.T) {
	ev := gitlab.PushEvent{
		Ref:     "refs/tags/v1.0",
		Actor:   "alice",
		Project: "group/proj",
		WebURL:  "https://git.example/group/proj",
	}

	want := "New tag v1.0 on group/proj by alice\n\nhttps://git.example/group/proj/-/tags/v1.0"
	assert.Equal(t, want, Render(ev))
}

func TestRenderOtherRefPush(t *testing.T) {
	ev := gitlab.PushEvent{
		Ref:     "refs/notes/commits",
		Actor:   "alice",
		Project: "group/proj",
	}

	assert.Equal(t, "New refs/notes/commits on group/proj by alice", Render(ev))
}

func TestRenderIssue(t *testing.T) {
	ev := gitlab.IssueEvent{
		Actor:       "bob",
		Project:     "group/proj",
		IID:         42,
		Title:       "Crash on empty input",
		Description: "steps to reproduce",
		URL:         "https://git.example/group/proj/-/issues/42",
		Action:      gitlab.IssueOpen,
	}

	want := "bob opened issue group/proj#42\n" +
		"Crash on empty input\n" +
		"steps to reproduce\n" +
		"\nhttps://git.example/group/proj/-/issues/42"
	assert.Equal(t, want, Render(ev))
}

func TestRenderIssueMissingURLAndDescription(t *testing.T) {
	ev := gitlab.IssueEvent{
		Actor:   "bob",
		Project: "group/proj",
		IID:     42,
		Title:   "Crash on empty input",
		Action:  gitlab.IssueReopen,
	}

	// The description slot stays in place even when empty.
	want := "bob reopened issue group/proj#42\n" +
		"Crash on empty input\n" +
		"\n" +
		"\nFail to fetch issue url, a bug of GitLab?"
	assert.Equal(t, want, Render(ev))
}

func TestRenderIssueKeywords(t *testing.T) {
	tests := []struct {
		action gitlab.IssueAction
		want   string
	}{
		{gitlab.IssueOpen, "opened"},
		{gitlab.IssueUpdate, "updated"},
		{gitlab.IssueClose, "closed"},
		{gitlab.IssueReopen, "reopened"},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			got := Render(gitlab.IssueEvent{Actor: "bob", Project: "p", IID: 1, Action: tt.action})
			assert.Contains(t, got, "bob "+tt.want+" issue p#1")
		})
	}
}

func TestRenderMergeRequest(t *testing.T) {
	ev := gitlab.MergeRequestEvent{
		Actor:   "carol",
		Project: "group/proj",
		IID:     9,
		URL:     "https://git.example/group/proj/-/merge_requests/9",
		Action:  gitlab.MergeRequestMerge,
	}

	want := "carol merged mr group/proj#9\n\nhttps://git.example/group/proj/-/merge_requests/9"
	assert.Equal(t, want, Render(ev))
}

func TestRenderMergeRequestMissingURL(t *testing.T) {
	ev := gitlab.MergeRequestEvent{
		Actor:   "carol",
		Project: "group/proj",
		IID:     9,
		Action:  gitlab.MergeRequestApproved,
	}

	want := "carol approved mr group/proj#9\n\nFail to fetch merge request url, a bug of GitLab?"
	assert.Equal(t, want, Render(ev))
}

func TestRenderNote(t *testing.T) {
	tests := []struct {
		name string
		ev   gitlab.NoteEvent
		want string
	}{
		{
			name: "on commit",
			ev: gitlab.NoteEvent{
				Actor:    "dave",
				Project:  "group/proj",
				Target:   gitlab.NoteOnCommit,
				Note:     "nice",
				URL:      "https://git.example/n/1",
				CommitID: "fedcba9876543210fedcba9876543210fedcba98",
			},
			want: "dave commented on group/proj@fedcba9\nnice\n\nhttps://git.example/n/1",
		},
		{
			name: "on issue",
			ev: gitlab.NoteEvent{
				Actor:     "dave",
				Project:   "group/proj",
				Target:    gitlab.NoteOnIssue,
				Note:      "nice",
				URL:       "https://git.example/n/2",
				TargetIID: 17,
			},
			want: "dave commented on group/proj#17\nnice\n\nhttps://git.example/n/2",
		},
		{
			name: "on merge request",
			ev: gitlab.NoteEvent{
				Actor:     "dave",
				Project:   "group/proj",
				Target:    gitlab.NoteOnMergeRequest,
				Note:      "nice",
				URL:       "https://git.example/n/3",
				TargetIID: 5,
			},
			want: "dave commented on group/proj#5\nnice\n\nhttps://git.example/n/3",
		},
		{
			name: "on snippet",
			ev: gitlab.NoteEvent{
				Actor:        "dave",
				Project:      "group/proj",
				Target:       gitlab.NoteOnSnippet,
				Note:         "nice",
				URL:          "https://git.example/n/4",
				SnippetTitle: "quick sort",
			},
			want: "dave commented on snippet quick sort\nnice\n\nhttps://git.example/n/4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.ev))
		})
	}
}

func TestRenderPlaceholders(t *testing.T) {
	assert.Equal(t, "Unsupported action build", Render(gitlab.BuildEvent{}))
	assert.Equal(t, "Unsupported action pipeline", Render(gitlab.PipelineEvent{}))
	assert.Equal(t, "Unsupported action wiki page", Render(gitlab.WikiPageEvent{}))
}

func TestRenderUnrecognizedPassesReasonThrough(t *testing.T) {
	got := Render(gitlab.UnrecognizedEvent{Reason: "unrecognized event kind \"deployment\""})
	assert.Equal(t, "unrecognized event kind \"deployment\"", got)
}

func TestRenderIsDeterministic(t *testing.T) {
	ev := gitlab.PushEvent{
		Ref:     "refs/heads/main",
		Actor:   "alice",
		Project: "group/proj",
		Commits: []gitlab.Commit{
			{ID: "0123456789abcdef", Message: "one", URL: "https://git.example/c/1", Added: 1},
		},
	}

	assert.Equal(t, Render(ev), Render(ev))
}
