package format

import (
	"strings"
	"testing"

	"twikitmcp/internal/platform"
)

func intPtr(n int) *int { return &n }

func TestPostsMinimal(t *testing.T) {
	got := Posts([]platform.Post{{
		User:      platform.User{ScreenName: "alice"},
		CreatedAt: "2024-01-01",
		Text:      "hello",
	}})

	want := "### @alice\n**2024-01-01**\nhello\n---"
	if got != want {
		t.Fatalf("Posts() =\n%s\nwant\n%s", got, want)
	}
	if strings.Contains(got, "♻️") || strings.Contains(got, "![media]") {
		t.Error("unexpected engagement or media line")
	}
}

func TestPostsFull(t *testing.T) {
	got := Posts([]platform.Post{
		{
			User:          platform.User{ScreenName: "bob"},
			CreatedAt:     "Mon Jan 01 00:00:00 +0000 2024",
			Text:          "look",
			RetweetCount:  intPtr(2),
			FavoriteCount: intPtr(10),
			Media:         []platform.Media{{URL: "https://img/1.jpg"}, {URL: "https://img/2.jpg"}},
		},
		{User: platform.User{ScreenName: "carol"}, CreatedAt: "t", Text: "second"},
	})

	want := strings.Join([]string{
		"### @bob",
		"**Mon Jan 01 00:00:00 +0000 2024**",
		"look",
		"♻️ 2 🧡 10",
		"![media](https://img/1.jpg)",
		"![media](https://img/2.jpg)",
		"---",
		"### @carol",
		"**t**",
		"second",
		"---",
	}, "\n")
	if got != want {
		t.Fatalf("Posts() =\n%s\nwant\n%s", got, want)
	}
}

func TestPostsPartialEngagementOmitted(t *testing.T) {
	got := Posts([]platform.Post{{User: platform.User{ScreenName: "a"}, Text: "x", RetweetCount: intPtr(1)}})
	if strings.Contains(got, "♻️") {
		t.Errorf("engagement line needs both counts: %q", got)
	}
}

func TestPostsEmpty(t *testing.T) {
	if got := Posts(nil); got != "" {
		t.Errorf("Posts(nil) = %q", got)
	}
}

func TestThread(t *testing.T) {
	main := platform.Post{User: platform.User{ScreenName: "alice"}, CreatedAt: "d", Text: "root"}

	got := Thread(main, nil)
	if !strings.HasPrefix(got, "## Main post\n### @alice") || !strings.HasSuffix(got, "## Replies\n*No replies*") {
		t.Errorf("Thread without replies =\n%s", got)
	}

	got = Thread(main, []platform.Post{{User: platform.User{ScreenName: "bob"}, CreatedAt: "d", Text: "re"}})
	if !strings.Contains(got, "## Replies\n### @bob\n**d**\nre\n---") {
		t.Errorf("Thread with replies =\n%s", got)
	}
}
