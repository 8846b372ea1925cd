// Package format renders platform posts as markdown for tool results.
package format

import (
	"fmt"
	"strings"

	"twikitmcp/internal/constants"
	"twikitmcp/internal/platform"
)

const separator = "---"

// Posts renders each post as a block of handle, timestamp, body, optional
// engagement counts, optional media links and a separator line.
func Posts(posts []platform.Post) string {
	lines := make([]string, 0, len(posts)*5)
	for _, p := range posts {
		lines = appendPost(lines, p)
	}
	return strings.Join(lines, "\n")
}

func appendPost(lines []string, p platform.Post) []string {
	lines = append(lines,
		fmt.Sprintf("### @%s", p.User.ScreenName),
		fmt.Sprintf("**%s**", p.CreatedAt),
		p.Text,
	)
	if p.RetweetCount != nil && p.FavoriteCount != nil {
		lines = append(lines, fmt.Sprintf("♻️ %d 🧡 %d", *p.RetweetCount, *p.FavoriteCount))
	}
	for _, m := range p.Media {
		lines = append(lines, fmt.Sprintf("![media](%s)", m.URL))
	}
	return append(lines, separator)
}

// Thread renders a post followed by its replies.
func Thread(main platform.Post, replies []platform.Post) string {
	var b strings.Builder
	b.WriteString("## Main post\n")
	b.WriteString(Posts([]platform.Post{main}))
	b.WriteString("\n\n## Replies\n")
	if len(replies) == 0 {
		b.WriteString(constants.MsgNoReplies)
	} else {
		b.WriteString(Posts(replies))
	}
	return b.String()
}
