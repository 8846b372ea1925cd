package utils

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 1 {
			secs = 1
		}
		if secs == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", secs)
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours == 0 {
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	if minutes == 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	if hours == 1 {
		return fmt.Sprintf("1 hour %d minutes", minutes)
	}
	return fmt.Sprintf("%d hours %d minutes", hours, minutes)
}

// ExtractPostID returns the id following "/status/" in a post URL, without
// any query string or fragment.
func ExtractPostID(postURL string) (string, error) {
	_, rest, ok := strings.Cut(postURL, "/status/")
	if !ok {
		return "", fmt.Errorf("invalid post URL %q: missing /status/ segment", postURL)
	}
	if i := strings.IndexAny(rest, "?#/"); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return "", fmt.Errorf("invalid post URL %q: empty post id", postURL)
	}
	if u, err := url.PathUnescape(rest); err == nil {
		rest = u
	}
	return rest, nil
}

// StripHandle removes any leading "@" characters from a screen name.
func StripHandle(name string) string {
	return strings.TrimLeft(strings.TrimSpace(name), "@")
}
