// Package platform defines the social platform client used by the tool
// handlers and an HTTP gateway implementation of it.
package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"twikitmcp/internal/config"
	"twikitmcp/internal/constants"
)

var (
	ErrUnauthorized = errors.New("platform session is not authorized")
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("platform rate limit reached")
)

// APIError is a non-2xx gateway response that maps to no sentinel.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("platform returned status %d", e.Status)
	}
	return fmt.Sprintf("platform returned status %d: %s", e.Status, e.Message)
}

// SearchProduct selects the result ordering of a search.
type SearchProduct string

const (
	ProductTop    SearchProduct = "Top"
	ProductLatest SearchProduct = "Latest"
)

// ParseSearchProduct accepts "Top" or "Latest" case-insensitively. Empty
// means the default sort mode.
func ParseSearchProduct(s string) (SearchProduct, error) {
	if s == "" {
		s = constants.DefaultSortBy
	}
	switch {
	case strings.EqualFold(s, string(ProductTop)):
		return ProductTop, nil
	case strings.EqualFold(s, string(ProductLatest)):
		return ProductLatest, nil
	}
	return "", fmt.Errorf("sort mode must be Top or Latest, got %q", s)
}

type User struct {
	ID         string `json:"id"`
	ScreenName string `json:"screen_name"`
	Name       string `json:"name"`
}

type Media struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type,omitempty"`
	URL  string `json:"url"`
}

// Post is a single tweet. Engagement counts are nil when the platform did
// not report them.
type Post struct {
	ID            string  `json:"id"`
	User          User    `json:"user"`
	CreatedAt     string  `json:"created_at"`
	Text          string  `json:"text"`
	RetweetCount  *int    `json:"retweet_count,omitempty"`
	FavoriteCount *int    `json:"favorite_count,omitempty"`
	Media         []Media `json:"media,omitempty"`
}

// NewPost is the payload of CreatePost.
type NewPost struct {
	Text     string   `json:"text"`
	MediaIDs []string `json:"media_ids,omitempty"`
	ReplyTo  string   `json:"reply_to,omitempty"`
}

// Client is the platform client bound to one account session. Cookies carry
// the whole authenticated transport state.
type Client interface {
	Login(ctx context.Context, creds config.Credentials) error
	Cookies() map[string]string
	SetCookies(cookies map[string]string)

	SearchPosts(ctx context.Context, query string, product SearchProduct, count int) ([]Post, error)
	UserByScreenName(ctx context.Context, screenName string) (*User, error)
	UserPosts(ctx context.Context, userID, postType string, count int) ([]Post, error)
	Timeline(ctx context.Context, count int) ([]Post, error)
	LatestTimeline(ctx context.Context, count int) ([]Post, error)
	PostDetail(ctx context.Context, postID string) (*Post, error)
	PostReplies(ctx context.Context, postID string, count int) ([]Post, error)

	UploadMedia(ctx context.Context, path string) (string, error)
	CreatePost(ctx context.Context, post NewPost) (*Post, error)
	DeletePost(ctx context.Context, postID string) error
	SendDM(ctx context.Context, userID, text, mediaID string) error
	DeleteDM(ctx context.Context, messageID string) error
}

// Factory builds an unauthenticated client for the given locale.
type Factory func(locale string) Client
