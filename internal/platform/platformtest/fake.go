// Package platformtest provides an in-memory platform.Client for tests.
package platformtest

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"twikitmcp/internal/config"
	"twikitmcp/internal/platform"
)

type DM struct {
	UserID  string
	Text    string
	MediaID string
}

// Client records every call. Exported fields may be set before use; read
// them back through the accessor methods once calls are in flight.
type Client struct {
	mu sync.Mutex

	LoginErr     error
	LoginCookies map[string]string
	// Err, when set, is returned by every non-login call.
	Err error

	Posts   []platform.Post
	Users   map[string]platform.User
	Details map[string]platform.Post
	Replies map[string][]platform.Post

	logins     int
	locales    []string
	cookies    map[string]string
	calls      []string
	created    []platform.NewPost
	uploaded   []string
	deleted    []string
	dms        []DM
	deletedDMs []string
	nextID     int
}

var _ platform.Client = (*Client)(nil)

func New() *Client {
	return &Client{
		LoginCookies: map[string]string{"auth_token": "fresh", "ct0": "csrf"},
		Users:        map[string]platform.User{},
		Details:      map[string]platform.Post{},
		Replies:      map[string][]platform.Post{},
		nextID:       1000,
	}
}

// Factory hands out this same client for every session.
func (c *Client) Factory() platform.Factory {
	return func(locale string) platform.Client {
		c.mu.Lock()
		c.locales = append(c.locales, locale)
		c.mu.Unlock()
		return c
	}
}

func (c *Client) Logins() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logins
}

func (c *Client) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *Client) Created() []platform.NewPost {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]platform.NewPost(nil), c.created...)
}

func (c *Client) Uploaded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.uploaded...)
}

func (c *Client) Deleted() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.deleted...)
}

func (c *Client) DMs() []DM {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]DM(nil), c.dms...)
}

func (c *Client) DeletedDMs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.deletedDMs...)
}

func (c *Client) Locales() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.locales...)
}

func (c *Client) Login(_ context.Context, _ config.Credentials) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logins++
	c.calls = append(c.calls, "Login")
	if c.LoginErr != nil {
		return c.LoginErr
	}
	c.cookies = copyMap(c.LoginCookies)
	return nil
}

func (c *Client) Cookies() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyMap(c.cookies)
}

func (c *Client) SetCookies(cookies map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cookies = copyMap(cookies)
}

func (c *Client) record(call string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
	return c.Err
}

func (c *Client) take(n int) []platform.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n > len(c.Posts) {
		n = len(c.Posts)
	}
	return append([]platform.Post(nil), c.Posts[:n]...)
}

func (c *Client) SearchPosts(_ context.Context, query string, product platform.SearchProduct, count int) ([]platform.Post, error) {
	if err := c.record(fmt.Sprintf("SearchPosts(%s,%s,%d)", query, product, count)); err != nil {
		return nil, err
	}
	return c.take(count), nil
}

func (c *Client) UserByScreenName(_ context.Context, screenName string) (*platform.User, error) {
	if err := c.record("UserByScreenName(" + screenName + ")"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.Users[screenName]
	if !ok {
		return nil, platform.ErrNotFound
	}
	return &u, nil
}

func (c *Client) UserPosts(_ context.Context, userID, postType string, count int) ([]platform.Post, error) {
	if err := c.record(fmt.Sprintf("UserPosts(%s,%s,%d)", userID, postType, count)); err != nil {
		return nil, err
	}
	return c.take(count), nil
}

func (c *Client) Timeline(_ context.Context, count int) ([]platform.Post, error) {
	if err := c.record(fmt.Sprintf("Timeline(%d)", count)); err != nil {
		return nil, err
	}
	return c.take(count), nil
}

func (c *Client) LatestTimeline(_ context.Context, count int) ([]platform.Post, error) {
	if err := c.record(fmt.Sprintf("LatestTimeline(%d)", count)); err != nil {
		return nil, err
	}
	return c.take(count), nil
}

func (c *Client) PostDetail(_ context.Context, postID string) (*platform.Post, error) {
	if err := c.record("PostDetail(" + postID + ")"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.Details[postID]
	if !ok {
		return nil, platform.ErrNotFound
	}
	return &p, nil
}

func (c *Client) PostReplies(_ context.Context, postID string, count int) ([]platform.Post, error) {
	if err := c.record(fmt.Sprintf("PostReplies(%s,%d)", postID, count)); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	replies := c.Replies[postID]
	if count < len(replies) {
		replies = replies[:count]
	}
	return append([]platform.Post(nil), replies...), nil
}

func (c *Client) UploadMedia(_ context.Context, path string) (string, error) {
	if err := c.record("UploadMedia(" + path + ")"); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploaded = append(c.uploaded, path)
	return "media-" + strconv.Itoa(len(c.uploaded)), nil
}

func (c *Client) CreatePost(_ context.Context, post platform.NewPost) (*platform.Post, error) {
	if err := c.record("CreatePost"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.created = append(c.created, post)
	c.nextID++
	return &platform.Post{ID: strconv.Itoa(c.nextID), Text: post.Text}, nil
}

func (c *Client) DeletePost(_ context.Context, postID string) error {
	if err := c.record("DeletePost(" + postID + ")"); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, postID)
	return nil
}

func (c *Client) SendDM(_ context.Context, userID, text, mediaID string) error {
	if err := c.record("SendDM(" + userID + ")"); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dms = append(c.dms, DM{UserID: userID, Text: text, MediaID: mediaID})
	return nil
}

func (c *Client) DeleteDM(_ context.Context, messageID string) error {
	if err := c.record("DeleteDM(" + messageID + ")"); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletedDMs = append(c.deletedDMs, messageID)
	return nil
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
