package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"twikitmcp/internal/config"
	"twikitmcp/internal/constants"
	"twikitmcp/internal/utils"
)

// Gateway talks to a platform gateway service over HTTP+JSON. The gateway
// owns the platform protocol; Gateway only carries the session cookies.
type Gateway struct {
	baseURL string
	locale  string
	http    *http.Client

	mu      sync.RWMutex
	cookies map[string]string
}

var _ Client = (*Gateway)(nil)

func NewGateway(baseURL, locale string, timeout time.Duration) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		locale:  locale,
		http:    &http.Client{Timeout: timeout},
		cookies: make(map[string]string),
	}
}

// GatewayFactory returns a Factory producing gateways that share baseURL.
func GatewayFactory(baseURL string, timeout time.Duration) Factory {
	return func(locale string) Client {
		return NewGateway(baseURL, locale, timeout)
	}
}

func (g *Gateway) Cookies() map[string]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]string, len(g.cookies))
	for k, v := range g.cookies {
		out[k] = v
	}
	return out
}

func (g *Gateway) SetCookies(cookies map[string]string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.cookies = make(map[string]string, len(cookies))
	for k, v := range cookies {
		g.cookies[k] = v
	}
}

type loginRequest struct {
	AuthInfo1  string `json:"auth_info_1"`
	AuthInfo2  string `json:"auth_info_2"`
	Password   string `json:"password"`
	TOTPSecret string `json:"totp_secret"`
}

type loginResponse struct {
	Cookies map[string]string `json:"cookies"`
}

func (g *Gateway) Login(ctx context.Context, creds config.Credentials) error {
	req := loginRequest{
		AuthInfo1:  creds.Username,
		AuthInfo2:  creds.Email,
		Password:   creds.Password,
		TOTPSecret: creds.TOTPSecret,
	}

	var resp loginResponse
	if err := g.do(ctx, http.MethodPost, "/auth/login", nil, req, &resp); err != nil {
		return err
	}
	if len(resp.Cookies) == 0 {
		return fmt.Errorf("login response carried no cookies")
	}
	g.SetCookies(resp.Cookies)
	return nil
}

type postsResponse struct {
	Tweets []Post `json:"tweets"`
}

func (g *Gateway) SearchPosts(ctx context.Context, query string, product SearchProduct, count int) ([]Post, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("product", string(product))
	q.Set("count", strconv.Itoa(count))
	return g.posts(ctx, "/search", q)
}

func (g *Gateway) UserByScreenName(ctx context.Context, screenName string) (*User, error) {
	var u User
	if err := g.do(ctx, http.MethodGet, "/users/by-screen-name/"+url.PathEscape(screenName), nil, nil, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (g *Gateway) UserPosts(ctx context.Context, userID, postType string, count int) ([]Post, error) {
	q := url.Values{}
	q.Set("tweet_type", postType)
	q.Set("count", strconv.Itoa(count))
	return g.posts(ctx, "/users/"+url.PathEscape(userID)+"/tweets", q)
}

func (g *Gateway) Timeline(ctx context.Context, count int) ([]Post, error) {
	return g.posts(ctx, "/timeline", url.Values{"count": {strconv.Itoa(count)}})
}

func (g *Gateway) LatestTimeline(ctx context.Context, count int) ([]Post, error) {
	return g.posts(ctx, "/timeline/latest", url.Values{"count": {strconv.Itoa(count)}})
}

func (g *Gateway) PostDetail(ctx context.Context, postID string) (*Post, error) {
	var p Post
	if err := g.do(ctx, http.MethodGet, "/tweets/"+url.PathEscape(postID), nil, nil, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (g *Gateway) PostReplies(ctx context.Context, postID string, count int) ([]Post, error) {
	return g.posts(ctx, "/tweets/"+url.PathEscape(postID)+"/replies", url.Values{"count": {strconv.Itoa(count)}})
}

type mediaResponse struct {
	MediaID string `json:"media_id"`
}

// UploadMedia streams the file as multipart and waits for processing to
// finish on the gateway side.
func (g *Gateway) UploadMedia(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open media: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	q := url.Values{"wait_for_completion": {"true"}}
	req, err := g.newRequest(ctx, http.MethodPost, "/media", q, pr)
	if err != nil {
		pr.Close()
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp mediaResponse
	if err := g.send(req, &resp); err != nil {
		return "", err
	}
	if resp.MediaID == "" {
		return "", fmt.Errorf("upload response carried no media id")
	}
	return resp.MediaID, nil
}

func (g *Gateway) CreatePost(ctx context.Context, post NewPost) (*Post, error) {
	var p Post
	if err := g.do(ctx, http.MethodPost, "/tweets", nil, post, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (g *Gateway) DeletePost(ctx context.Context, postID string) error {
	return g.do(ctx, http.MethodDelete, "/tweets/"+url.PathEscape(postID), nil, nil, nil)
}

type dmRequest struct {
	UserID  string `json:"user_id"`
	Text    string `json:"text"`
	MediaID string `json:"media_id,omitempty"`
}

func (g *Gateway) SendDM(ctx context.Context, userID, text, mediaID string) error {
	return g.do(ctx, http.MethodPost, "/dm", nil, dmRequest{UserID: userID, Text: text, MediaID: mediaID}, nil)
}

func (g *Gateway) DeleteDM(ctx context.Context, messageID string) error {
	return g.do(ctx, http.MethodDelete, "/dm/"+url.PathEscape(messageID), nil, nil, nil)
}

func (g *Gateway) posts(ctx context.Context, path string, q url.Values) ([]Post, error) {
	var resp postsResponse
	if err := g.do(ctx, http.MethodGet, path, q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tweets, nil
}

func (g *Gateway) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}

	req, err := g.newRequest(ctx, method, path, q, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return g.send(req, out)
}

func (g *Gateway) newRequest(ctx context.Context, method, path string, q url.Values, body io.Reader) (*http.Request, error) {
	u := g.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if g.locale != "" {
		req.Header.Set("Accept-Language", g.locale)
	}

	g.mu.RLock()
	names := make([]string, 0, len(g.cookies))
	for name := range g.cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		req.AddCookie(&http.Cookie{Name: name, Value: g.cookies[name]})
	}
	g.mu.RUnlock()

	return req, nil
}

func (g *Gateway) send(req *http.Request, out any) error {
	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		buf := utils.NewLimitedBuffer(constants.MaxErrorBodySize)
		io.Copy(buf, resp.Body)
		return statusError(resp.StatusCode, errorMessage(buf.String()))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func statusError(status int, msg string) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
		}
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return &APIError{Status: status, Message: msg}
}

// errorMessage pulls "error" or "message" out of a JSON error body and falls
// back to the raw text.
func errorMessage(body string) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return body
}
