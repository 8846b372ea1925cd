package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"twikitmcp/internal/constants"
	"twikitmcp/internal/format"
	"twikitmcp/internal/platform"
	"twikitmcp/internal/security"
	"twikitmcp/internal/utils"
)

type SearchInput struct {
	Query  string `json:"query" jsonschema:"search query"`
	SortBy string `json:"sort_by,omitempty" jsonschema:"Top or Latest, default Top"`
	Count  int    `json:"count,omitempty" jsonschema:"number of tweets to return, default 15, capped at 100; 0 or less means the default"`
}

type UserTweetsInput struct {
	Username  string `json:"username" jsonschema:"screen name, with or without a leading @"`
	TweetType string `json:"tweet_type,omitempty" jsonschema:"Tweets, Replies, Media or Likes, default Tweets"`
	Count     int    `json:"count,omitempty" jsonschema:"number of tweets to return, default 15, capped at 100; 0 or less means the default"`
}

type TimelineInput struct {
	Count int `json:"count,omitempty" jsonschema:"number of tweets to return, default 20, capped at 100; 0 or less means the default"`
}

type PostTweetInput struct {
	Text       string   `json:"text" jsonschema:"tweet text"`
	MediaPaths []string `json:"media_paths,omitempty" jsonschema:"local files to attach, uploaded in order"`
	ReplyTo    string   `json:"reply_to,omitempty" jsonschema:"id of the tweet to reply to"`
	Tags       []string `json:"tags,omitempty" jsonschema:"users to mention, appended on a new line"`
}

type DeleteTweetInput struct {
	TweetID string `json:"tweet_id" jsonschema:"id of the tweet to delete"`
}

type SendDMInput struct {
	UserID    string `json:"user_id" jsonschema:"recipient user id"`
	Message   string `json:"message" jsonschema:"message text"`
	MediaPath string `json:"media_path,omitempty" jsonschema:"local file to attach"`
}

type DeleteDMInput struct {
	MessageID string `json:"message_id" jsonschema:"id of the message to delete"`
}

type ThreadInput struct {
	TweetURL string `json:"tweet_url" jsonschema:"tweet URL containing /status/<id>"`
}

func (s *Service) SearchTwitter(ctx context.Context, in SearchInput) (string, error) {
	product, err := platform.ParseSearchProduct(in.SortBy)
	if err != nil {
		return "", err
	}
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}
	count := clampCount(in.Count, constants.DefaultSearchCount, constants.MaxCount)
	posts, err := client.SearchPosts(ctx, in.Query, product, count)
	if err != nil {
		return "", err
	}
	return format.Posts(posts), nil
}

func (s *Service) GetUserTweets(ctx context.Context, in UserTweetsInput) (string, error) {
	name := utils.StripHandle(in.Username)
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	user, err := client.UserByScreenName(ctx, name)
	if errors.Is(err, platform.ErrNotFound) || (err == nil && user == nil) {
		return "", &notFoundError{msg: fmt.Sprintf("Could not find user %s", name)}
	}
	if err != nil {
		return "", err
	}

	tweetType := in.TweetType
	if tweetType == "" {
		tweetType = constants.DefaultTweetType
	}
	count := clampCount(in.Count, constants.DefaultUserCount, constants.MaxCount)
	posts, err := client.UserPosts(ctx, user.ID, tweetType, count)
	if err != nil {
		return "", err
	}
	return format.Posts(posts), nil
}

func (s *Service) GetTimeline(ctx context.Context, in TimelineInput) (string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}
	posts, err := client.Timeline(ctx, clampCount(in.Count, constants.DefaultTimelineCount, constants.MaxCount))
	if err != nil {
		return "", err
	}
	return format.Posts(posts), nil
}

func (s *Service) GetLatestTimeline(ctx context.Context, in TimelineInput) (string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}
	posts, err := client.LatestTimeline(ctx, clampCount(in.Count, constants.DefaultTimelineCount, constants.MaxCount))
	if err != nil {
		return "", err
	}
	return format.Posts(posts), nil
}

// PostTweet counts against the tweet quota only once the post exists.
func (s *Service) PostTweet(ctx context.Context, in PostTweetInput) (string, error) {
	if err := s.checkQuota(ctx, security.CategoryTweet, constants.MsgTweetRateLimited); err != nil {
		return "", err
	}
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	post := platform.NewPost{Text: withMentions(in.Text, in.Tags), ReplyTo: in.ReplyTo}
	for _, path := range in.MediaPaths {
		id, err := client.UploadMedia(ctx, path)
		if err != nil {
			return "", fmt.Errorf("upload %s: %w", path, err)
		}
		post.MediaIDs = append(post.MediaIDs, id)
	}

	created, err := client.CreatePost(ctx, post)
	if err != nil {
		return "", err
	}
	s.limiter.Record(security.CategoryTweet)
	s.audit.LogWrite(requestID(ctx), "post_created", created.ID)
	return fmt.Sprintf("Successfully posted tweet: %s", created.ID), nil
}

func (s *Service) DeleteTweet(ctx context.Context, in DeleteTweetInput) (string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}
	if err := client.DeletePost(ctx, in.TweetID); err != nil {
		return "", err
	}
	s.audit.LogWrite(requestID(ctx), "post_deleted", in.TweetID)
	return fmt.Sprintf("Successfully deleted tweet %s", in.TweetID), nil
}

func (s *Service) SendDM(ctx context.Context, in SendDMInput) (string, error) {
	if err := s.checkQuota(ctx, security.CategoryDM, constants.MsgDMRateLimited); err != nil {
		return "", err
	}
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	var mediaID string
	if in.MediaPath != "" {
		if mediaID, err = client.UploadMedia(ctx, in.MediaPath); err != nil {
			return "", fmt.Errorf("upload %s: %w", in.MediaPath, err)
		}
	}

	if err := client.SendDM(ctx, in.UserID, in.Message, mediaID); err != nil {
		return "", err
	}
	s.limiter.Record(security.CategoryDM)
	s.audit.LogWrite(requestID(ctx), "dm_sent", in.UserID)
	return fmt.Sprintf("Successfully sent DM to user %s", in.UserID), nil
}

func (s *Service) DeleteDM(ctx context.Context, in DeleteDMInput) (string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}
	if err := client.DeleteDM(ctx, in.MessageID); err != nil {
		return "", err
	}
	s.audit.LogWrite(requestID(ctx), "dm_deleted", in.MessageID)
	return fmt.Sprintf("Successfully deleted DM %s", in.MessageID), nil
}

func (s *Service) GetTweetThread(ctx context.Context, in ThreadInput) (string, error) {
	id, err := utils.ExtractPostID(in.TweetURL)
	if err != nil {
		return "", err
	}
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	root, err := client.PostDetail(ctx, id)
	if errors.Is(err, platform.ErrNotFound) || (err == nil && root == nil) {
		return "", &notFoundError{msg: fmt.Sprintf("Could not find tweet with ID %s", id)}
	}
	if err != nil {
		return "", err
	}

	replies, err := client.PostReplies(ctx, id, constants.ThreadReplyCount)
	if err != nil {
		return "", err
	}
	return format.Thread(*root, replies), nil
}

// withMentions appends "@a @b" on its own line. Leading @ on tags is
// optional.
func withMentions(text string, tags []string) string {
	mentions := make([]string, 0, len(tags))
	for _, tag := range tags {
		if h := utils.StripHandle(tag); h != "" {
			mentions = append(mentions, "@"+h)
		}
	}
	if len(mentions) == 0 {
		return text
	}
	return text + "\n" + strings.Join(mentions, " ")
}
