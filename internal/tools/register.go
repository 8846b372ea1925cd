package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register adds every tool to server.
func (s *Service) Register(server *mcp.Server) {
	addTool(server, s, "search_twitter", "search tweets",
		"Search tweets. sort_by is Top or Latest.", s.SearchTwitter)
	addTool(server, s, "get_user_tweets", "get user tweets",
		"Get recent tweets from a user by screen name.", s.GetUserTweets)
	addTool(server, s, "get_timeline", "get timeline",
		"Get tweets from the For You timeline.", s.GetTimeline)
	addTool(server, s, "get_latest_timeline", "get latest timeline",
		"Get tweets from the Following timeline.", s.GetLatestTimeline)
	addTool(server, s, "post_tweet", "post tweet",
		"Post a tweet, optionally with media, as a reply, or mentioning users.", s.PostTweet)
	addTool(server, s, "delete_tweet", "delete tweet",
		"Delete a tweet by id.", s.DeleteTweet)
	addTool(server, s, "send_dm", "send DM",
		"Send a direct message to a user, optionally with one media file.", s.SendDM)
	addTool(server, s, "delete_dm", "delete DM",
		"Delete a direct message by id.", s.DeleteDM)
	addTool(server, s, "get_tweet_thread", "get tweet thread",
		"Get a tweet and its replies from the tweet URL.", s.GetTweetThread)
}

func addTool[In any](server *mcp.Server, s *Service, name, action, description string, h func(context.Context, In) (string, error)) {
	mcp.AddTool(server, &mcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
			text := s.safe(ctx, name, action, func(ctx context.Context) (string, error) {
				return h(ctx, in)
			})
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}, nil, nil
		})
}
