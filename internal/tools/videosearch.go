package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	videoDescMaxRunes = 150
	watchURLPrefix    = "https://www.youtube.com/watch?v="
)

var videoSearchSchema = mustArgSchema[queryArgs](map[string]string{
	"query": "The YouTube search query",
})

// VideoSearch queries the YouTube Data API for videos.
type VideoSearch struct {
	svc *youtube.Service
}

// NewVideoSearch creates the tool. Extra options are appended after the API key.
func NewVideoSearch(ctx context.Context, apiKey string, opts ...option.ClientOption) (*VideoSearch, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating youtube service: %w", err)
	}
	return &VideoSearch{svc: svc}, nil
}

func (v *VideoSearch) Name() string { return "youtubeSearch" }

func (v *VideoSearch) Description() string {
	return "Search YouTube for video tutorials, courses, tech talks, or any video content. Use when the user asks for videos, tutorials, or how-to guides."
}

func (v *VideoSearch) Parameters() map[string]any { return videoSearchSchema.Parameters() }

func (v *VideoSearch) Execute(ctx context.Context, raw json.RawMessage) (string, error) {
	args, err := videoSearchSchema.parse(v.Name(), raw)
	if err != nil {
		return "", err
	}

	res, err := v.svc.Search.List([]string{"snippet"}).
		Q(args.Query).
		Type("video").
		MaxResults(searchResultLimit).
		Order("relevance").
		Context(ctx).
		Do()
	if err != nil {
		return "YouTube search failed: " + err.Error(), err
	}
	return formatVideoResults(args.Query, res.Items), nil
}

func formatVideoResults(query string, items []*youtube.SearchResult) string {
	if len(items) == 0 {
		return "No YouTube videos found for: " + query
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[YouTube Results for: %s]\n\n", query)
	for i, item := range items {
		if i == searchResultLimit {
			break
		}
		var videoID string
		if item != nil && item.Id != nil {
			videoID = item.Id.VideoId
		}
		snippet := &youtube.SearchResultSnippet{}
		if item != nil && item.Snippet != nil {
			snippet = item.Snippet
		}

		fmt.Fprintf(&b, "%d. %s\n", i+1, snippet.Title)
		fmt.Fprintf(&b, "   Channel: %s | Published: %s\n", snippet.ChannelTitle, truncate(snippet.PublishedAt, 10))
		fmt.Fprintf(&b, "   %s\n", truncate(oneLine(snippet.Description), videoDescMaxRunes))
		fmt.Fprintf(&b, "   URL: %s%s\n\n", watchURLPrefix, videoID)
	}
	return strings.TrimSpace(b.String())
}
