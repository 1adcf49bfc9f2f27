package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

const (
	searchResultLimit  = 3
	webSnippetMaxRunes = 200
)

var webSearchSchema = mustArgSchema[queryArgs](map[string]string{
	"query": "The search query to look up on Google",
})

// WebSearch queries Google Programmable Search.
type WebSearch struct {
	svc *customsearch.Service
	cx  string
}

// NewWebSearch creates the tool. Extra options are appended after the API
// key, so tests can point the client at a fake endpoint.
func NewWebSearch(ctx context.Context, apiKey, cx string, opts ...option.ClientOption) (*WebSearch, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating customsearch service: %w", err)
	}
	return &WebSearch{svc: svc, cx: cx}, nil
}

func (w *WebSearch) Name() string { return "googleSearch" }

func (w *WebSearch) Description() string {
	return "Search Google for current information, news, documentation, tutorials, latest software features, recent events, or any web content."
}

func (w *WebSearch) Parameters() map[string]any { return webSearchSchema.Parameters() }

func (w *WebSearch) Execute(ctx context.Context, raw json.RawMessage) (string, error) {
	args, err := webSearchSchema.parse(w.Name(), raw)
	if err != nil {
		return "", err
	}

	res, err := w.svc.Cse.List().
		Q(args.Query).
		Cx(w.cx).
		Num(searchResultLimit).
		Context(ctx).
		Do()
	if err != nil {
		return "Google search failed: " + err.Error(), err
	}
	return formatWebResults(args.Query, res.Items), nil
}

func formatWebResults(query string, items []*customsearch.Result) string {
	if len(items) == 0 {
		return "No Google results found for: " + query
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[Google Search Results for: %s]\n\n", query)
	for i, item := range items {
		if i == searchResultLimit {
			break
		}
		if item == nil {
			item = &customsearch.Result{}
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, item.Title)
		fmt.Fprintf(&b, "   %s\n", truncate(oneLine(item.Snippet), webSnippetMaxRunes))
		fmt.Fprintf(&b, "   URL: %s\n\n", item.Link)
	}
	return strings.TrimSpace(b.String())
}
