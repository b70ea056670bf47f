package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/warinyupa/bankpilot/agent/contract"
)

const (
	ToolSearchDocuments = "search_documents"
	ToolWebSearch       = "web_search"

	defaultDocHits = 5
	defaultWebHits = 5
)

// DocHit is one snippet from the bank's document index.
type DocHit struct {
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
}

// WebHit is one result from the web search provider.
type WebHit struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type DocumentSearcher interface {
	SearchDocuments(ctx context.Context, query string, k int) ([]DocHit, error)
}

type WebSearcher interface {
	SearchWeb(ctx context.Context, query string, maxResults int) ([]WebHit, error)
}

func searchDocumentsSpec(docs DocumentSearcher) ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolSearchDocuments,
			Desc: "Search the bank's internal documents: policies, fees, limits, FAQ. Try this before searching the web.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {Type: schema.String, Desc: "Search keywords", Required: true},
				"k":     {Type: schema.Integer, Desc: "Max snippets, defaults to 5"},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			if docs == nil {
				return fail(ToolSearchDocuments, args, "document search is not configured"), nil
			}
			query, err := strArg(args, "query")
			if err != nil {
				return fail(ToolSearchDocuments, args, err.Error()), nil
			}
			k, err := optionalIntArg(args, "k", defaultDocHits)
			if err != nil {
				return fail(ToolSearchDocuments, args, err.Error()), nil
			}

			hits, err := docs.SearchDocuments(ctx, query, int(k))
			if err != nil {
				return contractx.ToolResult{}, fmt.Errorf("%s: %w", ToolSearchDocuments, err)
			}
			if len(hits) == 0 {
				return ok(ToolSearchDocuments, args,
					fmt.Sprintf("No documents matched %q.", query), hits), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Found %d document(s):\n", len(hits))
			for _, h := range hits {
				fmt.Fprintf(&b, "- %s (%s): %s\n", h.Title, h.Source, h.Snippet)
			}
			return ok(ToolSearchDocuments, args, strings.TrimRight(b.String(), "\n"), hits), nil
		},
	}
}

func webSearchSpec(web WebSearcher) ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolWebSearch,
			Desc: "Search the public web for current information such as exchange rates or news.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query":       {Type: schema.String, Desc: "Search query", Required: true},
				"max_results": {Type: schema.Integer, Desc: "Max results, defaults to 5"},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			if web == nil {
				return fail(ToolWebSearch, args, "web search is not configured"), nil
			}
			query, err := strArg(args, "query")
			if err != nil {
				return fail(ToolWebSearch, args, err.Error()), nil
			}
			maxResults, err := optionalIntArg(args, "max_results", defaultWebHits)
			if err != nil {
				return fail(ToolWebSearch, args, err.Error()), nil
			}

			hits, err := web.SearchWeb(ctx, query, int(maxResults))
			if err != nil {
				// Web search riding on a third-party API degrades into a
				// failed result instead of killing the query.
				return fail(ToolWebSearch, args, fmt.Sprintf("web search unavailable: %v", err)), nil
			}
			if len(hits) == 0 {
				return ok(ToolWebSearch, args,
					fmt.Sprintf("No web results for %q.", query), hits), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Found %d web result(s):\n", len(hits))
			for _, h := range hits {
				fmt.Fprintf(&b, "- %s (%s): %s\n", h.Title, h.URL, h.Content)
			}
			return ok(ToolWebSearch, args, strings.TrimRight(b.String(), "\n"), hits), nil
		},
	}
}
