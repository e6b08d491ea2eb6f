package builtin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/automenta/flowmind/internal/term"
	"github.com/automenta/flowmind/internal/thought"
	"github.com/automenta/flowmind/internal/tool"
)

// webSearchHTTPTimeout bounds the outbound GET; the tool itself is
// still subject to the worker's thoughtProcessingTimeoutMillis race,
// this is a tighter, transport-level backstop.
const webSearchHTTPTimeout = 15 * time.Second

// NewWebSearchTool builds a dynamically-registerable WebSearch tool
// (spec §4.6/§4.7 step 4's "web-search family when an endpoint is
// provided"): an HTTP GET against endpoint with the tool's "query"
// parameter appended as a query string, whose body becomes a PENDING
// INPUT thought. name/description come from the originating tool_spec
// so multiple web-search-family tools can coexist under distinct
// names.
func NewWebSearchTool(name, description, endpoint string) *tool.Spec {
	client := &http.Client{Timeout: webSearchHTTPTimeout}
	return &tool.Spec{
		Name:        name,
		Description: description,
		Parameters: tool.Schema{
			"query": {Type: tool.TypeString, Required: tool.Always(true)},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, parent thought.Thought, agentID string) (thought.Thought, error) {
			query, _ := params["query"].(string)

			reqURL, err := url.Parse(endpoint)
			if err != nil {
				return thought.Thought{}, fmt.Errorf("web search: invalid endpoint %q: %w", endpoint, err)
			}
			q := reqURL.Query()
			q.Set("q", query)
			reqURL.RawQuery = q.Encode()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
			if err != nil {
				return thought.Thought{}, fmt.Errorf("web search: %w", err)
			}
			resp, err := client.Do(req)
			if err != nil {
				return thought.Thought{}, fmt.Errorf("web search request failed: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return thought.Thought{}, fmt.Errorf("web search: reading response body: %w", err)
			}
			if resp.StatusCode >= 300 {
				return thought.Thought{}, fmt.Errorf("web search: unexpected status %s", resp.Status)
			}

			t := thought.New(thought.KindInput, term.Atom(string(body)), parent.ID, parent.Metadata.RootID)
			return t, nil
		},
	}
}
