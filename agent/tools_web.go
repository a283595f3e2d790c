package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
)

// WebFetchArgs are the webfetch tool's arguments.
type WebFetchArgs struct {
	URL    string `json:"url" validate:"required,url"`
	Prompt string `json:"prompt" validate:"required"`
}

type fetchCacheEntry struct {
	content   string
	fetchedAt time.Time
}

// webFetcher fetches pages, reduces them to text, and caches results for a
// short interval so repeated reads of the same page cost one request.
type webFetcher struct {
	client *http.Client
	ttl    time.Duration

	mu    sync.Mutex
	cache map[string]fetchCacheEntry
}

func newWebFetcher() *webFetcher {
	return &webFetcher{
		client: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
		ttl:   15 * time.Minute,
		cache: make(map[string]fetchCacheEntry),
	}
}

func (f *webFetcher) fetch(ctx context.Context, rawURL string) (string, error) {
	// HTTP URLs are upgraded before fetching.
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("webfetch: invalid url: %w", err)
	}
	if parsed.Scheme == "http" {
		parsed.Scheme = "https"
	}
	target := parsed.String()

	f.mu.Lock()
	if entry, ok := f.cache[target]; ok && time.Since(entry.fetchedAt) < f.ttl {
		f.mu.Unlock()
		return entry.content, nil
	}
	f.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("webfetch: %w", err)
	}
	req.Header.Set("User-Agent", "cora/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("webfetch: %w", err)
	}
	defer resp.Body.Close()

	// A redirect that landed on a different host is reported rather than
	// silently followed into unexpected content.
	if resp.Request != nil && resp.Request.URL.Host != parsed.Host {
		return "", fmt.Errorf("webfetch: request redirected to a different host: %s. Re-run with url=%s to fetch it",
			resp.Request.URL.Host, resp.Request.URL.String())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("webfetch: %s returned status %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return "", fmt.Errorf("webfetch: reading body: %w", err)
	}

	content := string(body)
	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		content = extractText(body)
	}

	f.mu.Lock()
	f.cache[target] = fetchCacheEntry{content: content, fetchedAt: time.Now()}
	f.mu.Unlock()

	return content, nil
}

// extractText strips an HTML document down to its visible text.
func extractText(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return string(body)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
				sb.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String()
}

// NewWebFetchTool builds the webfetch tool.
func NewWebFetchTool() Tool {
	fetcher := newWebFetcher()
	return Tool{
		Name: "webfetch",
		Description: "Fetch a URL and return its content as plain text. HTTP URLs are upgraded to HTTPS. " +
			"The prompt describes what to look for in the page.",
		Effect: EffectReadOnly,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"url": map[string]interface{}{
					"type":        "string",
					"description": "The URL to fetch",
				},
				"prompt": map[string]interface{}{
					"type":        "string",
					"description": "What information to extract from the page",
				},
			},
			"required": []string{"url", "prompt"},
		},
		NewArgs: func() any { return &WebFetchArgs{} },
		Run: func(ctx context.Context, args any, _ Environment) (string, error) {
			a := args.(*WebFetchArgs)
			content, err := fetcher.fetch(ctx, a.URL)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Content of %s:\n\n%s", a.URL, content), nil
		},
	}
}

// SearchResult is one hit returned by a Searcher.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Searcher performs web searches on behalf of the websearch tool.
type Searcher interface {
	Search(ctx context.Context, query string, allowedDomains, blockedDomains []string) ([]SearchResult, error)
}

// ExaSearcher queries the Exa search API.
type ExaSearcher struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewExaSearcher creates an ExaSearcher. An empty endpoint uses the public
// API.
func NewExaSearcher(apiKey, endpoint string) *ExaSearcher {
	if endpoint == "" {
		endpoint = "https://api.exa.ai/search"
	}
	return &ExaSearcher{
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *ExaSearcher) Search(ctx context.Context, query string, allowedDomains, blockedDomains []string) ([]SearchResult, error) {
	payload := map[string]interface{}{
		"query":      query,
		"numResults": 8,
		"contents":   map[string]interface{}{"text": map[string]interface{}{"maxCharacters": 500}},
	}
	if len(allowedDomains) > 0 {
		payload["includeDomains"] = allowedDomains
	}
	if len(blockedDomains) > 0 {
		payload["excludeDomains"] = blockedDomains
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("websearch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("websearch: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("websearch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("websearch: search API returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Results []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
			Text  string `json:"text"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("websearch: decoding response: %w", err)
	}

	results := make([]SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, SearchResult{Title: r.Title, URL: r.URL, Snippet: r.Text})
	}
	return results, nil
}

// WebSearchArgs are the websearch tool's arguments.
type WebSearchArgs struct {
	Query          string   `json:"query" validate:"required,min=2"`
	AllowedDomains []string `json:"allowed_domains"`
	BlockedDomains []string `json:"blocked_domains"`
}

// NewWebSearchTool builds the websearch tool. A nil searcher yields a tool
// that reports search as unconfigured.
func NewWebSearchTool(searcher Searcher) Tool {
	return Tool{
		Name:        "websearch",
		Description: "Search the web and return result titles, URLs, and snippets.",
		Effect:      EffectReadOnly,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "The search query",
				},
				"allowed_domains": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Only include results from these domains",
				},
				"blocked_domains": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Exclude results from these domains",
				},
			},
			"required": []string{"query"},
		},
		NewArgs: func() any { return &WebSearchArgs{} },
		Run: func(ctx context.Context, args any, _ Environment) (string, error) {
			a := args.(*WebSearchArgs)
			if searcher == nil {
				return "", fmt.Errorf("web search is not configured; set a search API key")
			}
			results, err := searcher.Search(ctx, a.Query, a.AllowedDomains, a.BlockedDomains)
			if err != nil {
				return "", err
			}
			if len(results) == 0 {
				return "No results found.", nil
			}
			var sb strings.Builder
			for i, r := range results {
				fmt.Fprintf(&sb, "%d. %s\n   %s\n", i+1, r.Title, r.URL)
				if r.Snippet != "" {
					fmt.Fprintf(&sb, "   %s\n", strings.TrimSpace(r.Snippet))
				}
			}
			return sb.String(), nil
		},
	}
}
