// Package search queries the DuckDuckGo HTML endpoint and returns organic
// results.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	DefaultBaseURL   = "https://html.duckduckgo.com/html/"
	defaultUserAgent = "Mozilla/5.0 (compatible; caseai/1.0)"
	maxBodyBytes     = 2 << 20
)

type Result struct {
	Title   string
	Snippet string
	URL     string
}

type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: 15 * time.Second},
		baseURL:   DefaultBaseURL,
		userAgent: defaultUserAgent,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("duckduckgo: unexpected status %d", resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}
	return parseResults(doc, limit), nil
}

func parseResults(doc *html.Node, limit int) []Result {
	var (
		out []Result
		cur *Result
	)
	flush := func() {
		if cur != nil && cur.Title != "" && cur.URL != "" {
			out = append(out, *cur)
		}
		cur = nil
	}

	var walk func(n *html.Node, inAd bool)
	walk = func(n *html.Node, inAd bool) {
		if limit > 0 && len(out) >= limit {
			return
		}
		if n.Type == html.ElementNode {
			if hasClass(n, "result--ad") {
				inAd = true
			}
			switch {
			case !inAd && n.Data == "a" && hasClass(n, "result__a"):
				flush()
				cur = &Result{
					Title: collapse(textOf(n)),
					URL:   resolveLink(attr(n, "href")),
				}
				return
			case !inAd && hasClass(n, "result__snippet"):
				if cur != nil {
					cur.Snippet = collapse(textOf(n))
				}
				return
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch, inAd)
		}
	}
	walk(doc, false)
	if limit <= 0 || len(out) < limit {
		flush()
	}
	return out
}

// resolveLink unwraps DuckDuckGo redirect links of the form
// //duckduckgo.com/l/?uddg=<escaped target>.
func resolveLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(u.Hostname(), "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return sb.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
