package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/time/rate"
)

const maxPageBytes = 4 << 20

// Page is a fetched job posting converted to Markdown.
type Page struct {
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Markdown string   `json:"markdown"`
	Embeds   []string `json:"embeds,omitempty"` // script/iframe/form URLs and generator tags, for ATS detection
}

var (
	fetchLimiterMu sync.Mutex
	fetchLimiter   = rate.NewLimiter(1, 1)
)

func initFetchLimiter(rps float64) {
	if rps <= 0 {
		rps = 1
	}
	fetchLimiterMu.Lock()
	fetchLimiter = rate.NewLimiter(rate.Limit(rps), 1)
	fetchLimiterMu.Unlock()
}

func limiter() *rate.Limiter {
	fetchLimiterMu.Lock()
	defer fetchLimiterMu.Unlock()
	return fetchLimiter
}

// FetchPage downloads a job posting and converts its main content to
// Markdown. Results are cached by URL.
func FetchPage(ctx context.Context, rawURL string) (page *Page, err error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("fetch: invalid url %q", rawURL)
	}
	pageURL := u.String()

	key := CacheKey("page", pageURL)
	if p, ok := CacheLoadJSON[Page](ctx, key); ok {
		return &p, nil
	}

	metrics.FetchRequests.Add(1)
	defer func() {
		if err != nil {
			metrics.FetchErrors.Add(1)
		}
	}()

	if cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.FetchTimeout)
		defer cancel()
	}
	if err := limiter().Wait(ctx); err != nil {
		return nil, fmt.Errorf("fetch: rate limit: %w", err)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := RetryHTTP(ctx, DefaultRetryPolicy, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", UserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		return client.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u.Host, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %w", u.Host, &StatusError{StatusCode: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", u.Host, err)
	}

	page, err = ParsePage(pageURL, body)
	if err != nil {
		return nil, err
	}
	CacheStoreJSON(ctx, key, *page)
	slog.Debug("fetch: page converted", slog.String("host", u.Host), slog.Int("chars", len(page.Markdown)))
	return page, nil
}

// strippedAtoms are elements that never carry posting text.
var strippedAtoms = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Svg: true,
	atom.Nav: true, atom.Header: true, atom.Footer: true, atom.Iframe: true,
	atom.Form: true, atom.Button: true,
}

// ParsePage converts raw HTML into a Page. Embed references are collected
// before boilerplate elements are removed.
func ParsePage(pageURL string, body []byte) (*Page, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	p := &Page{URL: pageURL}
	var drop []*html.Node
	seen := map[string]bool{}
	addEmbed := func(v string) {
		v = strings.TrimSpace(v)
		if v != "" && !seen[v] {
			seen[v] = true
			p.Embeds = append(p.Embeds, v)
		}
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if p.Title == "" && n.FirstChild != nil {
					p.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case atom.Script, atom.Iframe:
				addEmbed(attr(n, "src"))
			case atom.Form:
				addEmbed(attr(n, "action"))
			case atom.Meta:
				if strings.EqualFold(attr(n, "name"), "generator") {
					addEmbed("generator:" + attr(n, "content"))
				}
			case atom.A:
				if href := attr(n, "href"); strings.Contains(strings.ToLower(href), "apply") {
					addEmbed(href)
				}
			}
			if strippedAtoms[n.DataAtom] {
				drop = append(drop, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for _, n := range drop {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	md, err := htmltomarkdown.ConvertString(buf.String())
	if err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	md = NormalizeText(md)
	if md == "" {
		return nil, errors.New("fetch: page has no text content")
	}
	limit := cfg.MaxContentChars
	if limit <= 0 {
		limit = 20000
	}
	p.Markdown = TruncateRunes(md, limit, "...")
	return p, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
