// Package pagemeta fetches a third-party page once and pulls out the
// metadata the front end needs to render an embed preview card.
package pagemeta

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"partners/partners/utils/logging"
	"partners/partners/utils/types"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const snippetMaxChars = 300

// Fetch GETs the target with a browser user agent and extracts title,
// description, og tags and a short visible-text snippet.
func Fetch(ctx context.Context, targetURL string) (*types.PageMeta, error) {
	defer logging.LogDuration(ctx, "pagemeta_fetch")()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: bad status %d", targetURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	meta := &types.PageMeta{
		URL:   targetURL,
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}
	if og := metaContent(doc, "og:title"); og != "" {
		meta.Title = og
	}
	meta.Description = metaContent(doc, "og:description")
	if meta.Description == "" {
		meta.Description, _ = doc.Find(`meta[name="description"]`).Attr("content")
		meta.Description = strings.TrimSpace(meta.Description)
	}
	meta.Image = metaContent(doc, "og:image")
	meta.SiteName = metaContent(doc, "og:site_name")

	if node := doc.Find("body").Get(0); node != nil {
		meta.Snippet = snippet(extractText(node), snippetMaxChars)
	}
	return meta, nil
}

func metaContent(doc *goquery.Document, property string) string {
	content, _ := doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).Attr("content")
	return strings.TrimSpace(content)
}

// extractText walks the node tree collecting visible text, skipping script
// and style subtrees.
func extractText(n *html.Node) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return strings.TrimSpace(sb.String())
}

func snippet(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
