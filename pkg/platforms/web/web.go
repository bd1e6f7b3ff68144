// Package web is the synchronous web-search adapter. With an API key it
// queries a JSON SERP endpoint; without one it falls back to scraping the
// lightweight HTML results page.
package web

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/candidate"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/platforms"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/whttp"
)

const (
	defaultAPIURL  = "https://api.serphub.dev/search"
	defaultLiteURL = "https://html.duckduckgo.com/html/"

	// The SERP query grammar treats these as operators.
	disallowedChars = `"'<>\|{}[]^~`
)

type Adapter struct {
	APIKey  string
	APIURL  string
	LiteURL string
	HTTP    *retryablehttp.Client
}

func New(apiKey string) *Adapter {
	return &Adapter{APIKey: apiKey, HTTP: whttp.NewClient()}
}

func (a *Adapter) Name() candidate.Platform { return candidate.PlatformWeb }

func (a *Adapter) Search(ctx context.Context, q platforms.Query) ([]candidate.Result, error) {
	keyword := platforms.SanitizeKeyword(q.Keyword, disallowedChars)
	if keyword == "" {
		return nil, fmt.Errorf("keyword empty after sanitization")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = platforms.DefaultLimit
	}

	if a.APIKey != "" {
		return a.searchAPI(ctx, keyword, q, limit)
	}
	return a.searchLite(ctx, keyword, limit)
}

func (a *Adapter) searchAPI(ctx context.Context, keyword string, q platforms.Query, limit int) ([]candidate.Result, error) {
	apiURL := a.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	body := fmt.Sprintf(`{"q":%q,"num":%d`, keyword, limit)
	if gl := platforms.CountryCode(q.Country); gl != "" {
		body += fmt.Sprintf(`,"gl":%q`, gl)
	}
	if hl := platforms.LanguageCode(q.Language); hl != "" {
		body += fmt.Sprintf(`,"hl":%q`, hl)
	}
	body += "}"

	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method: "POST",
		URL:    apiURL,
		Body:   body,
		Headers: []whttp.WHTTPHeader{
			{Name: "X-API-KEY", Value: a.APIKey},
			{Name: "Content-Type", Value: "application/json"},
		},
	}, a.HTTP)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != 200 {
		return nil, fmt.Errorf("SERP API returned status %d", res.StatusCode)
	}

	var results []candidate.Result
	for _, hit := range gjson.Get(res.BodyString, "organic").Array() {
		link := gjson.Get(hit.Raw, "link").String()
		if link == "" {
			continue
		}
		results = append(results, candidate.Result{
			Title:       gjson.Get(hit.Raw, "title").String(),
			URL:         link,
			Snippet:     gjson.Get(hit.Raw, "snippet").String(),
			Platform:    candidate.PlatformWeb,
			Domain:      candidate.RegistrableDomain(link),
			IsEnriching: true,
		})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

// searchLite scrapes the HTML results page. Best-effort: selectors follow
// the lite SERP markup (result__a / result__snippet).
func (a *Adapter) searchLite(ctx context.Context, keyword string, limit int) ([]candidate.Result, error) {
	liteURL := a.LiteURL
	if liteURL == "" {
		liteURL = defaultLiteURL
	}

	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method: "GET",
		URL:    liteURL + "?q=" + url.QueryEscape(keyword),
	}, a.HTTP)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != 200 {
		return nil, fmt.Errorf("HTML SERP returned status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.BodyString))
	if err != nil {
		return nil, fmt.Errorf("parsing SERP HTML: %w", err)
	}

	var results []candidate.Result
	doc.Find(".result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		anchor := s.Find("a.result__a").First()
		link, _ := anchor.Attr("href")
		link = cleanRedirect(link)
		if link == "" {
			return true
		}
		results = append(results, candidate.Result{
			Title:       strings.TrimSpace(anchor.Text()),
			URL:         link,
			Snippet:     strings.TrimSpace(s.Find(".result__snippet").First().Text()),
			Platform:    candidate.PlatformWeb,
			Domain:      candidate.RegistrableDomain(link),
			IsEnriching: true,
		})
		return len(results) < limit
	})
	return results, nil
}

// cleanRedirect unwraps uddg-style redirect links to the target URL.
func cleanRedirect(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if strings.HasPrefix(link, "//") {
		return "https:" + link
	}
	return link
}
