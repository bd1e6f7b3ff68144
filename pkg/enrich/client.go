package enrich

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/candidate"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/whttp"
)

const defaultAPIURL = "https://api.traffichub.dev/v1/traffic/batch"

// HTTPClient calls a batch traffic-analytics endpoint.
type HTTPClient struct {
	APIKey string
	APIURL string
	HTTP   *retryablehttp.Client
}

func NewHTTPClient(apiKey string) *HTTPClient {
	return &HTTPClient{APIKey: apiKey, HTTP: whttp.NewClient()}
}

func (c *HTTPClient) BatchTraffic(ctx context.Context, domains []string) (map[string]candidate.EnrichmentRecord, error) {
	apiURL := c.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	quoted := make([]string, len(domains))
	for i, d := range domains {
		quoted[i] = strconv.Quote(d)
	}
	body := fmt.Sprintf(`{"domains":[%s]}`, strings.Join(quoted, ","))

	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method: "POST",
		URL:    apiURL,
		Body:   body,
		Headers: []whttp.WHTTPHeader{
			{Name: "X-API-KEY", Value: c.APIKey},
			{Name: "Content-Type", Value: "application/json"},
		},
	}, c.HTTP)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != 200 {
		return nil, fmt.Errorf("traffic API returned status %d", res.StatusCode)
	}

	now := time.Now().UTC()
	out := make(map[string]candidate.EnrichmentRecord)
	for _, item := range gjson.Get(res.BodyString, "results").Array() {
		domain := gjson.Get(item.Raw, "domain").String()
		if domain == "" {
			continue
		}
		var keywords []string
		for _, kw := range gjson.Get(item.Raw, "topKeywords").Array() {
			keywords = append(keywords, kw.String())
		}
		out[domain] = candidate.EnrichmentRecord{
			Key:           domain,
			MonthlyVisits: gjson.Get(item.Raw, "monthlyVisits").Int(),
			GlobalRank:    gjson.Get(item.Raw, "globalRank").Int(),
			Category:      gjson.Get(item.Raw, "category").String(),
			TopKeywords:   keywords,
			FetchedAt:     now,
		}
	}
	return out, nil
}
