package jobs

import (
	"context"
	"fmt"
	"net/url"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/whttp"
)

// HTTPClient talks to an actor-run style scraping API: submit an actor run,
// check the run, download its dataset items.
type HTTPClient struct {
	BaseURL string
	Token   string
	HTTP    *retryablehttp.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{BaseURL: baseURL, Token: token, HTTP: whttp.NewClient()}
}

func (c *HTTPClient) StartJob(ctx context.Context, actor, input string) (string, error) {
	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method: "POST",
		URL:    fmt.Sprintf("%s/v2/acts/%s/runs?token=%s", c.BaseURL, url.PathEscape(actor), url.QueryEscape(c.Token)),
		Body:   input,
		Headers: []whttp.WHTTPHeader{
			{Name: "Content-Type", Value: "application/json"},
		},
	}, c.HTTP)
	if err != nil {
		return "", err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("starting actor %s failed with status %d", actor, res.StatusCode)
	}

	handle := gjson.Get(res.BodyString, "data.id").String()
	if handle == "" {
		return "", fmt.Errorf("actor %s run response carried no run id", actor)
	}
	return handle, nil
}

func (c *HTTPClient) JobStatus(ctx context.Context, handle string) (string, string, error) {
	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method: "GET",
		URL:    fmt.Sprintf("%s/v2/actor-runs/%s?token=%s", c.BaseURL, url.PathEscape(handle), url.QueryEscape(c.Token)),
	}, c.HTTP)
	if err != nil {
		return "", "", err
	}
	if res.StatusCode != 200 {
		return "", "", fmt.Errorf("run %s status check failed with status %d", handle, res.StatusCode)
	}

	state := gjson.Get(res.BodyString, "data.status").String()
	datasetID := gjson.Get(res.BodyString, "data.defaultDatasetId").String()
	return state, datasetID, nil
}

func (c *HTTPClient) FetchDataset(ctx context.Context, datasetID string) (string, error) {
	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method: "GET",
		URL:    fmt.Sprintf("%s/v2/datasets/%s/items?token=%s&format=json", c.BaseURL, url.PathEscape(datasetID), url.QueryEscape(c.Token)),
	}, c.HTTP)
	if err != nil {
		return "", err
	}
	if res.StatusCode != 200 {
		return "", fmt.Errorf("dataset %s fetch failed with status %d", datasetID, res.StatusCode)
	}
	return res.BodyString, nil
}
