// Package youtube is the synchronous video adapter. It issues a Data-API
// style video search, then one batched channel lookup for the profile
// metadata of every hit.
package youtube

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/internal/utils"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/candidate"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/platforms"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/whttp"
)

const (
	defaultAPIURL = "https://www.googleapis.com/youtube/v3"

	// Video search rejects angle brackets and a few operators outright.
	disallowedChars = `"<>\|#&`
)

type Adapter struct {
	APIKey string
	APIURL string
	HTTP   *retryablehttp.Client
}

func New(apiKey string) *Adapter {
	return &Adapter{APIKey: apiKey, HTTP: whttp.NewClient()}
}

func (a *Adapter) Name() candidate.Platform { return candidate.PlatformYouTube }

func (a *Adapter) Search(ctx context.Context, q platforms.Query) ([]candidate.Result, error) {
	keyword := platforms.SanitizeKeyword(q.Keyword, disallowedChars)
	if keyword == "" {
		return nil, fmt.Errorf("keyword empty after sanitization")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = platforms.DefaultLimit
	}
	apiURL := a.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", keyword)
	params.Set("maxResults", fmt.Sprintf("%d", limit))
	params.Set("key", a.APIKey)
	if cc := platforms.CountryCode(q.Country); cc != "" {
		params.Set("regionCode", strings.ToUpper(cc))
	}
	if lc := platforms.LanguageCode(q.Language); lc != "" {
		params.Set("relevanceLanguage", lc)
	}

	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method: "GET",
		URL:    apiURL + "/search?" + params.Encode(),
	}, a.HTTP)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != 200 {
		return nil, fmt.Errorf("video search returned status %d", res.StatusCode)
	}

	var results []candidate.Result
	var channelIDs []string
	seenChannels := make(map[string]bool)

	for _, item := range gjson.Get(res.BodyString, "items").Array() {
		videoID := gjson.Get(item.Raw, "id.videoId").String()
		if videoID == "" {
			continue
		}
		channelID := gjson.Get(item.Raw, "snippet.channelId").String()
		link := "https://www.youtube.com/watch?v=" + videoID
		results = append(results, candidate.Result{
			Title:       gjson.Get(item.Raw, "snippet.title").String(),
			URL:         link,
			Snippet:     gjson.Get(item.Raw, "snippet.description").String(),
			Platform:    candidate.PlatformYouTube,
			Domain:      "youtube.com",
			IsEnriching: true,
			Profile: &candidate.Profile{
				Handle:      channelID,
				DisplayName: gjson.Get(item.Raw, "snippet.channelTitle").String(),
			},
		})
		if channelID != "" && !seenChannels[channelID] {
			seenChannels[channelID] = true
			channelIDs = append(channelIDs, channelID)
		}
	}

	if len(channelIDs) > 0 {
		// One batched lookup for all channels, not one call per video.
		if err := a.attachChannelStats(ctx, apiURL, channelIDs, results); err != nil {
			utils.Log.Warnf("Channel stats lookup failed: %v", err)
		}
	}

	return results, nil
}

func (a *Adapter) attachChannelStats(ctx context.Context, apiURL string, channelIDs []string, results []candidate.Result) error {
	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", strings.Join(channelIDs, ","))
	params.Set("key", a.APIKey)

	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method: "GET",
		URL:    apiURL + "/channels?" + params.Encode(),
	}, a.HTTP)
	if err != nil {
		return err
	}
	if res.StatusCode != 200 {
		return fmt.Errorf("channel lookup returned status %d", res.StatusCode)
	}

	type channelInfo struct {
		bio         string
		subscribers int64
		videos      int64
	}
	channels := make(map[string]channelInfo)
	for _, item := range gjson.Get(res.BodyString, "items").Array() {
		id := gjson.Get(item.Raw, "id").String()
		channels[id] = channelInfo{
			bio:         gjson.Get(item.Raw, "snippet.description").String(),
			subscribers: gjson.Get(item.Raw, "statistics.subscriberCount").Int(),
			videos:      gjson.Get(item.Raw, "statistics.videoCount").Int(),
		}
	}

	for i := range results {
		p := results[i].Profile
		if p == nil {
			continue
		}
		info, ok := channels[p.Handle]
		if !ok {
			continue
		}
		p.Bio = info.bio
		p.Subscribers = info.subscribers
		p.Videos = info.videos
		results[i].Email = candidate.ExtractEmail(info.bio)
	}
	return nil
}
