// Package tiktok is the asynchronous short-video adapter, built on the same
// remote scrape-job flow as the instagram adapter.
package tiktok

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/candidate"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/jobs"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/platforms"
)

const (
	actorID = "scrapers~tiktok-search"

	disallowedChars = `"'#@!?,.:;()[]{}<>/\|&%$^*+=~` + "`"
)

type Adapter struct {
	Jobs *jobs.Poller
}

func New(p *jobs.Poller) *Adapter { return &Adapter{Jobs: p} }

func (a *Adapter) Name() candidate.Platform { return candidate.PlatformTikTok }

func (a *Adapter) Search(ctx context.Context, q platforms.Query) ([]candidate.Result, error) {
	keyword := platforms.SanitizeKeyword(q.Keyword, disallowedChars)
	if keyword == "" {
		return nil, fmt.Errorf("keyword empty after sanitization")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = platforms.DefaultLimit
	}

	input := fmt.Sprintf(`{"searchQueries":[%s],"resultsPerPage":%d}`,
		strconv.Quote(keyword), limit)

	run, err := a.Jobs.Start(ctx, jobs.Spec{
		Platform: candidate.PlatformTikTok,
		Actor:    actorID,
		Input:    input,
	})
	if err != nil {
		return nil, err
	}

	switch s := a.Jobs.Wait(ctx, run); s {
	case jobs.StatusSucceeded:
	case jobs.StatusTimedOut:
		return nil, fmt.Errorf("tiktok job %s timed out", run.Handle)
	default:
		return nil, fmt.Errorf("tiktok job %s ended %s", run.Handle, s)
	}

	items, err := a.Jobs.FetchResults(ctx, run)
	if err != nil {
		return nil, err
	}
	return parseDataset(items, limit), nil
}

func parseDataset(items string, limit int) []candidate.Result {
	var results []candidate.Result
	for _, item := range gjson.Parse(items).Array() {
		videoURL := gjson.Get(item.Raw, "webVideoUrl").String()
		author := gjson.Get(item.Raw, "authorMeta.name").String()
		if videoURL == "" || author == "" {
			continue
		}
		bio := gjson.Get(item.Raw, "authorMeta.signature").String()
		results = append(results, candidate.Result{
			Title:       gjson.Get(item.Raw, "text").String(),
			URL:         videoURL,
			Snippet:     bio,
			Platform:    candidate.PlatformTikTok,
			Domain:      "tiktok.com",
			Email:       candidate.ExtractEmail(bio),
			IsEnriching: true,
			Profile: &candidate.Profile{
				Handle:      author,
				DisplayName: gjson.Get(item.Raw, "authorMeta.nickName").String(),
				Bio:         bio,
				Followers:   gjson.Get(item.Raw, "authorMeta.fans").Int(),
				Verified:    gjson.Get(item.Raw, "authorMeta.verified").Bool(),
				Likes:       gjson.Get(item.Raw, "diggCount").Int(),
				Videos:      gjson.Get(item.Raw, "authorMeta.video").Int(),
			},
		})
		if len(results) >= limit {
			break
		}
	}
	return results
}
