// Package instagram is the asynchronous photo-social adapter. The provider
// has no fast query endpoint, so a search runs as a remote scrape job that is
// started, polled to completion and then fetched as a dataset.
package instagram

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
	actorID = "scrapers~instagram-search"

	// Hashtag search grammar: letters, digits and underscores only.
	disallowedChars = `"'#@!?,.:;()[]{}<>/\|&%$^*+=~` + "`"
)

type Adapter struct {
	Jobs *jobs.Poller
}

func New(p *jobs.Poller) *Adapter { return &Adapter{Jobs: p} }

func (a *Adapter) Name() candidate.Platform { return candidate.PlatformInstagram }

func (a *Adapter) Search(ctx context.Context, q platforms.Query) ([]candidate.Result, error) {
	keyword := platforms.SanitizeKeyword(q.Keyword, disallowedChars)
	if keyword == "" {
		return nil, fmt.Errorf("keyword empty after sanitization")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = platforms.DefaultLimit
	}

	input := fmt.Sprintf(`{"search":%s,"searchType":"user","resultsLimit":%d}`,
		strconv.Quote(keyword), limit)

	run, err := a.Jobs.Start(ctx, jobs.Spec{
		Platform: candidate.PlatformInstagram,
		Actor:    actorID,
		Input:    input,
	})
	if err != nil {
		return nil, err
	}

	switch s := a.Jobs.Wait(ctx, run); s {
	case jobs.StatusSucceeded:
	case jobs.StatusTimedOut:
		return nil, fmt.Errorf("instagram job %s timed out", run.Handle)
	default:
		return nil, fmt.Errorf("instagram job %s ended %s", run.Handle, s)
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
		username := gjson.Get(item.Raw, "username").String()
		if username == "" {
			continue
		}
		bio := gjson.Get(item.Raw, "biography").String()
		fullName := gjson.Get(item.Raw, "fullName").String()
		title := fullName
		if title == "" {
			title = username
		}
		results = append(results, candidate.Result{
			Title:       title,
			URL:         "https://www.instagram.com/" + username + "/",
			Snippet:     bio,
			Platform:    candidate.PlatformInstagram,
			Domain:      "instagram.com",
			Email:       candidate.ExtractEmail(bio),
			IsEnriching: true,
			Profile: &candidate.Profile{
				Handle:      username,
				DisplayName: fullName,
				Bio:         bio,
				Followers:   gjson.Get(item.Raw, "followersCount").Int(),
				Verified:    gjson.Get(item.Raw, "verified").Bool(),
			},
		})
		if len(results) >= limit {
			break
		}
	}
	return results
}
