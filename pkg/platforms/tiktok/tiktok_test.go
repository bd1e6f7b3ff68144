package tiktok

import (
	"testing"
)

func TestParseDataset(t *testing.T) {
	items := `[
		{"text":"My honest tracker review","webVideoUrl":"https://www.tiktok.com/@fit_tom/video/1",
		 "diggCount":5400,
		 "authorMeta":{"name":"fit_tom","nickName":"Tom","signature":"brand deals: tom@creator.example","fans":89000,"verified":false,"video":120}},
		{"text":"no author","webVideoUrl":"https://www.tiktok.com/@x/video/2","authorMeta":{}},
		{"text":"no url","authorMeta":{"name":"y"}}
	]`

	results := parseDataset(items, 10)
	if len(results) != 1 {
		t.Fatalf("expected 1 result (incomplete items dropped), got %d", len(results))
	}

	r := results[0]
	if r.Profile.Handle != "fit_tom" || r.Profile.Followers != 89000 {
		t.Fatalf("profile not mapped: %+v", r.Profile)
	}
	if r.Profile.Likes != 5400 {
		t.Fatalf("engagement not mapped: %d", r.Profile.Likes)
	}
	if r.Email != "tom@creator.example" {
		t.Fatalf("bio email not extracted: %q", r.Email)
	}
	if r.Domain != "tiktok.com" {
		t.Fatalf("bad domain %q", r.Domain)
	}
}

func TestParseDatasetHonorsLimit(t *testing.T) {
	items := `[
		{"text":"a","webVideoUrl":"https://www.tiktok.com/@a/video/1","authorMeta":{"name":"a"}},
		{"text":"b","webVideoUrl":"https://www.tiktok.com/@b/video/2","authorMeta":{"name":"b"}},
		{"text":"c","webVideoUrl":"https://www.tiktok.com/@c/video/3","authorMeta":{"name":"c"}}
	]`
	if got := len(parseDataset(items, 2)); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}
